package main

import (
	"github.com/jrsteele09/netop-connector/projection"
	"github.com/jrsteele09/netop-connector/upsert"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type TenantOptions struct {
	SourceSystem     string
	ExternalSystemID string
	OrgID            string
	Name             string
	LineOfBusiness   string
	Priority         string
	Properties       map[string]string
}

func NewCmdTenant(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Create, update and find NetOp tenants by external id.",
	}
	cmd.AddCommand(newCmdTenantUpsert(root))
	cmd.AddCommand(newCmdTenantFind(root))
	return cmd
}

func newCmdTenantUpsert(root *rootOptions) *cobra.Command {
	o := &TenantOptions{}
	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Update a tenant, or create it if not found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := root.app.reconciler()
			if err != nil {
				return err
			}
			outcome, err := r.UpsertTenant(cmd.Context(), o.Input(cmd.Flags()))
			if err != nil {
				return err
			}
			flat, err := projection.Outcome(outcome)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), flat)
		},
	}
	o.Bind(cmd.Flags())
	_ = cmd.MarkFlagRequired("external-id")
	return cmd
}

func (o *TenantOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.ExternalSystemID, "external-id", "", "ID of the tenant in the external system.")
	fs.StringVar(&o.SourceSystem, "source-system", "", "Name of the external system.")
	fs.StringVar(&o.OrgID, "org-id", "", "External id of the tenant's organization.")
	fs.StringVar(&o.Name, "name", "", "Tenant name.")
	fs.StringVar(&o.LineOfBusiness, "line-of-business", "", "Line of business.")
	fs.StringVar(&o.Priority, "priority", "", "Priority: Low, Medium or High.")
	fs.StringToStringVar(&o.Properties, "prop", nil, "Additional property as key=value; repeat for several.")
}

func (o *TenantOptions) Input(fs *pflag.FlagSet) upsert.TenantInput {
	return upsert.TenantInput{
		SourceSystem:         flagString(fs, "source-system", o.SourceSystem),
		ExternalSystemID:     o.ExternalSystemID,
		OrgID:                flagString(fs, "org-id", o.OrgID),
		Name:                 flagString(fs, "name", o.Name),
		LineOfBusiness:       flagString(fs, "line-of-business", o.LineOfBusiness),
		Priority:             flagString(fs, "priority", o.Priority),
		AdditionalProperties: properties(o.Properties),
	}
}

func newCmdTenantFind(root *rootOptions) *cobra.Command {
	var externalID string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find a tenant by external id.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := root.app.reconciler()
			if err != nil {
				return err
			}
			found, err := r.Fetcher().FindTenant(cmd.Context(), externalID)
			if err != nil {
				return err
			}
			flat, err := projection.Records(found)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), flat)
		},
	}
	cmd.Flags().StringVar(&externalID, "external-id", "", "ID of the tenant in the external system.")
	_ = cmd.MarkFlagRequired("external-id")
	return cmd
}
