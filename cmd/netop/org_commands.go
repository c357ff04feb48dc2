package main

import (
	"github.com/jrsteele09/netop-connector/projection"
	"github.com/jrsteele09/netop-connector/records"
	"github.com/jrsteele09/netop-connector/upsert"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// OrgOptions are the organization fields. String fields are only sent when
// their flag is given; " " clears a field on update and "" keeps the current value.
type OrgOptions struct {
	SourceSystem     string
	ExternalSystemID string
	PropertyType     string
	Name             string
	ParentID         string
	Tags             []string
	Properties       map[string]string
	AddressLine1     string
	AddressLine2     string
	City             string
	State            string
	Zipcode          string
	Country          string
	Lat              float64
	Lon              float64
}

func NewCmdOrg(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Create, update and find NetOp organizations by external id.",
	}
	cmd.AddCommand(newCmdOrgWrite(root, "upsert", "Update an organization, or create it if not found."))
	cmd.AddCommand(newCmdOrgWrite(root, "create", "Create an organization without looking it up first."))
	cmd.AddCommand(newCmdOrgFind(root))
	return cmd
}

func newCmdOrgWrite(root *rootOptions, use, short string) *cobra.Command {
	o := &OrgOptions{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := o.Input(cmd.Flags())
			if err != nil {
				return err
			}
			r, err := root.app.reconciler()
			if err != nil {
				return err
			}

			var outcome *upsert.Outcome[records.Organization]
			if use == "create" {
				record, err := r.CreateOrganization(cmd.Context(), in)
				if err != nil {
					return err
				}
				outcome = &upsert.Outcome[records.Organization]{Record: record, Action: upsert.ActionCreated}
			} else {
				outcome, err = r.UpsertOrganization(cmd.Context(), in)
				if err != nil {
					return err
				}
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
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (o *OrgOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.ExternalSystemID, "external-id", "", "ID of the organization in the external system.")
	fs.StringVar(&o.PropertyType, "type", "", "Property type: PropertyOwner or PropertyLocation.")
	fs.StringVar(&o.SourceSystem, "source-system", "", "Name of the external system.")
	fs.StringVar(&o.Name, "name", "", "Organization name.")
	fs.StringVar(&o.ParentID, "parent-id", "", "External id of the parent organization.")
	fs.StringSliceVar(&o.Tags, "tag", nil, "Tag to set; repeat for several.")
	fs.StringToStringVar(&o.Properties, "prop", nil, "Additional property as key=value; repeat for several.")
	fs.StringVar(&o.AddressLine1, "address-line1", "", "Street address.")
	fs.StringVar(&o.AddressLine2, "address-line2", "", "Suite or unit.")
	fs.StringVar(&o.City, "city", "", "City.")
	fs.StringVar(&o.State, "state", "", "State.")
	fs.StringVar(&o.Zipcode, "zipcode", "", "Zip or postal code.")
	fs.StringVar(&o.Country, "country", "", "ISO 3166 alpha-2 country code.")
	fs.Float64Var(&o.Lat, "lat", 0, "Latitude.")
	fs.Float64Var(&o.Lon, "lon", 0, "Longitude.")
}

// Input converts the parsed flags into an upsert input.
func (o *OrgOptions) Input(fs *pflag.FlagSet) (upsert.OrganizationInput, error) {
	propertyType, err := upsert.ParsePropertyType(o.PropertyType)
	if err != nil {
		return upsert.OrganizationInput{}, err
	}
	in := upsert.OrganizationInput{
		SourceSystem:         flagString(fs, "source-system", o.SourceSystem),
		ExternalSystemID:     o.ExternalSystemID,
		PropertyType:         propertyType,
		Name:                 flagString(fs, "name", o.Name),
		ParentID:             flagString(fs, "parent-id", o.ParentID),
		Tags:                 o.Tags,
		AdditionalProperties: properties(o.Properties),
	}

	address := records.Address{
		AddressLine1: flagString(fs, "address-line1", o.AddressLine1),
		AddressLine2: flagString(fs, "address-line2", o.AddressLine2),
		City:         flagString(fs, "city", o.City),
		State:        flagString(fs, "state", o.State),
		Zipcode:      flagString(fs, "zipcode", o.Zipcode),
		Country:      flagString(fs, "country", o.Country),
		Lat:          flagFloat(fs, "lat", o.Lat),
		Lon:          flagFloat(fs, "lon", o.Lon),
	}
	if address != (records.Address{}) {
		in.Address = &address
	}
	return in, nil
}

func newCmdOrgFind(root *rootOptions) *cobra.Command {
	var externalID string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find an organization by external id.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := root.app.reconciler()
			if err != nil {
				return err
			}
			found, err := r.Fetcher().FindOrganization(cmd.Context(), externalID)
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
	cmd.Flags().StringVar(&externalID, "external-id", "", "ID of the organization in the external system.")
	_ = cmd.MarkFlagRequired("external-id")
	return cmd
}

// flagString returns nil unless the flag was given, so unset fields are not sent.
func flagString(fs *pflag.FlagSet, name, value string) *string {
	if !fs.Changed(name) {
		return nil
	}
	return &value
}

func flagFloat(fs *pflag.FlagSet, name string, value float64) *float64 {
	if !fs.Changed(name) {
		return nil
	}
	return &value
}

func properties(values map[string]string) map[string]any {
	if len(values) == 0 {
		return nil
	}
	return lo.MapValues(values, func(v string, _ string) any { return v })
}
