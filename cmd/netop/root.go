package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	SessionID string
	app       *app
}

func NewNetopCommand() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "netop",
		Short:         "netop connects external systems to the NetOp partner API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			a, err := newApp(cmd.Context(), o.SessionID)
			if err != nil {
				return err
			}
			o.app = a
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&o.SessionID, "session", defaultSessionID, "Name of the stored session to use.")

	cmd.AddCommand(NewCmdLogin(o))
	cmd.AddCommand(NewCmdLogout(o))
	cmd.AddCommand(NewCmdWhoami(o))
	cmd.AddCommand(NewCmdRefresh(o))
	cmd.AddCommand(NewCmdOrg(o))
	cmd.AddCommand(NewCmdTenant(o))
	return cmd
}
