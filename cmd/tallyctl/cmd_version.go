package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"oracletally/pkg/contracts"
)

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(contracts.GetVersionInfo())
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString()); err != nil {
				return err
			}
			if ch := contracts.Channel(); ch != contracts.ChannelStable {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s build, do not mix with stable nodes in one tally round\n", ch)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
