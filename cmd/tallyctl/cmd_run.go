package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"oracletally/internal/dataprocessing"
)

func newRunCmd(a *app) *cobra.Command {
	var hexOnly bool

	cmd := &cobra.Command{
		Use:   "run <fixture>",
		Short: "Tally one recorded reveal batch",
		Long: `Loads a reveal batch from a JSON, YAML or XLSX fixture, runs the tally and
prints the report as JSON followed by the 16-byte result buffer in hex.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := dataprocessing.NewLoader(a.logger).LoadFile(args[0])
			if err != nil {
				return err
			}

			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			defer p.close(cmd.Context())

			report, err := p.service.Run(cmd.Context(), batch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if hexOnly {
				_, err = fmt.Fprintln(out, report.OutputHex)
				return err
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "output: %s\n", report.OutputHex)
			return err
		},
	}

	cmd.Flags().BoolVar(&hexOnly, "hex", false, "print only the result buffer")
	return cmd
}
