package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oracletally/internal/dataprocessing"
	"oracletally/internal/exporter"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		concurrency int
		format      string
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "replay <dir>",
		Short: "Tally every fixture in a directory and export an audit",
		Long: `Loads every *.json, *.yaml, *.yml and *.xlsx fixture in a directory (file
name order), tallies them with bounded concurrency and writes the audit
export configured under replay.export_format. When telemetry.metrics_textfile
is set the run's metrics are written there in Prometheus text format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("concurrency") {
				cfg.Replay.Concurrency = concurrency
			}
			if cmd.Flags().Changed("format") {
				cfg.Replay.ExportFormat = format
			}
			if cmd.Flags().Changed("out") {
				cfg.Replay.OutputDir = outputDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			paths, err := cfg.ResolvePaths()
			if err != nil {
				return err
			}
			if err := paths.EnsureDirectories(); err != nil {
				return err
			}

			fixtures, err := dataprocessing.NewLoader(a.logger).LoadDir(args[0])
			if err != nil {
				return err
			}
			if len(fixtures) == 0 {
				return fmt.Errorf("no fixtures found in %s", args[0])
			}

			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			defer p.close(cmd.Context())

			reports, err := p.service.Replay(cmd.Context(), dataprocessing.Batches(fixtures), cfg.Replay.Concurrency)
			if err != nil {
				return err
			}

			entries := make([]exporter.AuditEntry, len(reports))
			var valid, fallback int
			for i, r := range reports {
				entries[i] = exporter.AuditEntry{Source: fixtures[i].Name(), Report: r}
				if r.ConsensusValid {
					valid++
				}
				if r.Fallback {
					fallback++
				}
			}

			files, err := exporter.NewAuditExporter(paths, a.logger).Export(entries, cfg.Replay.ExportFormat)
			if err != nil {
				return err
			}
			if paths.MetricsTextfile != "" {
				if err := p.providers.WriteMetricsTextfile(paths.MetricsTextfile); err != nil {
					return err
				}
				files = append(files, paths.MetricsTextfile)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "replayed %d batches: %d consensus valid, %d fallback\n", len(reports), valid, fallback)
			for _, f := range files {
				fmt.Fprintf(out, "wrote %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "batches tallied at once (overrides replay.concurrency)")
	cmd.Flags().StringVar(&format, "format", "", "export format: csv, xlsx, both, none")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "audit output directory (overrides replay.output_dir)")
	return cmd
}
