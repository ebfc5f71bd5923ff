package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/pmtrack/internal/store"
	"github.com/zulandar/pmtrack/internal/task"
)

func newCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "CSV import and export",
	}

	cmd.AddCommand(newCSVImportCmd())
	cmd.AddCommand(newCSVExportCmd())
	return cmd
}

func newCSVImportCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all records from a CSV file",
		Long:  "Reads the 16-column PM schema and replaces the stored collection. Missing columns load as empty; malformed dates and numbers load as absent. Due points are recomputed, never trusted from the file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			recs, err := store.Import(f)
			if err != nil {
				return err
			}

			_, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			n, err := task.ReplaceAll(db, recs, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d record(s) from %s\n", n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	return cmd
}

func newCSVExportCmd() *cobra.Command {
	var (
		configPath string
		outPath    string
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all records to CSV",
		Long:  "Writes the 16-column schema prefixed with computed DueStatus and Urgency columns. With --plain the computed columns are omitted, producing a file that round-trips through import.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			recs, err := task.List(db)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			var closeFn func() error
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				w = f
				closeFn = f.Close
			}

			if plain {
				err = store.Write(w, recs)
			} else {
				err = store.Export(w, recs, cfg.SoonThresholds(), time.Now())
			}
			if closeFn != nil {
				if cerr := closeFn(); err == nil {
					err = cerr
				}
			}
			if err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", len(recs), outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&plain, "plain", false, "omit the computed DueStatus/Urgency columns")
	return cmd
}
