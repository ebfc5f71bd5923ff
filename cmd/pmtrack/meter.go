package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/pmtrack/internal/task"
)

func newMeterCmd() *cobra.Command {
	var (
		configPath string
		ids        []uint
		reading    int
	)

	cmd := &cobra.Command{
		Use:   "meter",
		Short: "Bulk-update live meter readings",
		Long:  "Overwrites the current meter reading on the selected records. The last-service checkpoint and the next due point are untouched; only urgency changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("--id is required at least once")
			}
			_, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			n, err := task.BulkMeterUpdate(db, ids, reading, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated current meter to %d on %d record(s)\n", reading, n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	cmd.Flags().UintSliceVar(&ids, "id", nil, "record id (repeatable)")
	cmd.Flags().IntVar(&reading, "reading", 0, "new current meter reading (required)")
	cmd.MarkFlagRequired("reading")
	return cmd
}
