package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/pmtrack/internal/task"
)

func newCompleteCmd() *cobra.Command {
	var (
		configPath string
		dateStr    string
		meterStr   string
	)

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Log completion of a PM task",
		Long:  "Records that the task was performed and recomputes its next due point. For meter-based tasks, --meter sets both the last-service and live readings.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			donePtr, err := parseDateFlag(dateStr)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			done := time.Now()
			if donePtr != nil {
				done = *donePtr
			}
			meter, err := parseMeterFlag(meterStr)
			if err != nil {
				return fmt.Errorf("--meter: %w", err)
			}

			_, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rec, err := task.LogCompletion(db, id, done, meter, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged completion for PM %d: %s / %s\n", rec.ID, rec.AssetName, rec.PMTask)
			fmt.Fprintf(out, "Next due: %s\n", formatDue(rec))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	cmd.Flags().StringVar(&dateStr, "date", "", "completion date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&meterStr, "meter", "", "completion meter reading (meter-based tasks)")
	return cmd
}
