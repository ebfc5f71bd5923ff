package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/query"
	"github.com/zulandar/pmtrack/internal/schedule"
	"github.com/zulandar/pmtrack/internal/store"
	"github.com/zulandar/pmtrack/internal/task"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "PM task management commands",
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	cmd.AddCommand(newTaskAssetsCmd())
	return cmd
}

// taskFlags binds the shared create/update field flags.
type taskFlags struct {
	site          string
	assetID       string
	assetName     string
	component     string
	pmTask        string
	intervalType  string
	intervalValue int
	lastDone      string
	lastMeter     string
	currentMeter  string
	priority      string
	pmStatus      string
	owner         string
	notes         string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.site, "site", "", "site name")
	cmd.Flags().StringVar(&f.assetID, "asset-id", "", "asset identifier")
	cmd.Flags().StringVar(&f.assetName, "asset", "", "asset name (required)")
	cmd.Flags().StringVar(&f.component, "component", "", "component the task applies to")
	cmd.Flags().StringVar(&f.pmTask, "task", "", "task description (required)")
	cmd.Flags().StringVar(&f.intervalType, "interval-type", "", "recurrence type (Days, Weeks, Months, Meter)")
	cmd.Flags().IntVar(&f.intervalValue, "interval", 0, "recurrence interval (positive integer)")
	cmd.Flags().StringVar(&f.lastDone, "last-done", "", "last completion date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.lastMeter, "last-meter", "", "meter reading at last completion")
	cmd.Flags().StringVar(&f.currentMeter, "current-meter", "", "live meter reading")
	cmd.Flags().StringVar(&f.priority, "priority", "", "priority (Low, Medium, High, Critical)")
	cmd.Flags().StringVar(&f.pmStatus, "status", "", "PM status (Active, Paused, Retired)")
	cmd.Flags().StringVar(&f.owner, "owner", "", "responsible owner")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-text notes")
}

func (f *taskFlags) toInput() (task.Input, error) {
	lastDone, err := parseDateFlag(f.lastDone)
	if err != nil {
		return task.Input{}, fmt.Errorf("--last-done: %w", err)
	}
	lastMeter, err := parseMeterFlag(f.lastMeter)
	if err != nil {
		return task.Input{}, fmt.Errorf("--last-meter: %w", err)
	}
	currentMeter, err := parseMeterFlag(f.currentMeter)
	if err != nil {
		return task.Input{}, fmt.Errorf("--current-meter: %w", err)
	}
	return task.Input{
		Site:          f.site,
		AssetID:       f.assetID,
		AssetName:     f.assetName,
		Component:     f.component,
		PMTask:        f.pmTask,
		IntervalType:  f.intervalType,
		IntervalValue: f.intervalValue,
		LastDoneDate:  lastDone,
		LastMeter:     lastMeter,
		CurrentMeter:  currentMeter,
		Priority:      f.priority,
		PMStatus:      f.pmStatus,
		Owner:         f.owner,
		Notes:         f.notes,
	}, nil
}

func newTaskCreateCmd() *cobra.Command {
	var configPath string
	var flags taskFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new PM task",
		Long:  "Creates a PM record and computes its next due point from the recurrence rule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.toInput()
			if err != nil {
				return err
			}
			_, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rec, err := task.Create(db, in, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created PM %d: %s / %s\n", rec.ID, rec.AssetName, rec.PMTask)
			fmt.Fprintf(out, "Next due: %s\n", formatDue(rec))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	flags.register(cmd)
	cmd.MarkFlagRequired("asset")
	cmd.MarkFlagRequired("task")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		site       string
		asset      string
		priority   string
		pmStatus   string
		intervals  []string
		state      string
		search     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List PM tasks",
		Long:  "Lists PM records with their computed due status. All filters are AND-combined.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			recs, err := task.List(db)
			if err != nil {
				return err
			}

			f := query.Filters{
				Site:      site,
				AssetName: asset,
				Priority:  priority,
				PMStatus:  pmStatus,
				State:     schedule.State(state),
				Search:    search,
			}
			if len(intervals) > 0 {
				f.IntervalTypes = intervals
			}

			th := cfg.SoonThresholds()
			now := time.Now()
			matched := query.Apply(recs, f, th, now)

			out := cmd.OutOrStdout()
			if len(matched) == 0 {
				fmt.Fprintln(out, "No PM tasks found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tLEFT\tDUE\tSITE\tASSET\tCOMPONENT\tTASK\tPRI")
			for i := range matched {
				r := &matched[i]
				s, delta := schedule.Classify(r, th, now)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, s, formatUrgency(s, delta), formatDue(r),
					r.Site, r.AssetName, r.Component, r.PMTask, r.Priority)
			}
			w.Flush()

			// KPI footer over the full set, independent of filters.
			counts := query.KPICounts(recs, th, now)
			var parts []string
			for _, st := range schedule.States {
				parts = append(parts, fmt.Sprintf("%s %d", st, counts[st]))
			}
			fmt.Fprintf(out, "\n%d/%d shown | %s\n", len(matched), len(recs), strings.Join(parts, " | "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	cmd.Flags().StringVar(&site, "site", "", "filter by site")
	cmd.Flags().StringVar(&asset, "asset", "", "filter by asset name")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&pmStatus, "status", "", "filter by PM status")
	cmd.Flags().StringSliceVar(&intervals, "interval-type", nil, "filter by interval type(s)")
	cmd.Flags().StringVar(&state, "state", "", "filter by due status (Overdue, Due Soon, OK, Unknown, Paused, Retired)")
	cmd.Flags().StringVar(&search, "search", "", "substring search over task, component, asset, notes")
	return cmd
}

func newTaskShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one PM task in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			cfg, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rec, err := task.Get(db, id)
			if err != nil {
				return err
			}

			th := cfg.SoonThresholds()
			now := time.Now()
			state, delta := schedule.Classify(rec, th, now)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "PM %d: %s / %s\n", rec.ID, rec.AssetName, rec.PMTask)
			fmt.Fprintf(out, "Status: %s (%s left)\n", state, formatUrgency(state, delta))
			fmt.Fprintf(out, "Site: %s  Asset ID: %s  Component: %s\n", rec.Site, rec.AssetID, rec.Component)
			fmt.Fprintf(out, "Recurrence: every %d %s\n", rec.IntervalValue, rec.IntervalType)
			if rec.LastDoneDate != nil {
				fmt.Fprintf(out, "Last done: %s\n", rec.LastDoneDate.Format(store.DateFormat))
			}
			if rec.IntervalType == models.IntervalMeter {
				fmt.Fprintf(out, "Last meter: %s  Current meter: %s\n", formatMeter(rec.LastMeter), formatMeter(rec.CurrentMeter))
			}
			fmt.Fprintf(out, "Next due: %s\n", formatDue(rec))
			fmt.Fprintf(out, "Priority: %s  PM status: %s  Owner: %s\n", rec.Priority, rec.PMStatus, rec.Owner)
			if rec.Notes != "" {
				fmt.Fprintf(out, "Notes: %s\n", rec.Notes)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	var configPath string
	var flags taskFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a PM task",
		Long:  "Overwrites a PM record's fields and recomputes its due point. Checkpoint fields (--last-done, --last-meter, --current-meter) change only when supplied.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			in, err := flags.toInput()
			if err != nil {
				return err
			}
			_, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rec, err := task.Update(db, id, in, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated PM %d: %s / %s\n", rec.ID, rec.AssetName, rec.PMTask)
			fmt.Fprintf(out, "Next due: %s\n", formatDue(rec))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	flags.register(cmd)
	cmd.MarkFlagRequired("asset")
	cmd.MarkFlagRequired("task")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a PM task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			_, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := task.Delete(db, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted PM %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	return cmd
}

func newTaskAssetsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Show the asset rollup",
		Long:  "One row per asset: its components, task count, earliest due date, and most urgent state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			recs, err := task.List(db)
			if err != nil {
				return err
			}

			assets := query.Assets(recs, cfg.SoonThresholds(), time.Now())
			out := cmd.OutOrStdout()
			if len(assets) == 0 {
				fmt.Fprintln(out, "No assets found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SITE\tASSET\tCOMPONENTS\tTASKS\tEARLIEST DUE\tSTATE")
			for _, a := range assets {
				due := "-"
				if a.EarliestDue != nil {
					due = a.EarliestDue.Format(store.DateFormat)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					a.Site, a.AssetName, strings.Join(a.Components, ", "), a.TaskCount, due, a.WorstState)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	return cmd
}

func parseIDArg(s string) (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}
