package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/pmtrack/internal/config"
	"github.com/zulandar/pmtrack/internal/store"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath string
		seed       bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the pmtrack database",
		Long:  "Creates or migrates the record table. With --seed, an empty database gets three demo PM records.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, seed)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pmtrack.yaml", "path to pmtrack config file")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed demo records into an empty database")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string, seed bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverSQLite {
		fmt.Fprintf(out, "Using sqlite database %s\n", cfg.Database.Path)
	} else {
		fmt.Fprintf(out, "Connected to %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	}

	if err := store.AutoMigrate(db); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d table(s)\n", len(store.AllModels()))

	if seed {
		n, err := store.SeedSample(db, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			fmt.Fprintf(out, "Seeded %d demo record(s)\n", n)
		} else {
			fmt.Fprintln(out, "Database not empty, seed skipped")
		}
	}
	return nil
}
