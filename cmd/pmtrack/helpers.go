package main

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/pmtrack/internal/config"
	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/schedule"
	"github.com/zulandar/pmtrack/internal/store"
)

// connectFromConfig loads the config file and opens the database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// parseDateFlag parses a YYYY-MM-DD flag value; empty means not supplied.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(store.DateFormat, s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	return &t, nil
}

// parseMeterFlag parses a non-negative integer flag; empty means not
// supplied, so a zero reading can still be given explicitly.
func parseMeterFlag(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if n < 0 {
		return nil, fmt.Errorf("meter reading must be non-negative")
	}
	return &n, nil
}

// formatDue renders the record's due point for table display.
func formatDue(r *models.PMRecord) string {
	if r.NextDueDate != nil {
		return r.NextDueDate.Format(store.DateFormat)
	}
	if r.NextDueMeter != nil {
		return fmt.Sprintf("@%d", *r.NextDueMeter)
	}
	return "-"
}

// formatUrgency renders the signed days/meter-units remaining.
func formatUrgency(state schedule.State, delta *int) string {
	if delta == nil {
		return "-"
	}
	switch state {
	case schedule.StatePaused, schedule.StateRetired:
		return fmt.Sprintf("(%d)", *delta)
	}
	return strconv.Itoa(*delta)
}

// formatMeter renders an optional meter reading.
func formatMeter(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}
