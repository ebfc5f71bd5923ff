package store

import (
	"fmt"
	"time"

	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/schedule"
	"gorm.io/gorm"
)

// SampleRecords returns the demo collection: one overdue time-based task,
// one meter task approaching its service point, and one paused task.
// Checkpoints are relative to now so the demo states stay meaningful.
func SampleRecords(now time.Time) []models.PMRecord {
	sevenMonthsAgo := now.AddDate(0, -7, 0)
	tenWeeksAgo := now.AddDate(0, 0, -70)
	lastMeter, currentMeter := 1400, 1585

	recs := []models.PMRecord{
		{
			Site: "Main Plant", AssetID: "CMP-401", AssetName: "Air Compressor #1",
			Component: "Compressor", PMTask: "Change oil & filter",
			IntervalType: models.IntervalMonths, IntervalValue: 6,
			LastDoneDate: &sevenMonthsAgo,
			Priority:     "High", PMStatus: models.StatusActive,
			Owner: "Keith", Notes: "Use ISO 68",
		},
		{
			Site: "Main Plant", AssetID: "FLT-112", AssetName: "Forklift A",
			Component: "Engine", PMTask: "Service @ every 200 hrs",
			IntervalType: models.IntervalMeter, IntervalValue: 200,
			LastMeter: &lastMeter, CurrentMeter: &currentMeter,
			Priority: "Medium", PMStatus: models.StatusActive, Owner: "Shop",
		},
		{
			Site: "Warehouse", AssetID: "FAN-020", AssetName: "Exhaust Fan",
			Component: "Motor", PMTask: "Grease bearings",
			IntervalType: models.IntervalWeeks, IntervalValue: 12,
			LastDoneDate: &tenWeeksAgo,
			Priority:     "Low", PMStatus: models.StatusPaused,
			Owner: "Vendor", Notes: "Awaiting parts",
		},
	}
	return schedule.RecomputeAll(recs, now)
}

// SeedSample inserts the demo records into an empty store. A store that
// already has records is left alone.
func SeedSample(db *gorm.DB, now time.Time) (int, error) {
	var count int64
	if err := db.Model(&models.PMRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("store: count records: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	recs := SampleRecords(now)
	for i := range recs {
		if err := db.Create(&recs[i]).Error; err != nil {
			return i, fmt.Errorf("store: seed record %d: %w", i, err)
		}
	}
	return len(recs), nil
}
