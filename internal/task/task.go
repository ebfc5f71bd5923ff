// Package task provides PM record lifecycle operations. Every mutation
// re-runs the due-point calculator before persisting so the stored derived
// fields never drift from their inputs.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/schedule"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record identifier does not exist.
var ErrNotFound = errors.New("task: record not found")

// Input holds the caller-supplied field values for create and update.
// Pointer fields distinguish "not supplied" from an explicit value; an
// update leaves the stored checkpoint alone when they are nil.
type Input struct {
	Site          string
	AssetID       string
	AssetName     string
	Component     string
	PMTask        string
	IntervalType  string
	IntervalValue int
	LastDoneDate  *time.Time
	LastMeter     *int
	CurrentMeter  *int
	Priority      string
	PMStatus      string
	Owner         string
	Notes         string
}

func (in *Input) validate() error {
	if in.PMTask == "" {
		return fmt.Errorf("task: PM task description is required")
	}
	if in.AssetName == "" {
		return fmt.Errorf("task: asset name is required")
	}
	if in.IntervalType != "" && !models.ValidIntervalType(in.IntervalType) {
		return fmt.Errorf("task: invalid interval type %q (valid: Days, Weeks, Months, Meter)", in.IntervalType)
	}
	if in.Priority != "" && !models.ValidPriority(in.Priority) {
		return fmt.Errorf("task: invalid priority %q (valid: Low, Medium, High, Critical)", in.Priority)
	}
	if in.PMStatus != "" && !models.ValidPMStatus(in.PMStatus) {
		return fmt.Errorf("task: invalid PM status %q (valid: Active, Paused, Retired)", in.PMStatus)
	}
	if in.LastMeter != nil && *in.LastMeter < 0 {
		return fmt.Errorf("task: last meter must be non-negative")
	}
	if in.CurrentMeter != nil && *in.CurrentMeter < 0 {
		return fmt.Errorf("task: current meter must be non-negative")
	}
	return nil
}

// Create builds a record from in, computes its derived fields, and persists
// it. Priority defaults to Medium and PM status to Active.
func Create(db *gorm.DB, in Input, now time.Time) (*models.PMRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Priority == "" {
		in.Priority = "Medium"
	}
	if in.PMStatus == "" {
		in.PMStatus = models.StatusActive
	}

	rec := models.PMRecord{
		Site:          in.Site,
		AssetID:       in.AssetID,
		AssetName:     in.AssetName,
		Component:     in.Component,
		PMTask:        in.PMTask,
		IntervalType:  in.IntervalType,
		IntervalValue: in.IntervalValue,
		LastDoneDate:  in.LastDoneDate,
		LastMeter:     in.LastMeter,
		CurrentMeter:  in.CurrentMeter,
		Priority:      in.Priority,
		PMStatus:      in.PMStatus,
		Owner:         in.Owner,
		Notes:         in.Notes,
	}
	schedule.Recompute(&rec, now)

	if err := db.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("task: create: %w", err)
	}
	return &rec, nil
}

// Update overwrites the identified record with in and recomputes derived
// fields. The last-done date and meter checkpoints are only replaced when
// explicitly supplied.
func Update(db *gorm.DB, id uint, in Input, now time.Time) (*models.PMRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	rec, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	rec.Site = in.Site
	rec.AssetID = in.AssetID
	rec.AssetName = in.AssetName
	rec.Component = in.Component
	rec.PMTask = in.PMTask
	rec.IntervalType = in.IntervalType
	rec.IntervalValue = in.IntervalValue
	if in.LastDoneDate != nil {
		rec.LastDoneDate = in.LastDoneDate
	}
	if in.LastMeter != nil {
		rec.LastMeter = in.LastMeter
	}
	if in.CurrentMeter != nil {
		rec.CurrentMeter = in.CurrentMeter
	}
	if in.Priority != "" {
		rec.Priority = in.Priority
	}
	if in.PMStatus != "" {
		rec.PMStatus = in.PMStatus
	}
	rec.Owner = in.Owner
	rec.Notes = in.Notes
	schedule.Recompute(rec, now)

	if err := db.Save(rec).Error; err != nil {
		return nil, fmt.Errorf("task: update %d: %w", id, err)
	}
	return rec, nil
}

// LogCompletion records that the task was performed on done. For meter-type
// tasks a supplied reading becomes both the last-service and the live meter
// value, giving the next interval a fresh checkpoint. Derived fields are
// recomputed from the new state.
func LogCompletion(db *gorm.DB, id uint, done time.Time, meter *int, now time.Time) (*models.PMRecord, error) {
	if meter != nil && *meter < 0 {
		return nil, fmt.Errorf("task: completion meter must be non-negative")
	}

	rec, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	d := time.Date(done.Year(), done.Month(), done.Day(), 0, 0, 0, 0, time.UTC)
	rec.LastDoneDate = &d
	if rec.IntervalType == models.IntervalMeter && meter != nil {
		m := *meter
		rec.LastMeter = &m
		rec.CurrentMeter = &m
	}
	schedule.Recompute(rec, now)

	if err := db.Save(rec).Error; err != nil {
		return nil, fmt.Errorf("task: log completion for %d: %w", id, err)
	}
	return rec, nil
}

// BulkMeterUpdate overwrites the live meter reading on each identified
// record without touching the last-service checkpoint, then recomputes
// derived fields. Only urgency changes for meter-type records; their next
// due meter depends on the last reading, not the live one. Returns the
// number of records updated.
func BulkMeterUpdate(db *gorm.DB, ids []uint, reading int, now time.Time) (int, error) {
	if reading < 0 {
		return 0, fmt.Errorf("task: meter reading must be non-negative")
	}

	updated := 0
	for _, id := range ids {
		rec, err := Get(db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return updated, err
		}
		m := reading
		rec.CurrentMeter = &m
		schedule.Recompute(rec, now)
		if err := db.Save(rec).Error; err != nil {
			return updated, fmt.Errorf("task: bulk meter update %d: %w", id, err)
		}
		updated++
	}
	return updated, nil
}

// Delete removes the identified record. Single-table model, no cascades.
func Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.PMRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("task: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Get fetches one record by ID.
func Get(db *gorm.DB, id uint) (*models.PMRecord, error) {
	var rec models.PMRecord
	if err := db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("task: get %d: %w", id, err)
	}
	return &rec, nil
}

// List returns the full collection ordered by site, asset, and task.
func List(db *gorm.DB) ([]models.PMRecord, error) {
	var recs []models.PMRecord
	if err := db.Order("site ASC, asset_name ASC, pm_task ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return recs, nil
}

// RecomputeAll refreshes the derived fields of every stored record and
// saves those that changed. Used after imports and by the daily refresh;
// records without a last-done date anchor on "today" and so drift across
// midnight. Returns the number of records whose derived fields changed.
func RecomputeAll(db *gorm.DB, now time.Time) (int, error) {
	recs, err := List(db)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range recs {
		before := recs[i]
		schedule.Recompute(&recs[i], now)
		if !sameDerived(&before, &recs[i]) {
			if err := db.Save(&recs[i]).Error; err != nil {
				return changed, fmt.Errorf("task: recompute save %d: %w", recs[i].ID, err)
			}
			changed++
		}
	}
	return changed, nil
}

// ReplaceAll swaps the whole stored collection for records, recomputing
// derived fields on the way in. Used by CSV import, which replaces rather
// than merges. The delete and inserts run in one transaction so a failed
// import leaves the store untouched.
func ReplaceAll(db *gorm.DB, records []models.PMRecord, now time.Time) (int, error) {
	records = schedule.RecomputeAll(records, now)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PMRecord{}).Error; err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
		for i := range records {
			records[i].ID = 0
			if err := tx.Create(&records[i]).Error; err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("task: replace all: %w", err)
	}
	return len(records), nil
}

func sameDerived(a, b *models.PMRecord) bool {
	return sameTimePtr(a.NextDueDate, b.NextDueDate) && sameIntPtr(a.NextDueMeter, b.NextDueMeter)
}

func sameTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func sameIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
