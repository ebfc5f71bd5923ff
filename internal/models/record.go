package models

import "time"

// Interval types define how a PM recurs: elapsed calendar time or
// accumulated usage on a meter.
const (
	IntervalDays   = "Days"
	IntervalWeeks  = "Weeks"
	IntervalMonths = "Months"
	IntervalMeter  = "Meter"
)

// IntervalTypes lists the recognized recurrence types in display order.
var IntervalTypes = []string{IntervalDays, IntervalWeeks, IntervalMonths, IntervalMeter}

// Priorities lists the valid priority levels in display order.
var Priorities = []string{"Low", "Medium", "High", "Critical"}

// PM statuses. Paused and Retired override the computed urgency state.
const (
	StatusActive  = "Active"
	StatusPaused  = "Paused"
	StatusRetired = "Retired"
)

// PMStatuses lists the valid PM statuses in display order.
var PMStatuses = []string{StatusActive, StatusPaused, StatusRetired}

// PMRecord is one preventive-maintenance task on one asset component.
// Optional fields are pointers; nil means absent, never a sentinel value.
// NextDueDate and NextDueMeter are derived from the recurrence rule and the
// last-service checkpoint and are recomputed after every mutation; the
// stored values are a cache, not a source of truth.
type PMRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Site      string `gorm:"size:64;index"`
	AssetID   string `gorm:"size:64;index"`
	AssetName string `gorm:"size:128;index"`
	Component string `gorm:"size:128"`
	PMTask    string `gorm:"not null"`

	IntervalType  string `gorm:"size:16"`
	IntervalValue int

	LastDoneDate *time.Time
	LastMeter    *int
	CurrentMeter *int

	NextDueDate  *time.Time
	NextDueMeter *int

	Priority  string `gorm:"size:16;default:Medium"`
	PMStatus  string `gorm:"size:16;default:Active;index"`
	Owner     string `gorm:"size:64"`
	Notes     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidIntervalType reports whether t is one of the four recurrence types.
func ValidIntervalType(t string) bool {
	for _, v := range IntervalTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is a recognized priority level.
func ValidPriority(p string) bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// ValidPMStatus reports whether s is a recognized PM status.
func ValidPMStatus(s string) bool {
	for _, v := range PMStatuses {
		if s == v {
			return true
		}
	}
	return false
}
