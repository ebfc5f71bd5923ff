// Package schedule computes due points and urgency states for PM records.
// Everything here is a pure function of the record snapshot, the thresholds,
// and an explicit "now": no clock reads, no stored state.
package schedule

import (
	"time"

	"github.com/zulandar/pmtrack/internal/models"
)

// State is the urgency classification of a PM record.
type State string

const (
	StateOverdue State = "Overdue"
	StateDueSoon State = "Due Soon"
	StateOK      State = "OK"
	StateUnknown State = "Unknown"
	StatePaused  State = "Paused"
	StateRetired State = "Retired"
)

// States lists all classification states in KPI display order.
var States = []State{StateOverdue, StateDueSoon, StateOK, StateUnknown, StatePaused, StateRetired}

// Default "Due Soon" cutoffs.
const (
	DefaultDueSoonDays = 14
	DefaultMeterSoon   = 50
)

// Thresholds holds the two live-adjustable proximity cutoffs for "Due Soon".
type Thresholds struct {
	DueSoonDays int
	MeterSoon   int
}

// DefaultThresholds returns the stock cutoffs (14 days, 50 meter units).
func DefaultThresholds() Thresholds {
	return Thresholds{DueSoonDays: DefaultDueSoonDays, MeterSoon: DefaultMeterSoon}
}

// NextDue derives the next due point for a record. Exactly one of the two
// results is non-nil for a valid recurrence rule; both are nil when the
// interval type is unrecognized or the interval value is not positive.
//
// Date-based types anchor on LastDoneDate, falling back to now's date for
// never-serviced tasks. Meter types anchor on LastMeter; when no last
// reading exists the live CurrentMeter (or zero) is the base instead.
func NextDue(r *models.PMRecord, now time.Time) (*time.Time, *int) {
	if r.IntervalValue <= 0 {
		return nil, nil
	}
	switch r.IntervalType {
	case models.IntervalDays, models.IntervalWeeks, models.IntervalMonths:
		base := dateOf(now)
		if r.LastDoneDate != nil {
			base = dateOf(*r.LastDoneDate)
		}
		var due time.Time
		switch r.IntervalType {
		case models.IntervalDays:
			due = base.AddDate(0, 0, r.IntervalValue)
		case models.IntervalWeeks:
			due = base.AddDate(0, 0, 7*r.IntervalValue)
		case models.IntervalMonths:
			due = addMonths(base, r.IntervalValue)
		}
		return &due, nil
	case models.IntervalMeter:
		base := 0
		if r.LastMeter != nil {
			base = *r.LastMeter
		} else if r.CurrentMeter != nil {
			base = *r.CurrentMeter
		}
		due := base + r.IntervalValue
		return nil, &due
	}
	return nil, nil
}

// Recompute overwrites the record's derived fields from its rule and
// checkpoint. Safe to call repeatedly; the result depends only on the
// inputs.
func Recompute(r *models.PMRecord, now time.Time) {
	r.NextDueDate, r.NextDueMeter = NextDue(r, now)
}

// RecomputeAll returns a copy of records with derived fields refreshed on
// every element. The input slice is not modified.
func RecomputeAll(records []models.PMRecord, now time.Time) []models.PMRecord {
	out := make([]models.PMRecord, len(records))
	for i := range records {
		out[i] = records[i]
		Recompute(&out[i], now)
	}
	return out
}

// Classify converts a record's due point and "now" into an urgency state
// plus the signed remaining distance (days or meter units; negative means
// late). The delta is nil when the state is Unknown. A Paused or Retired
// PMStatus replaces the computed state unconditionally; the delta is still
// reported for information.
func Classify(r *models.PMRecord, th Thresholds, now time.Time) (State, *int) {
	state, delta := classifyUrgency(r, th, now)
	switch r.PMStatus {
	case models.StatusPaused:
		state = StatePaused
	case models.StatusRetired:
		state = StateRetired
	}
	return state, delta
}

func classifyUrgency(r *models.PMRecord, th Thresholds, now time.Time) (State, *int) {
	switch r.IntervalType {
	case models.IntervalDays, models.IntervalWeeks, models.IntervalMonths:
		if r.NextDueDate == nil {
			return StateUnknown, nil
		}
		daysLeft := DaysBetween(now, *r.NextDueDate)
		return threeWay(daysLeft, th.DueSoonDays), &daysLeft
	case models.IntervalMeter:
		if r.NextDueMeter == nil || r.CurrentMeter == nil {
			return StateUnknown, nil
		}
		metersLeft := *r.NextDueMeter - *r.CurrentMeter
		return threeWay(metersLeft, th.MeterSoon), &metersLeft
	}
	return StateUnknown, nil
}

// threeWay applies the shared threshold law: strictly negative is Overdue,
// zero through the cutoff inclusive is Due Soon, beyond it is OK. Due today
// therefore counts as Due Soon, not Overdue.
func threeWay(left, soon int) State {
	switch {
	case left < 0:
		return StateOverdue
	case left <= soon:
		return StateDueSoon
	default:
		return StateOK
	}
}

// DaysBetween returns the whole-day difference from a's date to b's date,
// ignoring time of day and timezone offsets.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// dateOf truncates t to midnight in its own location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// addMonths adds n calendar months, clamping the day of month to the last
// valid day of the target month (Jan 31 + 1 month is Feb 28/29, unlike
// time.AddDate which would normalize into March).
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	// First of the target month, then clamp the day.
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}
