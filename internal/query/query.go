// Package query filters, searches, and aggregates PM records in memory.
// All operations take a record snapshot and return views; nothing here
// mutates the underlying collection.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/schedule"
)

// Filters is a conjunction of predicates over PM records. Zero values mean
// "no filter": empty strings are wildcards, a nil IntervalTypes keeps all
// four types, an empty State skips the classification filter.
type Filters struct {
	Site          string
	AssetName     string
	Priority      string
	PMStatus      string
	IntervalTypes []string
	State         schedule.State
	Search        string
}

// Apply returns the records matching every active filter. The filters are
// order-independent predicates; the result is a new slice sharing the
// original record values.
func Apply(records []models.PMRecord, f Filters, th schedule.Thresholds, now time.Time) []models.PMRecord {
	out := make([]models.PMRecord, 0, len(records))
	for i := range records {
		if Matches(&records[i], f, th, now) {
			out = append(out, records[i])
		}
	}
	return out
}

// Matches reports whether a single record passes every active filter.
func Matches(r *models.PMRecord, f Filters, th schedule.Thresholds, now time.Time) bool {
	if f.Site != "" && r.Site != f.Site {
		return false
	}
	if f.AssetName != "" && r.AssetName != f.AssetName {
		return false
	}
	if f.Priority != "" && r.Priority != f.Priority {
		return false
	}
	if f.PMStatus != "" && r.PMStatus != f.PMStatus {
		return false
	}
	if f.IntervalTypes != nil && !containsString(f.IntervalTypes, r.IntervalType) {
		return false
	}
	if f.State != "" {
		state, _ := schedule.Classify(r, th, now)
		if state != f.State {
			return false
		}
	}
	if !matchesSearch(r, f.Search) {
		return false
	}
	return true
}

// matchesSearch does a case-insensitive substring match against the task,
// component, asset name, and notes fields. An empty query matches all.
func matchesSearch(r *models.PMRecord, q string) bool {
	q = strings.TrimSpace(strings.ToLower(q))
	if q == "" {
		return true
	}
	for _, field := range []string{r.PMTask, r.Component, r.AssetName, r.Notes} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// KPICounts counts records per classification state over the full,
// unfiltered set, so KPI tiles always reflect totals regardless of the
// active filters.
func KPICounts(records []models.PMRecord, th schedule.Thresholds, now time.Time) map[schedule.State]int {
	counts := make(map[schedule.State]int, len(schedule.States))
	for _, s := range schedule.States {
		counts[s] = 0
	}
	for i := range records {
		state, _ := schedule.Classify(&records[i], th, now)
		counts[state]++
	}
	return counts
}

// Options holds the distinct site and asset-name values present in the
// collection, sorted, for populating filter dropdowns.
type Options struct {
	Sites      []string
	AssetNames []string
}

// FilterOptions collects the distinct non-empty sites and asset names.
func FilterOptions(records []models.PMRecord) Options {
	return Options{
		Sites:      distinct(records, func(r *models.PMRecord) string { return r.Site }),
		AssetNames: distinct(records, func(r *models.PMRecord) string { return r.AssetName }),
	}
}

// AssetSummary is one row of the asset rollup: all PM tasks on one asset
// collapsed to its components, task count, and the most urgent due point.
type AssetSummary struct {
	Site        string
	AssetID     string
	AssetName   string
	Components  []string
	TaskCount   int
	EarliestDue *time.Time
	WorstState  schedule.State
}

// stateRank orders states by urgency for the rollup's WorstState pick.
var stateRank = map[schedule.State]int{
	schedule.StateOverdue: 0,
	schedule.StateDueSoon: 1,
	schedule.StateOK:      2,
	schedule.StateUnknown: 3,
	schedule.StatePaused:  4,
	schedule.StateRetired: 5,
}

// Assets rolls the collection up to one summary per (site, asset) pair,
// sorted by site then asset name.
func Assets(records []models.PMRecord, th schedule.Thresholds, now time.Time) []AssetSummary {
	type key struct{ site, assetID, assetName string }
	byAsset := make(map[key]*AssetSummary)
	var order []key

	for i := range records {
		r := &records[i]
		k := key{r.Site, r.AssetID, r.AssetName}
		s, ok := byAsset[k]
		if !ok {
			s = &AssetSummary{
				Site:       r.Site,
				AssetID:    r.AssetID,
				AssetName:  r.AssetName,
				WorstState: schedule.StateRetired,
			}
			byAsset[k] = s
			order = append(order, k)
		}
		s.TaskCount++
		if r.Component != "" && !containsString(s.Components, r.Component) {
			s.Components = append(s.Components, r.Component)
		}
		if r.NextDueDate != nil && (s.EarliestDue == nil || r.NextDueDate.Before(*s.EarliestDue)) {
			s.EarliestDue = r.NextDueDate
		}
		state, _ := schedule.Classify(r, th, now)
		if stateRank[state] < stateRank[s.WorstState] {
			s.WorstState = state
		}
	}

	out := make([]AssetSummary, 0, len(order))
	for _, k := range order {
		out = append(out, *byAsset[k])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Site != out[j].Site {
			return out[i].Site < out[j].Site
		}
		return out[i].AssetName < out[j].AssetName
	})
	return out
}

func distinct(records []models.PMRecord, get func(*models.PMRecord) string) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range records {
		v := get(&records[i])
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
