package query

import (
	"testing"
	"time"

	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/schedule"
)

var testNow = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
var testTh = schedule.Thresholds{DueSoonDays: 14, MeterSoon: 50}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

// testRecords builds a small fixed collection:
//
//	0: overdue oil change   (Main Plant, compressor, Months, High)
//	1: due-soon forklift    (Main Plant, engine, Meter, Medium)
//	2: ok fan, paused       (Warehouse, motor, Weeks, Low)
//	3: unknown rule         (Warehouse, pump, empty type)
func testRecords() []models.PMRecord {
	recs := []models.PMRecord{
		{
			Site: "Main Plant", AssetID: "CMP-401", AssetName: "Air Compressor #1",
			Component: "Compressor", PMTask: "Change oil & filter",
			IntervalType: models.IntervalMonths, IntervalValue: 6,
			LastDoneDate: timePtr(testNow.AddDate(0, -7, 0)),
			Priority:     "High", PMStatus: models.StatusActive, Owner: "Keith",
			Notes: "Use ISO 68",
		},
		{
			Site: "Main Plant", AssetID: "FLT-112", AssetName: "Forklift A",
			Component: "Engine", PMTask: "Service @ every 200 hrs",
			IntervalType: models.IntervalMeter, IntervalValue: 200,
			LastMeter: intPtr(1400), CurrentMeter: intPtr(1585),
			Priority: "Medium", PMStatus: models.StatusActive, Owner: "Shop",
		},
		{
			Site: "Warehouse", AssetID: "FAN-020", AssetName: "Exhaust Fan",
			Component: "Motor", PMTask: "Grease bearings",
			IntervalType: models.IntervalWeeks, IntervalValue: 12,
			LastDoneDate: timePtr(testNow.AddDate(0, 0, -7)),
			Priority:     "Low", PMStatus: models.StatusPaused, Owner: "Vendor",
			Notes: "Awaiting parts",
		},
		{
			Site: "Warehouse", AssetID: "PMP-003", AssetName: "Sump Pump",
			Component: "Pump", PMTask: "Inspect impeller",
			Priority: "Low", PMStatus: models.StatusActive,
		},
	}
	return schedule.RecomputeAll(recs, testNow)
}

func TestApply_NoFiltersKeepsAll(t *testing.T) {
	recs := testRecords()
	got := Apply(recs, Filters{}, testTh, testNow)
	if len(got) != len(recs) {
		t.Errorf("Apply with zero filters kept %d of %d records", len(got), len(recs))
	}
}

func TestApply_ExactFilters(t *testing.T) {
	recs := testRecords()

	tests := []struct {
		name string
		f    Filters
		want int
	}{
		{"site", Filters{Site: "Main Plant"}, 2},
		{"asset name", Filters{AssetName: "Forklift A"}, 1},
		{"priority", Filters{Priority: "Low"}, 2},
		{"pm status", Filters{PMStatus: models.StatusPaused}, 1},
		{"site and priority combined", Filters{Site: "Warehouse", Priority: "Low"}, 2},
		{"no match", Filters{Site: "Main Plant", Priority: "Low"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(recs, tt.f, testTh, testNow); len(got) != tt.want {
				t.Errorf("Apply(%+v) kept %d records, want %d", tt.f, len(got), tt.want)
			}
		})
	}
}

func TestApply_IntervalTypeSubset(t *testing.T) {
	recs := testRecords()

	got := Apply(recs, Filters{IntervalTypes: []string{models.IntervalMeter}}, testTh, testNow)
	if len(got) != 1 || got[0].AssetName != "Forklift A" {
		t.Fatalf("meter subset kept %d records, want only the forklift", len(got))
	}

	got = Apply(recs, Filters{IntervalTypes: []string{models.IntervalWeeks, models.IntervalMonths}}, testTh, testNow)
	if len(got) != 2 {
		t.Errorf("weeks+months subset kept %d records, want 2", len(got))
	}

	// Empty (but non-nil) subset excludes everything.
	got = Apply(recs, Filters{IntervalTypes: []string{}}, testTh, testNow)
	if len(got) != 0 {
		t.Errorf("empty subset kept %d records, want 0", len(got))
	}
}

func TestApply_StateFilter(t *testing.T) {
	recs := testRecords()

	tests := []struct {
		state schedule.State
		want  []string
	}{
		{schedule.StateOverdue, []string{"Air Compressor #1"}},
		{schedule.StateDueSoon, []string{"Forklift A"}},
		{schedule.StatePaused, []string{"Exhaust Fan"}},
		{schedule.StateUnknown, []string{"Sump Pump"}},
		{schedule.StateRetired, nil},
	}
	for _, tt := range tests {
		got := Apply(recs, Filters{State: tt.state}, testTh, testNow)
		if len(got) != len(tt.want) {
			t.Errorf("state %q kept %d records, want %d", tt.state, len(got), len(tt.want))
			continue
		}
		for i, name := range tt.want {
			if got[i].AssetName != name {
				t.Errorf("state %q record %d = %q, want %q", tt.state, i, got[i].AssetName, name)
			}
		}
	}
}

func TestApply_Search(t *testing.T) {
	recs := testRecords()

	tests := []struct {
		q    string
		want int
	}{
		{"", 4},
		{"   ", 4},
		{"forklift", 1},       // asset name, case-insensitive
		{"GREASE", 1},         // task
		{"motor", 1},          // component
		{"awaiting parts", 1}, // notes only
		{"iso 68", 1},         // notes only
		{"e", 4},              // common letter hits all
		{"does-not-exist", 0},
	}
	for _, tt := range tests {
		if got := Apply(recs, Filters{Search: tt.q}, testTh, testNow); len(got) != tt.want {
			t.Errorf("search %q kept %d records, want %d", tt.q, len(got), tt.want)
		}
	}
}

func TestApply_DoesNotMutate(t *testing.T) {
	recs := testRecords()
	before := make([]models.PMRecord, len(recs))
	copy(before, recs)

	Apply(recs, Filters{Site: "Main Plant", Search: "oil"}, testTh, testNow)

	for i := range recs {
		if recs[i].AssetName != before[i].AssetName || recs[i].PMStatus != before[i].PMStatus {
			t.Fatalf("Apply mutated record %d", i)
		}
	}
}

func TestKPICounts(t *testing.T) {
	recs := testRecords()
	counts := KPICounts(recs, testTh, testNow)

	want := map[schedule.State]int{
		schedule.StateOverdue: 1,
		schedule.StateDueSoon: 1,
		schedule.StateOK:      0,
		schedule.StateUnknown: 1,
		schedule.StatePaused:  1,
		schedule.StateRetired: 0,
	}
	for state, n := range want {
		if counts[state] != n {
			t.Errorf("counts[%q] = %d, want %d", state, counts[state], n)
		}
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total != len(recs) {
		t.Errorf("counts sum to %d, want %d", total, len(recs))
	}
}

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions(testRecords())
	wantSites := []string{"Main Plant", "Warehouse"}
	if len(opts.Sites) != 2 || opts.Sites[0] != wantSites[0] || opts.Sites[1] != wantSites[1] {
		t.Errorf("Sites = %v, want %v", opts.Sites, wantSites)
	}
	if len(opts.AssetNames) != 4 {
		t.Errorf("AssetNames = %v, want 4 distinct names", opts.AssetNames)
	}
}

func TestAssets_Rollup(t *testing.T) {
	recs := testRecords()
	// Second task on the compressor so the rollup has something to merge.
	extra := models.PMRecord{
		Site: "Main Plant", AssetID: "CMP-401", AssetName: "Air Compressor #1",
		Component: "Belt Drive", PMTask: "Inspect belts",
		IntervalType: models.IntervalDays, IntervalValue: 30,
		LastDoneDate: timePtr(testNow.AddDate(0, 0, -10)),
		Priority:     "Medium", PMStatus: models.StatusActive,
	}
	recs = append(recs, schedule.RecomputeAll([]models.PMRecord{extra}, testNow)...)

	assets := Assets(recs, testTh, testNow)
	if len(assets) != 4 {
		t.Fatalf("got %d asset rows, want 4", len(assets))
	}

	// Sorted by site then name: compressor first.
	comp := assets[0]
	if comp.AssetID != "CMP-401" {
		t.Fatalf("first asset = %q, want CMP-401", comp.AssetID)
	}
	if comp.TaskCount != 2 {
		t.Errorf("compressor TaskCount = %d, want 2", comp.TaskCount)
	}
	if len(comp.Components) != 2 {
		t.Errorf("compressor Components = %v, want 2 entries", comp.Components)
	}
	if comp.WorstState != schedule.StateOverdue {
		t.Errorf("compressor WorstState = %q, want Overdue", comp.WorstState)
	}
	// Earliest due is the overdue oil change, not the 30-day belt check.
	wantDue := testNow.AddDate(0, -7, 0).AddDate(0, 6, 0)
	if comp.EarliestDue == nil || !comp.EarliestDue.Equal(wantDue) {
		t.Errorf("compressor EarliestDue = %v, want %v", comp.EarliestDue, wantDue)
	}
}
