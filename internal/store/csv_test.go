package store

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/schedule"
)

var testNow = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func TestImport_FullSchema(t *testing.T) {
	in := strings.Join([]string{
		"Site,AssetID,AssetName,Component,PMTask,IntervalType,IntervalValue,LastDoneDate,LastMeter,CurrentMeter,NextDueDate,NextDueMeter,Priority,PMStatus,Owner,Notes",
		"Main Plant,CMP-401,Air Compressor #1,Compressor,Change oil & filter,Months,6,2024-11-15,,,2025-05-15,,High,Active,Keith,Use ISO 68",
		"Main Plant,FLT-112,Forklift A,Engine,Service @ every 200 hrs,Meter,200,,1400,1585,,1600,Medium,Active,Shop,",
	}, "\n")

	recs, err := Import(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Import returned %d records, want 2", len(recs))
	}

	r := recs[0]
	if r.Site != "Main Plant" || r.AssetID != "CMP-401" || r.PMTask != "Change oil & filter" {
		t.Errorf("identity fields = %q/%q/%q", r.Site, r.AssetID, r.PMTask)
	}
	if r.IntervalType != models.IntervalMonths || r.IntervalValue != 6 {
		t.Errorf("rule = %s/%d, want Months/6", r.IntervalType, r.IntervalValue)
	}
	want := time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC)
	if r.LastDoneDate == nil || !r.LastDoneDate.Equal(want) {
		t.Errorf("LastDoneDate = %v, want %v", r.LastDoneDate, want)
	}
	// Derived fields come from recomputation, never from the file.
	if r.NextDueDate != nil || r.NextDueMeter != nil {
		t.Errorf("derived fields populated from file: %v %v", r.NextDueDate, r.NextDueMeter)
	}

	m := recs[1]
	if m.LastMeter == nil || *m.LastMeter != 1400 {
		t.Errorf("LastMeter = %v, want 1400", m.LastMeter)
	}
	if m.CurrentMeter == nil || *m.CurrentMeter != 1585 {
		t.Errorf("CurrentMeter = %v, want 1585", m.CurrentMeter)
	}
}

func TestImport_MissingColumnsAndMalformedValues(t *testing.T) {
	// Only a few columns present; bad date and non-numeric meter degrade
	// to absent instead of failing the row.
	in := strings.Join([]string{
		"AssetName,PMTask,IntervalType,IntervalValue,LastDoneDate,CurrentMeter",
		"Pump,Inspect seals,Days,30,not-a-date,xyz",
		"Fan,Grease bearings,Weeks,oops,2025-06-01,",
	}, "\n")

	recs, err := Import(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Import returned %d records, want 2", len(recs))
	}

	if recs[0].LastDoneDate != nil {
		t.Errorf("malformed date parsed as %v, want nil", recs[0].LastDoneDate)
	}
	if recs[0].CurrentMeter != nil {
		t.Errorf("malformed meter parsed as %v, want nil", recs[0].CurrentMeter)
	}
	if recs[0].Site != "" || recs[0].Owner != "" {
		t.Errorf("missing columns not empty: %q %q", recs[0].Site, recs[0].Owner)
	}
	// Defaults for absent classification inputs.
	if recs[0].Priority != "Medium" || recs[0].PMStatus != models.StatusActive {
		t.Errorf("defaults = %s/%s, want Medium/Active", recs[0].Priority, recs[0].PMStatus)
	}

	// Non-numeric interval: zero value, so the rule is invalid and the
	// record will classify Unknown once recomputed.
	if recs[1].IntervalValue != 0 {
		t.Errorf("IntervalValue = %d, want 0", recs[1].IntervalValue)
	}
	out := schedule.RecomputeAll(recs, testNow)
	if state, _ := schedule.Classify(&out[1], schedule.DefaultThresholds(), testNow); state != schedule.StateUnknown {
		t.Errorf("state = %q, want Unknown for zero interval", state)
	}
}

func TestImport_DecimalStringsTruncate(t *testing.T) {
	in := "AssetName,PMTask,IntervalType,IntervalValue,LastMeter\nForklift,Oil,Meter,200.0,1400.5\n"
	recs, err := Import(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if recs[0].IntervalValue != 200 {
		t.Errorf("IntervalValue = %d, want 200", recs[0].IntervalValue)
	}
	if recs[0].LastMeter == nil || *recs[0].LastMeter != 1400 {
		t.Errorf("LastMeter = %v, want 1400", recs[0].LastMeter)
	}
}

func TestImport_NoHeader(t *testing.T) {
	if _, err := Import(strings.NewReader("")); err == nil {
		t.Error("Import of empty input did not fail")
	}
}

func TestWriteImportRoundTrip(t *testing.T) {
	recs := schedule.RecomputeAll(SampleRecords(testNow), testNow)

	var buf strings.Builder
	if err := Write(&buf, recs); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Import(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("round trip lost records: %d vs %d", len(got), len(recs))
	}
	got = schedule.RecomputeAll(got, testNow)

	for i := range recs {
		if got[i].AssetName != recs[i].AssetName || got[i].PMTask != recs[i].PMTask {
			t.Errorf("record %d identity changed: %q/%q", i, got[i].AssetName, got[i].PMTask)
		}
		if got[i].IntervalType != recs[i].IntervalType || got[i].IntervalValue != recs[i].IntervalValue {
			t.Errorf("record %d rule changed", i)
		}
		state1, _ := schedule.Classify(&recs[i], schedule.DefaultThresholds(), testNow)
		state2, _ := schedule.Classify(&got[i], schedule.DefaultThresholds(), testNow)
		if state1 != state2 {
			t.Errorf("record %d state changed across round trip: %q vs %q", i, state1, state2)
		}
	}
}

func TestWrite_HeaderAndAbsentValues(t *testing.T) {
	recs := []models.PMRecord{{AssetName: "Pump", PMTask: "Inspect"}}
	var buf strings.Builder
	if err := Write(&buf, recs); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != strings.Join(Columns, ",") {
		t.Errorf("header = %q", lines[0])
	}
	// Absent optionals serialize as empty cells, not sentinels.
	if strings.Contains(lines[1], "nan") || strings.Contains(lines[1], "<nil>") {
		t.Errorf("row contains sentinel text: %q", lines[1])
	}
}

func TestExport_PrependsComputedColumns(t *testing.T) {
	recs := schedule.RecomputeAll(SampleRecords(testNow), testNow)

	var buf strings.Builder
	if err := Export(&buf, recs, schedule.DefaultThresholds(), testNow); err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], "DueStatus,Urgency,Site,") {
		t.Errorf("export header = %q", lines[0])
	}
	// Sample row 0 is the 7-months-ago 6-month oil change: overdue.
	if !strings.HasPrefix(lines[1], "Overdue,-") {
		t.Errorf("export row 1 = %q, want Overdue with negative urgency", lines[1])
	}
	// Row 2 is the forklift 15 meter units from service.
	if !strings.HasPrefix(lines[2], "Due Soon,15,") {
		t.Errorf("export row 2 = %q, want Due Soon with 15 left", lines[2])
	}
	// Row 3 is the paused fan.
	if !strings.HasPrefix(lines[3], "Paused,") {
		t.Errorf("export row 3 = %q, want Paused", lines[3])
	}

	// The export columns are presentation-only: importing the export must
	// still work and ignore them.
	got, err := Import(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Import of export: %v", err)
	}
	if len(got) != len(recs) {
		t.Errorf("import of export returned %d records, want %d", len(got), len(recs))
	}
}

func TestSeedSample(t *testing.T) {
	recs := SampleRecords(testNow)
	if len(recs) != 3 {
		t.Fatalf("SampleRecords returned %d records, want 3", len(recs))
	}

	th := schedule.DefaultThresholds()
	wantStates := []schedule.State{schedule.StateOverdue, schedule.StateDueSoon, schedule.StatePaused}
	for i, want := range wantStates {
		if state, _ := schedule.Classify(&recs[i], th, testNow); state != want {
			t.Errorf("sample record %d state = %q, want %q", i, state, want)
		}
	}
}
