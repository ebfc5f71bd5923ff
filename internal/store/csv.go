package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/schedule"
)

// DateFormat is the wire format for all CSV dates.
const DateFormat = "2006-01-02"

// Columns is the canonical CSV schema, in order. Every import and export
// uses exactly these names; absent values serialize as empty strings.
var Columns = []string{
	"Site", "AssetID", "AssetName", "Component", "PMTask",
	"IntervalType", "IntervalValue",
	"LastDoneDate", "LastMeter", "CurrentMeter",
	"NextDueDate", "NextDueMeter",
	"Priority", "PMStatus", "Owner", "Notes",
}

// Import parses CSV rows into records. Missing columns are treated as
// empty; malformed dates and numbers become absent fields rather than
// errors, so partially bad data still loads (and classifies as Unknown).
// Derived fields in the file are ignored; callers recompute them.
func Import(r io.Reader) ([]models.PMRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("store: read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store: csv has no header row")
	}

	// Map known column names to their position; unknown columns are
	// ignored, missing ones read as empty.
	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.TrimSpace(name)] = i
	}

	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]models.PMRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		rec := models.PMRecord{
			Site:          cell(row, "Site"),
			AssetID:       cell(row, "AssetID"),
			AssetName:     cell(row, "AssetName"),
			Component:     cell(row, "Component"),
			PMTask:        cell(row, "PMTask"),
			IntervalType:  cell(row, "IntervalType"),
			IntervalValue: intOrZero(cell(row, "IntervalValue")),
			LastDoneDate:  parseDate(cell(row, "LastDoneDate")),
			LastMeter:     parseInt(cell(row, "LastMeter")),
			CurrentMeter:  parseInt(cell(row, "CurrentMeter")),
			Priority:      cell(row, "Priority"),
			PMStatus:      cell(row, "PMStatus"),
			Owner:         cell(row, "Owner"),
			Notes:         cell(row, "Notes"),
		}
		if rec.Priority == "" {
			rec.Priority = "Medium"
		}
		if rec.PMStatus == "" {
			rec.PMStatus = models.StatusActive
		}
		records = append(records, rec)
	}
	return records, nil
}

// Write serializes records using the canonical 16-column schema.
func Write(w io.Writer, records []models.PMRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("store: write csv header: %w", err)
	}
	for i := range records {
		if err := cw.Write(recordRow(&records[i])); err != nil {
			return fmt.Errorf("store: write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("store: flush csv: %w", err)
	}
	return nil
}

// Export writes the presentation schema: the canonical columns prefixed by
// two computed, display-only columns (DueStatus and Urgency) that are never
// read back on import.
func Export(w io.Writer, records []models.PMRecord, th schedule.Thresholds, now time.Time) error {
	cw := csv.NewWriter(w)
	header := append([]string{"DueStatus", "Urgency"}, Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("store: write export header: %w", err)
	}
	for i := range records {
		state, delta := schedule.Classify(&records[i], th, now)
		row := append([]string{string(state), formatIntPtr(delta)}, recordRow(&records[i])...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("store: write export row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("store: flush export: %w", err)
	}
	return nil
}

func recordRow(r *models.PMRecord) []string {
	return []string{
		r.Site, r.AssetID, r.AssetName, r.Component, r.PMTask,
		r.IntervalType, formatInt(r.IntervalValue),
		formatDatePtr(r.LastDoneDate), formatIntPtr(r.LastMeter), formatIntPtr(r.CurrentMeter),
		formatDatePtr(r.NextDueDate), formatIntPtr(r.NextDueMeter),
		r.Priority, r.PMStatus, r.Owner, r.Notes,
	}
}

// parseDate returns nil for anything that is not a YYYY-MM-DD date.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return nil
	}
	return &t
}

// parseInt returns nil for empty or non-numeric cells. Decimal strings
// like "1400.0" truncate so spreadsheet-exported numbers still load.
func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

func intOrZero(s string) int {
	if p := parseInt(s); p != nil {
		return *p
	}
	return 0
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatIntPtr(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func formatDatePtr(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.Format(DateFormat)
}
