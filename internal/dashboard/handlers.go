package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/pmtrack/internal/models"
	"github.com/zulandar/pmtrack/internal/query"
	"github.com/zulandar/pmtrack/internal/schedule"
	"github.com/zulandar/pmtrack/internal/store"
	"github.com/zulandar/pmtrack/internal/task"
)

// recordView is the display shape of a PM record: the stored fields plus
// the computed state and urgency delta.
type recordView struct {
	ID            uint    `json:"id"`
	Site          string  `json:"site"`
	AssetID       string  `json:"asset_id"`
	AssetName     string  `json:"asset_name"`
	Component     string  `json:"component"`
	PMTask        string  `json:"pm_task"`
	IntervalType  string  `json:"interval_type"`
	IntervalValue int     `json:"interval_value"`
	LastDoneDate  *string `json:"last_done_date"`
	LastMeter     *int    `json:"last_meter"`
	CurrentMeter  *int    `json:"current_meter"`
	NextDueDate   *string `json:"next_due_date"`
	NextDueMeter  *int    `json:"next_due_meter"`
	Priority      string  `json:"priority"`
	PMStatus      string  `json:"pm_status"`
	Owner         string  `json:"owner"`
	Notes         string  `json:"notes"`
	DueStatus     string  `json:"due_status"`
	Urgency       *int    `json:"urgency"`
}

// recordInput is the JSON shape for create and update. Dates are
// YYYY-MM-DD strings; absent optionals stay null.
type recordInput struct {
	Site          string `json:"site"`
	AssetID       string `json:"asset_id"`
	AssetName     string `json:"asset_name"`
	Component     string `json:"component"`
	PMTask        string `json:"pm_task"`
	IntervalType  string `json:"interval_type"`
	IntervalValue int    `json:"interval_value"`
	LastDoneDate  string `json:"last_done_date"`
	LastMeter     *int   `json:"last_meter"`
	CurrentMeter  *int   `json:"current_meter"`
	Priority      string `json:"priority"`
	PMStatus      string `json:"pm_status"`
	Owner         string `json:"owner"`
	Notes         string `json:"notes"`
}

func (in *recordInput) toTaskInput() (task.Input, error) {
	out := task.Input{
		Site:          in.Site,
		AssetID:       in.AssetID,
		AssetName:     in.AssetName,
		Component:     in.Component,
		PMTask:        in.PMTask,
		IntervalType:  in.IntervalType,
		IntervalValue: in.IntervalValue,
		LastMeter:     in.LastMeter,
		CurrentMeter:  in.CurrentMeter,
		Priority:      in.Priority,
		PMStatus:      in.PMStatus,
		Owner:         in.Owner,
		Notes:         in.Notes,
	}
	if in.LastDoneDate != "" {
		t, err := time.Parse(store.DateFormat, in.LastDoneDate)
		if err != nil {
			return out, fmt.Errorf("last_done_date %q is not a YYYY-MM-DD date", in.LastDoneDate)
		}
		out.LastDoneDate = &t
	}
	return out, nil
}

func toView(r *models.PMRecord, th schedule.Thresholds, now time.Time) recordView {
	state, delta := schedule.Classify(r, th, now)
	v := recordView{
		ID:            r.ID,
		Site:          r.Site,
		AssetID:       r.AssetID,
		AssetName:     r.AssetName,
		Component:     r.Component,
		PMTask:        r.PMTask,
		IntervalType:  r.IntervalType,
		IntervalValue: r.IntervalValue,
		LastMeter:     r.LastMeter,
		CurrentMeter:  r.CurrentMeter,
		NextDueMeter:  r.NextDueMeter,
		Priority:      r.Priority,
		PMStatus:      r.PMStatus,
		Owner:         r.Owner,
		Notes:         r.Notes,
		DueStatus:     string(state),
		Urgency:       delta,
	}
	if r.LastDoneDate != nil {
		s := r.LastDoneDate.Format(store.DateFormat)
		v.LastDoneDate = &s
	}
	if r.NextDueDate != nil {
		s := r.NextDueDate.Format(store.DateFormat)
		v.NextDueDate = &s
	}
	return v
}

func (s *server) handleRecordList(c *gin.Context) {
	recs, err := task.List(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f := query.Filters{
		Site:      c.Query("site"),
		AssetName: c.Query("asset"),
		Priority:  c.Query("priority"),
		PMStatus:  c.Query("pm_status"),
		State:     schedule.State(c.Query("state")),
		Search:    c.Query("q"),
	}
	if types, ok := c.GetQueryArray("interval_type"); ok {
		f.IntervalTypes = types
	}

	th := s.thresholds()
	now := time.Now()
	matched := query.Apply(recs, f, th, now)

	views := make([]recordView, len(matched))
	for i := range matched {
		views[i] = toView(&matched[i], th, now)
	}
	c.JSON(http.StatusOK, gin.H{
		"records": views,
		"total":   len(recs),
		"matched": len(views),
	})
}

func (s *server) handleRecordGet(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	rec, err := task.Get(s.db, id)
	if err != nil {
		writeTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, toView(rec, s.thresholds(), time.Now()))
}

// handleKPIs counts records per classification state over the unfiltered
// collection; the tiles always show totals regardless of active filters.
func (s *server) handleKPIs(c *gin.Context) {
	recs, err := task.List(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	counts := query.KPICounts(recs, s.thresholds(), time.Now())

	out := make([]gin.H, 0, len(schedule.States))
	for _, state := range schedule.States {
		out = append(out, gin.H{"state": string(state), "count": counts[state]})
	}
	c.JSON(http.StatusOK, gin.H{"kpis": out, "total": len(recs)})
}

func (s *server) handleAssets(c *gin.Context) {
	recs, err := task.List(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	assets := query.Assets(recs, s.thresholds(), time.Now())

	out := make([]gin.H, len(assets))
	for i, a := range assets {
		row := gin.H{
			"site":        a.Site,
			"asset_id":    a.AssetID,
			"asset_name":  a.AssetName,
			"components":  a.Components,
			"task_count":  a.TaskCount,
			"worst_state": string(a.WorstState),
		}
		if a.EarliestDue != nil {
			row["earliest_due"] = a.EarliestDue.Format(store.DateFormat)
		}
		out[i] = row
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}

func (s *server) handleOptions(c *gin.Context) {
	recs, err := task.List(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	opts := query.FilterOptions(recs)
	c.JSON(http.StatusOK, gin.H{
		"sites":          opts.Sites,
		"asset_names":    opts.AssetNames,
		"interval_types": models.IntervalTypes,
		"priorities":     models.Priorities,
		"pm_statuses":    models.PMStatuses,
	})
}

func (s *server) handleRecordCreate(c *gin.Context) {
	var in recordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskIn, err := in.toTaskInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := task.Create(s.db, taskIn, time.Now())
	if err != nil {
		writeTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toView(rec, s.thresholds(), time.Now()))
}

func (s *server) handleRecordUpdate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in recordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskIn, err := in.toTaskInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := task.Update(s.db, id, taskIn, time.Now())
	if err != nil {
		writeTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, toView(rec, s.thresholds(), time.Now()))
}

func (s *server) handleRecordDelete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := task.Delete(s.db, id); err != nil {
		writeTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (s *server) handleLogCompletion(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in struct {
		Date  string `json:"date"`
		Meter *int   `json:"meter"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := time.Now()
	if in.Date != "" {
		t, err := time.Parse(store.DateFormat, in.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("date %q is not a YYYY-MM-DD date", in.Date)})
			return
		}
		done = t
	}

	rec, err := task.LogCompletion(s.db, id, done, in.Meter, time.Now())
	if err != nil {
		writeTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, toView(rec, s.thresholds(), time.Now()))
}

func (s *server) handleBulkMeter(c *gin.Context) {
	var in struct {
		IDs     []uint `json:"ids"`
		Reading int    `json:"reading"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(in.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}
	n, err := task.BulkMeterUpdate(s.db, in.IDs, in.Reading, time.Now())
	if err != nil {
		writeTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (s *server) handleThresholdsGet(c *gin.Context) {
	th := s.thresholds()
	c.JSON(http.StatusOK, gin.H{"due_soon_days": th.DueSoonDays, "meter_soon": th.MeterSoon})
}

func (s *server) handleThresholdsPut(c *gin.Context) {
	var in struct {
		DueSoonDays int `json:"due_soon_days"`
		MeterSoon   int `json:"meter_soon"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.DueSoonDays <= 0 || in.MeterSoon <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thresholds must be positive"})
		return
	}
	s.setThresholds(schedule.Thresholds{DueSoonDays: in.DueSoonDays, MeterSoon: in.MeterSoon})
	s.handleThresholdsGet(c)
}

// handleImport replaces the whole collection from an uploaded CSV body.
// A failed parse or write leaves the stored records untouched.
func (s *server) handleImport(c *gin.Context) {
	recs, err := store.Import(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := task.ReplaceAll(s.db, recs, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

func (s *server) handleExport(c *gin.Context) {
	recs, err := task.List(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := store.Export(&buf, recs, s.thresholds(), time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("pm_export_%s.csv", time.Now().Format(store.DateFormat))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func paramID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid record id %q", c.Param("id"))})
		return 0, false
	}
	return uint(n), true
}

// writeTaskError maps task-layer failures to HTTP statuses: missing
// records are 404, validation problems 400, the rest 500.
func writeTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func isValidationError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"is required", "invalid", "must be"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
