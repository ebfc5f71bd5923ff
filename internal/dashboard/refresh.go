package dashboard

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/zulandar/pmtrack/internal/task"
)

// startRefresh schedules the periodic derived-field recomputation. Records
// without a last-done date anchor their due point on "today", so the cached
// derived fields go stale at midnight; the default schedule re-runs the
// calculator shortly after. Pass "off" to disable.
func startRefresh(ctx context.Context, db *gorm.DB, expr string, out io.Writer) error {
	if expr == "off" {
		return nil
	}
	if expr == "" {
		expr = "5 0 * * *"
	}

	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		changed, err := task.RecomputeAll(db, time.Now())
		if out == nil {
			return
		}
		if err != nil {
			fmt.Fprintf(out, "refresh: %v\n", err)
			return
		}
		if changed > 0 {
			fmt.Fprintf(out, "refresh: %d record(s) updated\n", changed)
		}
	})
	if err != nil {
		return fmt.Errorf("dashboard: refresh schedule %q: %w", expr, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return nil
}
