// Package dashboard serves the PM data API consumed by the web front end:
// classified record views, KPI counts, asset rollups, mutations, and CSV
// import/export.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zulandar/pmtrack/internal/schedule"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB         *gorm.DB
	Port       int
	Thresholds schedule.Thresholds
	// RefreshCron is a 5-field cron expression for the daily derived-field
	// refresh; "off" disables it.
	RefreshCron string
	Out         io.Writer
}

// server carries the handlers' shared state. The thresholds are live
// configuration adjustable over the API, guarded by mu.
type server struct {
	db *gorm.DB

	mu sync.RWMutex
	th schedule.Thresholds
}

func (s *server) thresholds() schedule.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.th
}

func (s *server) setThresholds(th schedule.Thresholds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.th = th
}

// Start launches the dashboard HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.Thresholds.DueSoonDays == 0 && opts.Thresholds.MeterSoon == 0 {
		opts.Thresholds = schedule.DefaultThresholds()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &server{db: opts.DB, th: opts.Thresholds}
	registerRoutes(router, s)

	if err := startRefresh(ctx, opts.DB, opts.RefreshCron, opts.Out); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "PM dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
