package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "pmtrack.db" {
		t.Errorf("Path = %q, want pmtrack.db", cfg.Database.Path)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Dashboard.Port)
	}
	if cfg.Dashboard.RefreshCron != "5 0 * * *" {
		t.Errorf("RefreshCron = %q", cfg.Dashboard.RefreshCron)
	}
	if cfg.Thresholds.DueSoonDays != 14 || cfg.Thresholds.MeterSoon != 50 {
		t.Errorf("thresholds = %d/%d, want 14/50", cfg.Thresholds.DueSoonDays, cfg.Thresholds.MeterSoon)
	}

	th := cfg.SoonThresholds()
	if th.DueSoonDays != 14 || th.MeterSoon != 50 {
		t.Errorf("SoonThresholds = %+v", th)
	}
}

func TestParse_Overrides(t *testing.T) {
	yaml := `
database:
  driver: mysql
  host: db.example.com
  port: 3307
  name: maint
  user: pm
dashboard:
  port: 9090
  refresh_cron: "0 1 * * *"
thresholds:
  due_soon_days: 30
  meter_soon: 100
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.Driver != DriverMySQL || cfg.Database.Host != "db.example.com" || cfg.Database.Port != 3307 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Dashboard.Port != 9090 || cfg.Dashboard.RefreshCron != "0 1 * * *" {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
	if cfg.Thresholds.DueSoonDays != 30 || cfg.Thresholds.MeterSoon != 100 {
		t.Errorf("thresholds = %+v", cfg.Thresholds)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad driver", "database:\n  driver: postgres\n", "must be sqlite or mysql"},
		{"negative threshold", "thresholds:\n  due_soon_days: -3\n", "due_soon_days"},
		{"bad yaml", ":\n  - not yaml", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Driver = %q, want sqlite defaults", cfg.Database.Driver)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmtrack.yaml")
	if err := os.WriteFile(path, []byte("dashboard:\n  port: 7070\n"), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dashboard.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Dashboard.Port)
	}
}
