package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/rayarayu/checkin/internal/kiosk"
)

func TestLoadKioskDefaults(t *testing.T) {
	t.Setenv("DIRECTORY_URL", "http://directory:8090")

	cfg, err := LoadKiosk()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CheckInTimeout != 10*time.Second {
		t.Errorf("CheckInTimeout = %v", cfg.CheckInTimeout)
	}
	if cfg.SearchQuietPeriod != 300*time.Millisecond {
		t.Errorf("SearchQuietPeriod = %v", cfg.SearchQuietPeriod)
	}
	if cfg.SummaryPollSchedule != "@every 30s" {
		t.Errorf("SummaryPollSchedule = %q", cfg.SummaryPollSchedule)
	}
	if cfg.OperatorRole != kiosk.RoleUsher || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("role/level = %q/%v", cfg.OperatorRole, cfg.LogLevel)
	}
}

func TestLoadKioskErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing directory", map[string]string{"DIRECTORY_URL": ""}},
		{"bad role", map[string]string{"DIRECTORY_URL": "http://d", "OPERATOR_ROLE": "admin"}},
		{"username without password", map[string]string{"DIRECTORY_URL": "http://d", "DIRECTORY_USERNAME": "usher1"}},
		{"bad duration", map[string]string{"DIRECTORY_URL": "http://d", "CHECKIN_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadKiosk(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadGuestd(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "admin")
	if _, err := LoadGuestd(); err == nil {
		t.Fatal("expected error for username without password")
	}

	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("LOG_LEVEL", "DEBUG")
	cfg, err := LoadGuestd()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.DBPath != "data/guests.db" {
		t.Errorf("cfg = %+v", cfg)
	}
}
