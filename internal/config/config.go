package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/rayarayu/checkin/internal/kiosk"
)

// Kiosk configures one check-in station.
type Kiosk struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"web/dist"`

	DirectoryURL      string `env:"DIRECTORY_URL,notEmpty"`
	DirectoryToken    string `env:"DIRECTORY_TOKEN"`
	DirectoryUsername string `env:"DIRECTORY_USERNAME"`
	DirectoryPassword string `env:"DIRECTORY_PASSWORD"`

	OperatorName string     `env:"OPERATOR_NAME" envDefault:"kiosk"`
	OperatorRole kiosk.Role `env:"OPERATOR_ROLE" envDefault:"usher"`

	CheckInTimeout      time.Duration `env:"CHECKIN_TIMEOUT" envDefault:"10s"`
	SearchQuietPeriod   time.Duration `env:"SEARCH_QUIET_PERIOD" envDefault:"300ms"`
	SummaryPollSchedule string        `env:"SUMMARY_POLL_SCHEDULE" envDefault:"@every 30s"`

	// StdinScanner reads decoded codes line by line from standard input,
	// as a keyboard-wedge scanner would type them.
	StdinScanner bool `env:"STDIN_SCANNER" envDefault:"false"`
}

// Guestd configures the stand-in guest directory.
type Guestd struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8090"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/guests.db"`
	SeedFile string     `env:"SEED_FILE"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func LoadKiosk() (*Kiosk, error) {
	cfg, err := env.ParseAs[Kiosk]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if !cfg.OperatorRole.Valid() {
		return nil, fmt.Errorf("OPERATOR_ROLE: unknown role %q", cfg.OperatorRole)
	}
	if cfg.DirectoryUsername != "" && cfg.DirectoryPassword == "" {
		return nil, fmt.Errorf("DIRECTORY_PASSWORD is required with DIRECTORY_USERNAME")
	}
	return &cfg, nil
}

func LoadGuestd() (*Guestd, error) {
	cfg, err := env.ParseAs[Guestd]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		return nil, fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return &cfg, nil
}
