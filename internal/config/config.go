package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/timesboard.db"`
	LogLevel      slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	WCABaseURL    string        `env:"WCA_BASE_URL" envDefault:"https://www.worldcubeassociation.org/api/v0"`
	WCATimeout    time.Duration `env:"WCA_TIMEOUT" envDefault:"30s"`
	CompetitionID string        `env:"COMPETITION_ID" envDefault:"BudapestSpecial2024"`
	SPADir        string        `env:"SPA_DIR" envDefault:""`
	SeedEmail     string        `env:"SEED_OFFICIAL_EMAIL" envDefault:""`
	SeedPassword  string        `env:"SEED_OFFICIAL_PASSWORD" envDefault:""`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"168h"`
	BoardCacheTTL time.Duration `env:"BOARD_CACHE_TTL" envDefault:"30s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
