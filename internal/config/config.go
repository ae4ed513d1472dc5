package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"streetrep.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	// RedisURL enables the Redis leaderboard cache when set.
	RedisURL string `env:"REDIS_URL"`

	BlackoutInterval time.Duration `env:"BLACKOUT_INTERVAL" envDefault:"5m"`
	// PositionMaxAge bounds how stale a reported position may be for the
	// blackout loop to still sample around it.
	PositionMaxAge time.Duration `env:"POSITION_MAX_AGE" envDefault:"15m"`

	Scoring  Scoring  `envPrefix:"SCORING_"`
	Blackout Blackout `envPrefix:"BLACKOUT_"`
}

type Scoring struct {
	ProximityRadius float64 `env:"PROXIMITY_RADIUS_M" envDefault:"50"`
	ProximityBonus  int     `env:"PROXIMITY_BONUS" envDefault:"5"`
	StreakPerDay    int     `env:"STREAK_PER_DAY" envDefault:"2"`
	StreakCap       int     `env:"STREAK_CAP" envDefault:"20"`
}

type Blackout struct {
	Probability float64 `env:"PROBABILITY" envDefault:"0.01"`
	Radius      float64 `env:"RADIUS_M" envDefault:"1000"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
