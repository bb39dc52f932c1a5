// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/neomorfeo/rentiq/internal/adapter/otel"
)

// Config holds every setting the rentiq binary reads at startup.
type Config struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	DatabasePath       string        `env:"DATABASE_PATH" envDefault:"rentiq.db"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret          string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	TimeZone           string        `env:"TIME_ZONE" envDefault:"UTC"`
	ActivationSchedule string        `env:"ACTIVATION_SCHEDULE" envDefault:"35 10 * * *"`
	RedisAddr          string        `env:"REDIS_ADDR"` // empty logs pushes instead of publishing them
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	Telemetry otel.Config

	loc *time.Location
}

// DefaultEnvFile is loaded when Load receives no files. It may be absent.
const DefaultEnvFile = ".env"

// Load reads dotenv files and then parses the environment. Variables already
// set win over file values. Files passed explicitly must exist; only a
// missing DefaultEnvFile is tolerated.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("loading dotenv: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg.loc, err = time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return Config{}, fmt.Errorf("loading time zone %q: %w", cfg.TimeZone, err)
	}

	cfg.Telemetry, err = otel.ConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location is the zone in which lease dates and the activation schedule
// are evaluated.
func (c Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
