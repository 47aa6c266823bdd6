package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	TokenSalt    string

	SessionTTL time.Duration

	CatalogURL    string
	CatalogAPIKey string

	PushURL         string
	PushRate        float64
	FanoutWorkers   int
	FanoutQueueSize int
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("reelrank", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.TokenSalt, "token-salt", "", "User token salt (prefer env)")

	fs.DurationVar(&cfg.SessionTTL, "session-ttl", 0, "Comparison session lifetime")
	fs.StringVar(&cfg.CatalogURL, "catalog-url", "", "Movie catalog base URL")
	fs.StringVar(&cfg.PushURL, "push-url", "", "Push gateway URL")
	fs.Float64Var(&cfg.PushRate, "push-rate", 0, "Push notifications per second")
	fs.IntVar(&cfg.FanoutWorkers, "fanout-workers", 0, "Fan-out worker goroutines")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	// Secrets - MUST be provided
	if cfg.TokenSalt == "" {
		cfg.TokenSalt = os.Getenv("TOKEN_SALT")
	}
	if cfg.TokenSalt == "" {
		return Config{}, errors.New("TOKEN_SALT required")
	}

	if cfg.SessionTTL == 0 {
		if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
			d, err := time.ParseDuration(ttl)
			if err != nil {
				return Config{}, errors.New("invalid SESSION_TTL env variable")
			}
			cfg.SessionTTL = d
		} else {
			cfg.SessionTTL = 30 * time.Minute
		}
	}

	if cfg.CatalogURL == "" {
		cfg.CatalogURL = os.Getenv("CATALOG_URL")
	}
	cfg.CatalogAPIKey = os.Getenv("CATALOG_API_KEY")

	if cfg.PushURL == "" {
		cfg.PushURL = os.Getenv("PUSH_URL")
	}
	if cfg.PushRate == 0 {
		if rateStr := os.Getenv("PUSH_RATE"); rateStr != "" {
			r, err := strconv.ParseFloat(rateStr, 64)
			if err != nil {
				return Config{}, errors.New("invalid PUSH_RATE env variable")
			}
			cfg.PushRate = r
		} else {
			cfg.PushRate = 20
		}
	}

	if cfg.FanoutWorkers == 0 {
		if n := os.Getenv("FANOUT_WORKERS"); n != "" {
			workers, err := strconv.Atoi(n)
			if err != nil {
				return Config{}, errors.New("invalid FANOUT_WORKERS env variable")
			}
			cfg.FanoutWorkers = workers
		} else {
			cfg.FanoutWorkers = 4
		}
	}
	cfg.FanoutQueueSize = 256

	return cfg, nil
}
