package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type StoreBackend string

const (
	StoreFile     StoreBackend = "file"
	StorePostgres StoreBackend = "postgres"
	StoreS3       StoreBackend = "s3"
	StoreMemory   StoreBackend = "memory"
)

type ServerConfig struct {
	Addr        string
	DatabaseURL string

	Store     StoreBackend
	StorePath string
	S3        S3Config

	CatalogPath string

	Rules engine.Rules

	LogLevel string
	LogDev   bool
}

type S3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type CLIConfig struct {
	APIBaseURL string
}

// Load reads .env when present and then the process environment.
func Load() (ServerConfig, error) {
	_ = godotenv.Load()
	return LoadServerFromEnv()
}

func LoadServerFromEnv() (ServerConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("AUCTION_ADDR", ":8080")
	}

	cfg := ServerConfig{
		Addr:        addr,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StorePath:   envDefault("STORE_PATH", "data"),
		S3: S3Config{
			Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
			Endpoint:        strings.TrimRight(strings.TrimSpace(os.Getenv("S3_ENDPOINT")), "/"),
			Region:          envDefault("S3_REGION", "auto"),
			AccessKeyID:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey: strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
			Prefix:          envDefault("S3_PREFIX", "auction"),
		},
		CatalogPath: strings.TrimSpace(os.Getenv("CATALOG_PATH")),
		Rules: engine.Rules{
			TurnSeconds:    envIntDefault("TURN_SECONDS", engine.DefaultTurnSeconds),
			TurnUnit:       envDurationDefault("TURN_UNIT", engine.DefaultTurnUnit),
			StartingBudget: envDecimalDefault("STARTING_BUDGET", engine.DefaultStartingBudget),
			ResaleRate:     engine.DefaultResaleRate,
		},
		LogLevel: envDefault("LOG_LEVEL", "info"),
		LogDev:   envBoolDefault("LOG_DEV", false),
	}

	backend := StoreBackend(strings.ToLower(envDefault("STORE_BACKEND", "")))
	if backend == "" {
		backend = StoreFile
		if cfg.DatabaseURL != "" {
			backend = StorePostgres
		}
	}
	cfg.Store = backend

	switch backend {
	case StoreFile, StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
	case StoreS3:
		if cfg.S3.Bucket == "" {
			return cfg, fmt.Errorf("S3_BUCKET is required for STORE_BACKEND=s3")
		}
	default:
		return cfg, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}
	if cfg.Rules.TurnSeconds <= 0 {
		return cfg, fmt.Errorf("TURN_SECONDS must be positive, got %d", cfg.Rules.TurnSeconds)
	}
	if !cfg.Rules.StartingBudget.IsPositive() {
		return cfg, fmt.Errorf("STARTING_BUDGET must be positive, got %s", cfg.Rules.StartingBudget)
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("AUCTION_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envDecimalDefault(key string, fallback decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
