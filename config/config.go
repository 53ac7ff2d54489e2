package config

import (
	"fmt"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName    string `env:"APP_NAME" env-default:"sage-api"`
	Port       int    `env:"PORT" env-default:"3002"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`

	HTTPWriteTimeoutSeconds int `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HTTPReadTimeoutSeconds  int `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HTTPIdleTimeoutSeconds  int `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`

	// SQLite
	DatabasePath          string `env:"DB_PATH" env-default:"sage.db"`
	MigrationFolderPath   string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/sqlite"`
	MigrationVersion      int    `env:"DB_MIGRATION_VERSION" env-default:"0"`
	MigrationForce        int    `env:"DB_MIGRATION_FORCE" env-default:"0"`
	MigrationAutoRollback bool   `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Dedupe pipeline
	DefiniteThreshold   float64 `env:"DEDUPE_DEFINITE_THRESHOLD" env-default:"5.0" validate:"gtfield=PossibleThreshold"`
	PossibleThreshold   float64 `env:"DEDUPE_POSSIBLE_THRESHOLD" env-default:"3.0" validate:"gt=0"`
	ScoringWorkers      int     `env:"DEDUPE_SCORING_WORKERS" env-default:"4" validate:"gte=1"`
	MaxBlockSize        int     `env:"DEDUPE_MAX_BLOCK_SIZE" env-default:"0" validate:"gte=0"`
	RequireMultipleKeys bool    `env:"DEDUPE_REQUIRE_MULTIPLE_KEYS" env-default:"false"`

	// Verification
	VerifyReferenceDate string `env:"VERIFY_REFERENCE_DATE" env-default:""`

	// Tracing
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:""`
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc" validate:"oneof=grpc http"`
}

// Load reads .env when present, binds environment variables, and
// validates the result.
func Load() (*Config, error) {
	// missing .env is fine; the environment still applies
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
