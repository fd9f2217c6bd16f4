// Package config assembles service settings from an optional .env file
// and the process environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/YuminosukeSato/antiox/internal/modelstore"
	"github.com/YuminosukeSato/antiox/internal/training"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// Defaults.
const (
	DefaultPort            = "5000"
	DefaultDatasetPath     = "total_rgb_Brix_Hardness_AC.csv"
	DefaultLabelColumn     = "Anti-oxidation"
	DefaultLogLevel        = "info"
	DefaultCORSOrigins     = "*"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config is the resolved service configuration.
type Config struct {
	Port            string
	DatasetPath     string
	ModelPath       string
	LabelColumn     string
	TrainingConfig  string // optional YAML file with a "training" section
	LogLevel        string
	PredictionLog   string // audit sink URL; empty keeps records in memory
	CORSOrigins     string
	ShutdownTimeout time.Duration

	HyperParams training.HyperParams
}

// Load reads files (".env" when none are given) into the environment,
// ignoring missing files, then resolves the configuration.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !os.IsNotExist(err) {
				return nil, scierrors.Wrapf(err, "load env file %s", f)
			}
			log.GetLoggerWithName("config").Debug("No env file found, using system environment",
				log.ConfigSourceKey, f)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv resolves the configuration through getenv and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:           get("PORT", DefaultPort),
		DatasetPath:    get("DATASET_PATH", DefaultDatasetPath),
		ModelPath:      get("MODEL_PATH", modelstore.DefaultArtifactPath),
		LabelColumn:    get("LABEL_COLUMN", DefaultLabelColumn),
		TrainingConfig: get("TRAINING_CONFIG", ""),
		LogLevel:       strings.ToLower(get("LOG_LEVEL", DefaultLogLevel)),
		PredictionLog:  get("PREDICTION_LOG_URL", ""),
		CORSOrigins:    get("CORS_ORIGINS", DefaultCORSOrigins),
		HyperParams:    training.DefaultHyperParams(),
	}

	cfg.ShutdownTimeout = DefaultShutdownTimeout
	if raw := getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, scierrors.NewValidationError("SHUTDOWN_TIMEOUT", "must be a duration such as 5s", raw)
		}
		cfg.ShutdownTimeout = d
	}

	if cfg.TrainingConfig != "" {
		hp, err := training.LoadHyperParams(cfg.TrainingConfig)
		if err != nil {
			return nil, err
		}
		cfg.HyperParams = hp
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return scierrors.NewValidationError("PORT", "must be an integer in [1, 65535]", c.Port)
	}
	if c.DatasetPath == "" {
		return scierrors.NewValidationError("DATASET_PATH", "must not be empty", c.DatasetPath)
	}
	if c.ModelPath == "" {
		return scierrors.NewValidationError("MODEL_PATH", "must not be empty", c.ModelPath)
	}
	if c.LabelColumn == "" {
		return scierrors.NewValidationError("LABEL_COLUMN", "must not be empty", c.LabelColumn)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return scierrors.NewValidationError("LOG_LEVEL", "must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.ShutdownTimeout <= 0 {
		return scierrors.NewValidationError("SHUTDOWN_TIMEOUT", "must be positive", c.ShutdownTimeout)
	}
	return c.HyperParams.Validate()
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}
