package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/intervention-engine/cvrisk/ensemble"
	"github.com/intervention-engine/cvrisk/history"
	"github.com/intervention-engine/cvrisk/trend"
)

// Config is the service configuration. Values come from the defaults, then an
// optional YAML file, then CVRISK_* environment variables (a .env file in the
// working directory is loaded first).
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Scoring ScoringConfig `yaml:"scoring"`
	History HistoryConfig `yaml:"history"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
	// Debounce delays recording a subject's snapshot; repeated assessments
	// within the window record only the latest.
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type ScoringConfig struct {
	Weights         map[string]float64 `yaml:"weights" validate:"dive,gte=0"`
	LifestyleWeight float64            `yaml:"lifestyleWeight" validate:"gte=0,lte=1"`
}

type HistoryConfig struct {
	Backend   string `yaml:"backend" validate:"omitempty,oneof=memory mongo sqlite redis"`
	Retention int    `yaml:"retention" validate:"gte=1"`
	Mongo     struct {
		URL      string `yaml:"url"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{Addr: ":9000", Debounce: 2 * time.Second},
		Log:    LogConfig{Level: "info", Format: "json"},
		Scoring: ScoringConfig{
			Weights:         ensemble.DefaultWeights(),
			LifestyleWeight: 0.25,
		},
		History: HistoryConfig{Backend: "memory", Retention: trend.DefaultRetention},
	}
	cfg.History.Mongo.URL = "localhost"
	cfg.History.Mongo.Database = "cvrisk"
	cfg.History.SQLite.Path = "cvrisk.db"
	cfg.History.Redis.Addr = "localhost:6379"
	return cfg
}

// Load builds the configuration from the defaults, the YAML file at path (if
// path is not empty) and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and that at least one ensemble weight is set.
func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	total := 0.0
	for _, w := range cfg.Scoring.Weights {
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("config: scoring weights must sum to more than 0")
	}
	return nil
}

func (cfg *Config) applyEnv() error {
	setString(&cfg.Server.Addr, "CVRISK_ADDR")
	setString(&cfg.Log.Level, "CVRISK_LOG_LEVEL")
	setString(&cfg.Log.Format, "CVRISK_LOG_FORMAT")
	setString(&cfg.History.Backend, "CVRISK_HISTORY_BACKEND")
	setString(&cfg.History.Mongo.URL, "CVRISK_MONGO_URL")
	setString(&cfg.History.Mongo.Database, "CVRISK_MONGO_DATABASE")
	setString(&cfg.History.SQLite.Path, "CVRISK_SQLITE_PATH")
	setString(&cfg.History.Redis.Addr, "CVRISK_REDIS_ADDR")
	setString(&cfg.History.Redis.Password, "CVRISK_REDIS_PASSWORD")

	if v := os.Getenv("CVRISK_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CVRISK_DEBOUNCE: %w", err)
		}
		cfg.Server.Debounce = d
	}
	if err := setInt(&cfg.History.Retention, "CVRISK_RETENTION"); err != nil {
		return err
	}
	if err := setInt(&cfg.History.Redis.DB, "CVRISK_REDIS_DB"); err != nil {
		return err
	}
	if v := os.Getenv("CVRISK_LIFESTYLE_WEIGHT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: CVRISK_LIFESTYLE_WEIGHT: %w", err)
		}
		cfg.Scoring.LifestyleWeight = f
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

// HistoryOptions converts the history section into repository options.
func (cfg *Config) HistoryOptions() history.Options {
	h := cfg.History
	return history.Options{
		Backend:       h.Backend,
		Retention:     h.Retention,
		MongoURL:      h.Mongo.URL,
		MongoDatabase: h.Mongo.Database,
		SQLitePath:    h.SQLite.Path,
		RedisAddr:     h.Redis.Addr,
		RedisPassword: h.Redis.Password,
		RedisDB:       h.Redis.DB,
	}
}

// EnsembleWeights returns the configured ensemble weights.
func (cfg *Config) EnsembleWeights() ensemble.Weights {
	return ensemble.Weights(cfg.Scoring.Weights)
}
