package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Firestore     FirestoreConfig     `yaml:"firestore"`
	Storage       StorageConfig       `yaml:"storage"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Assignment    AssignmentConfig    `yaml:"assignment"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL publishes domain events
// to an in-process channel instead.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// FirestoreConfig holds the document store settings.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	Collection      string `yaml:"collection"`
	CredentialsFile string `yaml:"credentials_file"`
}

// StorageConfig selects the roster backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// JWTConfig holds the caller token settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// AssignmentConfig tunes seating.
type AssignmentConfig struct {
	Strategy    string `yaml:"strategy"`
	MaxAttempts int    `yaml:"max_attempts"`
	Seed        uint64 `yaml:"seed"`
}

// QueueConfig controls the background job queue. It requires Postgres.
type QueueConfig struct {
	Enabled bool `yaml:"enabled"`
	Workers int  `yaml:"workers"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
}

// LoadConfig loads the configuration from a YAML file, then applies
// environment overrides. A missing file falls back to the environment alone.
// Callers that start the server should Validate the result.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"DATABASE_URL":          &cfg.Postgres.DSN,
		"NATS_URL":              &cfg.NATS.URL,
		"FIRESTORE_PROJECT_ID":  &cfg.Firestore.ProjectID,
		"FIRESTORE_COLLECTION":  &cfg.Firestore.Collection,
		"FIRESTORE_CREDENTIALS": &cfg.Firestore.CredentialsFile,
		"STORAGE_DRIVER":        &cfg.Storage.Driver,
		"HTTP_ADDRESS":          &cfg.HTTP.Address,
		"JWT_SECRET":            &cfg.JWT.Secret,
		"JWT_ISSUER":            &cfg.JWT.Issuer,
		"ASSIGNMENT_STRATEGY":   &cfg.Assignment.Strategy,
		"METRICS_ADDRESS":       &cfg.Observability.MetricsAddress,
		"ENV":                   &cfg.Observability.Environment,
		"LOG_LEVEL":             &cfg.Observability.LogLevel,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT value: %w", err)
		}
		cfg.HTTP.RateLimit = f
	}
	if v := os.Getenv("ASSIGNMENT_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ASSIGNMENT_MAX_ATTEMPTS value: %w", err)
		}
		cfg.Assignment.MaxAttempts = n
	}
	if v := os.Getenv("ASSIGNMENT_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ASSIGNMENT_SEED value: %w", err)
		}
		cfg.Assignment.Seed = n
	}
	if v := os.Getenv("QUEUE_ENABLED"); v != "" {
		cfg.Queue.Enabled = v == "true"
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}
	if cfg.Firestore.Collection == "" {
		cfg.Firestore.Collection = "tournaments"
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.RateLimit == 0 {
		cfg.HTTP.RateLimit = 20
	}
	if cfg.HTTP.RateBurst == 0 {
		cfg.HTTP.RateBurst = 40
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.Assignment.Strategy == "" {
		cfg.Assignment.Strategy = "random"
	}
	if cfg.Assignment.MaxAttempts == 0 {
		cfg.Assignment.MaxAttempts = 5
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = 5
	}
}

// Validate rejects combinations the process cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres storage requires DATABASE_URL")
		}
	case DriverFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore storage requires FIRESTORE_PROJECT_ID")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Queue.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("the job queue requires DATABASE_URL")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if c.Assignment.MaxAttempts < 1 {
		return fmt.Errorf("assignment.max_attempts must be positive")
	}
	return nil
}
