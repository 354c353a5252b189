package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Limits    LimitsConfig    `yaml:"limits"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Worker    WorkerConfig    `yaml:"worker"`
	Watch     WatchConfig     `yaml:"watch"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"`
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr        string        `yaml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LimitsConfig overrides the sanitizer ceilings. SanitizerFile, when set,
// points at a full sanitizer YAML document.
type LimitsConfig struct {
	MaxLines      int           `yaml:"max_lines"`
	MaxLineLength int           `yaml:"max_line_length"`
	MaxFileSize   int64         `yaml:"max_file_size"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	SanitizerFile string        `yaml:"sanitizer_file"`
}

// RateLimitConfig sizes the process-wide sliding window.
type RateLimitConfig struct {
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"max_requests"`
}

// StorageConfig holds the object store used for s3:// sources. An empty
// endpoint disables object sources.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// WorkerConfig sizes the async processing queue.
type WorkerConfig struct {
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
	SkipDuplicates bool          `yaml:"skip_duplicates"`
}

// WatchConfig enables the drop-folder watcher when Dir is set.
type WatchConfig struct {
	Dir             string        `yaml:"dir"`
	Format          string        `yaml:"format"`
	Debounce        time.Duration `yaml:"debounce"`
	EventsPerSecond float64       `yaml:"events_per_second"`
}

// LoadConfig loads configuration from environment variables, then overlays
// the YAML file named by SUMMARY_CONFIG when it is set.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "sqlite"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:        getEnv("GRPC_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Limits: LimitsConfig{
			MaxLines:      getEnvAsInt("SUMMARY_MAX_LINES", 10_000),
			MaxLineLength: getEnvAsInt("SUMMARY_MAX_LINE_LENGTH", 1_000),
			MaxFileSize:   getEnvAsInt64("SUMMARY_MAX_FILE_SIZE", 10<<20),
			ReadTimeout:   getEnvAsDuration("SUMMARY_READ_TIMEOUT", 30*time.Second),
			SanitizerFile: getEnv("SUMMARY_SANITIZER_CONFIG", ""),
		},
		RateLimit: RateLimitConfig{
			Window:      getEnvAsDuration("SUMMARY_RATE_WINDOW", 60*time.Second),
			MaxRequests: getEnvAsInt("SUMMARY_RATE_MAX", 100),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Region:    getEnv("S3_REGION", ""),
			UseSSL:    getEnvAsBool("S3_USE_SSL", true),
		},
		Worker: WorkerConfig{
			Workers:        getEnvAsInt("WORKERS", 4),
			QueueSize:      getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", time.Minute),
			SkipDuplicates: getEnvAsBool("SKIP_DUPLICATES", true),
		},
		Watch: WatchConfig{
			Dir:             getEnv("WATCH_DIR", ""),
			Format:          getEnv("WATCH_FORMAT", "default"),
			Debounce:        getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			EventsPerSecond: getEnvAsFloat64("WATCH_EVENTS_PER_SECOND", 5),
		},
	}

	if path := getEnv("SUMMARY_CONFIG", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// overlay decodes the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) overlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return NewAppError(KindConfig, fmt.Sprintf("read config %s: %v", path, err), err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return NewAppError(KindConfig, fmt.Sprintf("decode config %s: %v", path, err), err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	driver, ok := DatabaseDriver(c.Database.Driver)
	if !ok {
		return configError(fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if driver == DriverPostgres && c.Database.DSN == "" {
		return configError("DB_URL is required for the postgres driver")
	}
	if c.Server.GRPCAddr == "" {
		return configError("GRPC_ADDR is required")
	}
	if c.Limits.MaxLines <= 0 || c.Limits.MaxLineLength <= 0 || c.Limits.MaxFileSize <= 0 {
		return configError("content limits must be positive")
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.MaxRequests <= 0 {
		return configError("SUMMARY_RATE_WINDOW and SUMMARY_RATE_MAX must be positive")
	}
	if c.Worker.Workers <= 0 || c.Worker.QueueSize <= 0 {
		return configError("WORKERS and QUEUE_SIZE must be positive")
	}
	if c.Storage.Endpoint != "" && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		return configError("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}
	return nil
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseDriver maps a configured driver name, in any case, to DriverPostgres
// or DriverSQLite. "postgresql" and "pgx" name Postgres, "sqlite3" names SQLite.
func DatabaseDriver(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DriverPostgres, "postgresql", "pgx":
		return DriverPostgres, true
	case DriverSQLite, "sqlite3":
		return DriverSQLite, true
	default:
		return "", false
	}
}

// WatchEventsPerSecond caps the watcher pace at the rate limiter's sustained
// throughput so watched files are not paced faster than they can be admitted.
func (c *Config) WatchEventsPerSecond() float64 {
	rate := c.Watch.EventsPerSecond
	if c.RateLimit.Window <= 0 || c.RateLimit.MaxRequests <= 0 {
		return rate
	}
	admitted := float64(c.RateLimit.MaxRequests) / c.RateLimit.Window.Seconds()
	if rate <= 0 || rate > admitted {
		return admitted
	}
	return rate
}

func configError(msg string) error {
	return NewAppError(KindConfig, msg, ErrInvalidInput)
}
