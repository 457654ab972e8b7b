package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"flarewise/internal/errors"
)

// Data sources the event repository can be backed by
const (
	DataSourcePostgres = "postgres"
	DataSourceExcel    = "excel"
	DataSourceMemory   = "memory"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Data      DataConfig
	Server    ServerConfig
	Analysis  AnalysisConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DataConfig selects where events are read from
type DataConfig struct {
	Source    string
	ExcelFile string
	// SyntheticSeed seeds the generated data set of the memory source
	SyntheticSeed int64
	SyntheticDays int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	GinMode        string
	OpsPort        string
	RequestTimeout time.Duration
	// MaxConcurrentAnalyses bounds analyses running at once across all requests
	MaxConcurrentAnalyses int
}

// AnalysisConfig holds defaults for the analysis services
type AnalysisConfig struct {
	DefaultRangeDays    int
	MinSampleSize       int
	PatternMinFrequency int
	PatternMaxLag       time.Duration
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:      *loadDataConfig(),
		Server:    *loadServerConfig(),
		Analysis:  *loadAnalysisConfig(),
		Profiling: *loadProfilingConfig(),
	}

	if config.Data.Source == DataSourcePostgres {
		dbConfig, err := loadDatabaseConfig()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load database configuration")
		}
		config.Database = *dbConfig
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required when DATA_SOURCE=postgres")
	}

	return &DatabaseConfig{
		URL:             url,
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}, nil
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		Source:        strings.ToLower(getEnvOrDefault("DATA_SOURCE", DataSourcePostgres)),
		ExcelFile:     getEnvOrDefault("EXCEL_FILE", ""),
		SyntheticSeed: int64(getEnvIntOrDefault("SYNTHETIC_SEED", 42)),
		SyntheticDays: getEnvIntOrDefault("SYNTHETIC_DAYS", 180),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		OpsPort:        getEnvOrDefault("OPS_PORT", "9090"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),

		MaxConcurrentAnalyses: getEnvIntOrDefault("MAX_CONCURRENT_ANALYSES", 8),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		DefaultRangeDays:    getEnvIntOrDefault("DEFAULT_RANGE_DAYS", 30),
		MinSampleSize:       getEnvIntOrDefault("MIN_SAMPLE_SIZE", 3),
		PatternMinFrequency: getEnvIntOrDefault("PATTERN_MIN_FREQUENCY", 3),
		PatternMaxLag:       getEnvDurationOrDefault("PATTERN_MAX_LAG", 48*time.Hour),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	switch config.Data.Source {
	case DataSourcePostgres:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("database URL is required")
		}
	case DataSourceExcel:
		if config.Data.ExcelFile == "" {
			return errors.ConfigInvalid("EXCEL_FILE is required when DATA_SOURCE=excel")
		}
	case DataSourceMemory:
		if config.Data.SyntheticDays <= 0 {
			return errors.ConfigInvalid("SYNTHETIC_DAYS must be positive")
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown DATA_SOURCE %q", config.Data.Source))
	}
	if config.Analysis.DefaultRangeDays <= 0 {
		return errors.ConfigInvalid("DEFAULT_RANGE_DAYS must be positive")
	}
	if config.Analysis.MinSampleSize < 1 {
		return errors.ConfigInvalid("MIN_SAMPLE_SIZE must be at least 1")
	}
	if config.Analysis.PatternMinFrequency < 1 {
		return errors.ConfigInvalid("PATTERN_MIN_FREQUENCY must be at least 1")
	}
	if config.Analysis.PatternMaxLag <= 0 {
		return errors.ConfigInvalid("PATTERN_MAX_LAG must be positive")
	}
	if config.Server.MaxConcurrentAnalyses < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_ANALYSES must be at least 1")
	}
	if config.Server.Port == config.Server.OpsPort {
		return errors.ConfigInvalid("PORT and OPS_PORT must differ")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
