package config

import (
	"os"
	"strconv"
	"time"

	"topowave/domain/run"
	"topowave/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Generator GeneratorConfig
	Pipeline  PipelineConfig
	Paths     PathConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// GeneratorConfig holds synthetic-data defaults
type GeneratorConfig struct {
	SignalCount int
	SampleCount int
	SNRMin      float64
	SNRMax      float64
	SNRSteps    int
}

// PipelineConfig holds default transformer parameters
type PipelineConfig struct {
	EmbeddingDimension int
	EmbeddingDelay     int
	EmbeddingStride    int
	PCAComponents      int
	Workers            int
	TestFraction       float64
	Seed               int64
}

// PathConfig holds file system paths
type PathConfig struct {
	TemplateFile string
	ReportDir    string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	config.Server = *loadServerConfig()
	config.Generator = *loadGeneratorConfig()
	config.Pipeline = *loadPipelineConfig()
	config.Paths = *loadPathConfig()
	config.Profiling = *loadProfilingConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:     url,
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func loadGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		SignalCount: getEnvIntOrDefault("GW_SIGNAL_COUNT", 200),
		SampleCount: getEnvIntOrDefault("GW_SAMPLE_COUNT", 2048),
		SNRMin:      getEnvFloatOrDefault("GW_SNR_MIN", 0.075),
		SNRMax:      getEnvFloatOrDefault("GW_SNR_MAX", 0.65),
		SNRSteps:    getEnvIntOrDefault("GW_SNR_STEPS", 10),
	}
}

func loadPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		EmbeddingDimension: getEnvIntOrDefault("EMBEDDING_DIMENSION", 30),
		EmbeddingDelay:     getEnvIntOrDefault("EMBEDDING_DELAY", 30),
		EmbeddingStride:    getEnvIntOrDefault("EMBEDDING_STRIDE", 5),
		PCAComponents:      getEnvIntOrDefault("PCA_COMPONENTS", 3),
		Workers:            getEnvIntOrDefault("PIPELINE_WORKERS", 4),
		TestFraction:       getEnvFloatOrDefault("TEST_FRACTION", 0.2),
		Seed:               int64(getEnvIntOrDefault("SEED", 42)),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		TemplateFile: getEnvOrDefault("TEMPLATE_FILE", ""),
		ReportDir:    getEnvOrDefault("REPORT_DIR", "."),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.Generator.SignalCount <= 0 {
		return errors.ConfigInvalid("signal count must be positive")
	}
	if config.Generator.SNRMin > config.Generator.SNRMax {
		return errors.ConfigInvalid("SNR range is inverted")
	}
	if config.Pipeline.TestFraction <= 0 || config.Pipeline.TestFraction >= 1 {
		return errors.ConfigInvalid("test fraction must be within (0,1)")
	}
	if config.Pipeline.Workers < 1 {
		return errors.ConfigInvalid("pipeline workers must be at least 1")
	}
	return nil
}

// RunGeneratorConfig converts defaults into a run-scoped generator config.
func (c *Config) RunGeneratorConfig() run.GeneratorConfig {
	return run.GeneratorConfig{
		SignalCount:  c.Generator.SignalCount,
		SampleCount:  c.Generator.SampleCount,
		SNRMin:       c.Generator.SNRMin,
		SNRMax:       c.Generator.SNRMax,
		SNRSteps:     c.Generator.SNRSteps,
		TemplatePath: c.Paths.TemplateFile,
	}
}

// RunPipelineConfig converts defaults into a run-scoped pipeline config.
func (c *Config) RunPipelineConfig() run.PipelineConfig {
	return run.PipelineConfig{
		EmbeddingDimension: c.Pipeline.EmbeddingDimension,
		EmbeddingDelay:     c.Pipeline.EmbeddingDelay,
		EmbeddingStride:    c.Pipeline.EmbeddingStride,
		HomologyDimensions: []int{0, 1},
		PCAComponents:      c.Pipeline.PCAComponents,
		Workers:            c.Pipeline.Workers,
	}
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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
