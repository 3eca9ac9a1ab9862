package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the omnimind API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Documents DocumentsConfig `yaml:"documents"`
	Vectors   VectorsConfig   `yaml:"vectors"`
	AI        AIConfig        `yaml:"ai"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DocumentsConfig holds relational store settings for documents and tags.
type DocumentsConfig struct {
	Driver string `yaml:"driver"` // postgres, sqlite (default: postgres)
	DSN    string `yaml:"dsn"`
}

// VectorsConfig holds the Redis-backed vector store settings.
type VectorsConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AIConfig holds the enrichment provider settings.
type AIConfig struct {
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url"`
	EmbeddingModel    string `yaml:"embedding_model"`
	Dimensions        int    `yaml:"dimensions"`
	TaggingModel      string `yaml:"tagging_model"`
	TaggingTimeoutSec int    `yaml:"tagging_timeout_sec"`
	EmbedTimeoutSec   int    `yaml:"embed_timeout_sec"`
}

// SearchConfig holds retrieval tuning constants.
type SearchConfig struct {
	// MinScore is the exclusive similarity cutoff: only hits strictly above it
	// are returned. The 0.5 default is a recall/precision tuning constant.
	MinScore float64 `yaml:"min_score"`
	TopK     int     `yaml:"top_k"`
}

// CacheConfig holds ingest-result cache settings.
type CacheConfig struct {
	TTLSec int `yaml:"ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Documents.Driver == "" {
		c.Documents.Driver = "postgres"
	}
	if c.Vectors.KeyPrefix == "" {
		c.Vectors.KeyPrefix = "omnimind:"
	}
	if c.Vectors.ReadinessTimeout <= 0 {
		c.Vectors.ReadinessTimeout = 10
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.AI.TaggingModel == "" {
		c.AI.TaggingModel = "gpt-4o-mini"
	}
	if c.AI.TaggingTimeoutSec <= 0 {
		c.AI.TaggingTimeoutSec = 30
	}
	if c.AI.EmbedTimeoutSec <= 0 {
		c.AI.EmbedTimeoutSec = 15
	}
	if c.Search.MinScore == 0 {
		c.Search.MinScore = 0.5
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 5
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Documents.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("documents.driver must be \"postgres\" or \"sqlite\", got %q", c.Documents.Driver)
	}
	if c.Documents.DSN == "" {
		return fmt.Errorf("documents.dsn is required")
	}
	if len(c.Vectors.Addrs) == 0 {
		return fmt.Errorf("vectors.addrs is required")
	}
	if c.Search.MinScore < -1 || c.Search.MinScore >= 1 {
		return fmt.Errorf("search.min_score must be in [-1, 1), got %g", c.Search.MinScore)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
