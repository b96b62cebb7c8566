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

// Engine drivers.
const (
	DriverElastic = "elastic"
	DriverRedis   = "redis"
)

// Sources for document text served by the API.
const (
	TextSourceStore  = "store"
	TextSourceEngine = "engine"
)

// Config holds the docrank configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Documents DocumentsConfig `yaml:"documents"`
	Engine    EngineConfig    `yaml:"engine"`
	Search    SearchConfig    `yaml:"search"`
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
	HealthSec       int `yaml:"health_timeout_sec"` // per-backend ping bound for /health
}

// DocumentsConfig locates the SQLite document database.
type DocumentsConfig struct {
	Path     string `yaml:"path"`
	FoldCase bool   `yaml:"fold_case"` // lower-case identifiers before lookup
}

// EngineConfig holds search engine connection settings.
type EngineConfig struct {
	Driver           string   `yaml:"driver"` // elastic, redis (default: elastic)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	APIKey           string   `yaml:"api_key"` // elastic only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig maps the engine index onto documents.
type SearchConfig struct {
	Index         string   `yaml:"index"`
	Fields        []string `yaml:"fields"`
	IDField       []string `yaml:"id_field"` // nested parts, joined with "."
	ContentField  string   `yaml:"content_field"`
	MetadataField string   `yaml:"metadata_field"`
	Strict        bool     `yaml:"strict"` // reject blank queries
	DefaultK      int      `yaml:"default_k"`
	Workers       int      `yaml:"workers"` // 0 = GOMAXPROCS
	MaxBatchSize  int      `yaml:"max_batch_size"` // per HTTP batch request; the CLI is unbounded
	TextSource    string   `yaml:"text_source"` // store, engine (default: store)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML file.
func LoadFile(configPath string) (Config, error) {
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
	if c.HTTP.HealthSec <= 0 {
		c.HTTP.HealthSec = 2
	}
	if c.Engine.Driver == "" {
		c.Engine.Driver = DriverElastic
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 10
	}
	if len(c.Search.IDField) == 0 {
		c.Search.IDField = []string{"id"}
	}
	if c.Search.ContentField == "" {
		c.Search.ContentField = "text"
	}
	if len(c.Search.Fields) == 0 {
		c.Search.Fields = []string{c.Search.ContentField}
	}
	if c.Search.DefaultK <= 0 {
		c.Search.DefaultK = 1
	}
	if c.Search.MaxBatchSize <= 0 {
		c.Search.MaxBatchSize = 100
	}
	if c.Search.TextSource == "" {
		c.Search.TextSource = TextSourceStore
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Engine.Driver {
	case DriverElastic, DriverRedis:
	default:
		return fmt.Errorf("engine.driver must be %q or %q, got %q", DriverElastic, DriverRedis, c.Engine.Driver)
	}
	if len(c.Engine.Addrs) == 0 {
		return fmt.Errorf("engine.addrs is required")
	}
	if c.Search.Index == "" {
		return fmt.Errorf("search.index is required")
	}
	if c.Search.Workers < 0 {
		return fmt.Errorf("search.workers must not be negative, got %d", c.Search.Workers)
	}
	switch c.Search.TextSource {
	case TextSourceStore:
		if c.Documents.Path == "" {
			return fmt.Errorf("documents.path is required when search.text_source is %q", TextSourceStore)
		}
	case TextSourceEngine:
	default:
		return fmt.Errorf(
			"search.text_source must be %q or %q, got %q",
			TextSourceStore, TextSourceEngine, c.Search.TextSource,
		)
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
