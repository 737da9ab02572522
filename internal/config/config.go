package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the docgate configuration.
type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Collection CollectionConfig `yaml:"collection"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chat       ChatConfig       `yaml:"chat"`
	Extract    ExtractConfig    `yaml:"extract"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AppConfig holds application identity.
type AppConfig struct {
	Name string `yaml:"name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json or console (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty APIKeys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int        `yaml:"port"`
	ReadTimeoutSec  int        `yaml:"read_timeout_sec"`
	WriteTimeoutSec int        `yaml:"write_timeout_sec"`
	ShutdownSec     int        `yaml:"shutdown_timeout_sec"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAgeSec        int      `yaml:"max_age_sec"`
}

// DatabaseConfig selects and connects the vector store.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, chroma (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ChromaURL        string   `yaml:"chroma_url"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	DialTimeout      int      `yaml:"dial_timeout_sec"`
}

// StorageConfig holds key layout settings for Redis/Valkey.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// CollectionConfig describes the single document collection.
type CollectionConfig struct {
	Name            string `yaml:"name"`
	IDStrategy      string `yaml:"id_strategy"` // sequence, count
	Dimensions      int    `yaml:"dimensions"`
	Algorithm       string `yaml:"algorithm"` // hnsw, flat
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider   string      `yaml:"provider"` // metrics label
	BaseURL    string      `yaml:"base_url"`
	APIKey     string      `yaml:"api_key"`
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"` // sent to the API only when > 0
	TimeoutSec int         `yaml:"timeout_sec"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig controls the two embedding cache tiers.
type CacheConfig struct {
	LRUSize     int  `yaml:"lru_size"`
	LRUTTLSec   int  `yaml:"lru_ttl_sec"`
	Store       bool `yaml:"store"` // Redis/Valkey tier, ignored for chroma
	StoreTTLSec int  `yaml:"store_ttl_sec"`
}

// ChatConfig holds the language model settings.
type ChatConfig struct {
	Provider     string   `yaml:"provider"` // openai, gemini
	BaseURL      string   `yaml:"base_url"`
	APIKey       string   `yaml:"api_key"`
	Model        string   `yaml:"model"`
	SystemPrompt string   `yaml:"system_prompt"`
	MaxTokens    int      `yaml:"max_tokens"`
	Temperature  *float32 `yaml:"temperature"`
	ContextTopK  int      `yaml:"context_top_k"`
	TimeoutSec   int      `yaml:"timeout_sec"`
}

// ExtractConfig locates extracted assets served under /static/images.
type ExtractConfig struct {
	Dir string `yaml:"dir"`
}

// ImagesDir is the directory served under /static/images.
func (e ExtractConfig) ImagesDir() string {
	return filepath.Join(e.Dir, "images")
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates one YAML file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "docgate"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90 // chat waits on the model for up to chat.timeout_sec
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.DialTimeout <= 0 {
		c.Database.DialTimeout = 5
	}
	if c.Database.ChromaURL == "" {
		c.Database.ChromaURL = "http://localhost:8001" // vLLM holds :8000
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "docgate:"
	}
	c.applyCollectionDefaults()
	c.applyModelDefaults()
	if c.Extract.Dir == "" {
		c.Extract.Dir = "extracted"
	}
}

func (c *Config) applyCollectionDefaults() {
	if c.Collection.Name == "" {
		c.Collection.Name = "documents"
	}
	if c.Collection.IDStrategy == "" {
		c.Collection.IDStrategy = "sequence"
	}
	if c.Collection.Algorithm == "" {
		c.Collection.Algorithm = "hnsw"
	}
	if c.Collection.HNSWM <= 0 {
		c.Collection.HNSWM = 16
	}
	if c.Collection.HNSWEFConstruct <= 0 {
		c.Collection.HNSWEFConstruct = 200
	}
	if c.Collection.Dimensions <= 0 && c.Embedding.Dimensions > 0 {
		c.Collection.Dimensions = c.Embedding.Dimensions
	}
}

func (c *Config) applyModelDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "vllm"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = "openai"
	}
	if c.Chat.BaseURL == "" && c.Chat.Provider == "openai" {
		c.Chat.BaseURL = "http://localhost:8000/v1"
	}
	if c.Chat.APIKey == "" && c.Chat.Provider == "openai" {
		c.Chat.APIKey = "dummy-key"
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "meta-llama/Llama-2-7b-chat-hf"
	}
	if c.Chat.SystemPrompt == "" {
		c.Chat.SystemPrompt = "You are a helpful assistant."
	}
	if c.Chat.MaxTokens <= 0 {
		c.Chat.MaxTokens = 500
	}
	if c.Chat.Temperature == nil {
		t := float32(0.7)
		c.Chat.Temperature = &t
	}
	if c.Chat.ContextTopK <= 0 {
		c.Chat.ContextTopK = 3
	}
	if c.Chat.TimeoutSec <= 0 {
		c.Chat.TimeoutSec = 60
	}
}

var collectionNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// reservedCollectionNames share the key prefix with the sequence counters
// and the embedding cache.
var reservedCollectionNames = map[string]bool{"seq": true, "emb_cache": true}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case "valkey", "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
		if c.Collection.Dimensions <= 0 {
			return fmt.Errorf("collection.dimensions is required for driver %q", c.Database.Driver)
		}
	case "chroma":
	default:
		return fmt.Errorf("database.driver must be valkey, redis or chroma, got %q", c.Database.Driver)
	}

	if !collectionNameRegex.MatchString(c.Collection.Name) {
		return fmt.Errorf("collection.name %q must be alphanumeric with underscores and hyphens", c.Collection.Name)
	}
	if reservedCollectionNames[c.Collection.Name] {
		return fmt.Errorf("collection.name %q is reserved", c.Collection.Name)
	}
	switch c.Collection.IDStrategy {
	case "sequence", "count":
	default:
		return fmt.Errorf("collection.id_strategy must be \"sequence\" or \"count\", got %q", c.Collection.IDStrategy)
	}
	switch strings.ToLower(c.Collection.Algorithm) {
	case "hnsw", "flat":
	default:
		return fmt.Errorf("collection.algorithm must be \"hnsw\" or \"flat\", got %q", c.Collection.Algorithm)
	}

	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}

	switch c.Chat.Provider {
	case "openai":
	case "gemini":
		if c.Chat.APIKey == "" {
			return fmt.Errorf("chat.api_key is required for provider gemini")
		}
	default:
		return fmt.Errorf("chat.provider must be \"openai\" or \"gemini\", got %q", c.Chat.Provider)
	}
	if t := c.Chat.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("chat.temperature must be between 0 and 2, got %g", *t)
	}
	if f := c.Logging.Format; f != "" && f != "json" && f != "console" {
		return fmt.Errorf("logging.format must be \"json\" or \"console\", got %q", f)
	}

	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
