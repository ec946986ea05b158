package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docqa/internal/passage"
)

// ExtractorConfig holds the corpus-specific vocabulary of the passage extractor.
// The numeric limits of the extractor are fixed and not configurable here.
type ExtractorConfig struct {
	Stopwords      []string                `yaml:"stopwords,omitempty"`
	DomainKeywords []passage.DomainKeyword `yaml:"domain_keywords,omitempty"`
}

// RedisConfig contains connection details for the redis document cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	TTLSecs  int    `yaml:"ttl_secs"`
}

// LoaderConfig selects where loaded documents are cached.
type LoaderConfig struct {
	Cache string       `yaml:"cache"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// LLMConfig selects and configures the model used to answer questions.
type LLMConfig struct {
	Type         string  `yaml:"type"`
	BaseURL      string  `yaml:"base_url,omitempty"`
	APIKeyEnv    string  `yaml:"api_key_env,omitempty"`
	Model        string  `yaml:"model,omitempty"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens,omitempty"`
	TimeoutSecs  int     `yaml:"timeout_secs,omitempty"`
	SystemPrompt string  `yaml:"system_prompt,omitempty"`
}

// HistoryConfig selects where question/answer exchanges are stored.
type HistoryConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path,omitempty"`
}

// BatchConfig configures concurrent extraction.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Extractor ExtractorConfig `yaml:"extractor"`
	Loader    LoaderConfig    `yaml:"loader"`
	LLM       LLMConfig       `yaml:"llm"`
	History   HistoryConfig   `yaml:"history"`
	Batch     BatchConfig     `yaml:"batch"`
	Log       LogConfig       `yaml:"log"`
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the enumerated fields.
func (c *AppConfig) Validate() error {
	switch c.Loader.Cache {
	case "memory":
	case "redis":
		if c.Loader.Redis == nil || c.Loader.Redis.Addr == "" {
			return fmt.Errorf("%w: loader.redis.addr is required for the redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown loader cache %q", ErrInvalidConfig, c.Loader.Cache)
	}
	switch c.LLM.Type {
	case "none", "openai":
	default:
		return fmt.Errorf("%w: unknown llm type %q", ErrInvalidConfig, c.LLM.Type)
	}
	switch c.History.Type {
	case "none":
	case "sqlite":
		if c.History.Path == "" {
			return fmt.Errorf("%w: history.path is required for sqlite history", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown history type %q", ErrInvalidConfig, c.History.Type)
	}
	for i, m := range c.Extractor.DomainKeywords {
		if m.Trigger == "" {
			return fmt.Errorf("%w: extractor.domain_keywords[%d] has an empty trigger", ErrInvalidConfig, i)
		}
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Loader:  LoaderConfig{Cache: "memory"},
		LLM:     LLMConfig{Type: "none"},
		History: HistoryConfig{Type: "none"},
		Batch:   BatchConfig{Workers: 4},
		Log:     LogConfig{Level: "info"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Loader.Cache == "" {
		cfg.Loader.Cache = "memory"
	}
	if cfg.Loader.Cache == "redis" && cfg.Loader.Redis != nil && cfg.Loader.Redis.Prefix == "" {
		cfg.Loader.Redis.Prefix = "docqa:doc:"
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "none"
	}
	if cfg.LLM.Type == "openai" {
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.LLM.APIKeyEnv == "" {
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gpt-4o-mini"
		}
		if cfg.LLM.TimeoutSecs == 0 {
			cfg.LLM.TimeoutSecs = 60
		}
		if cfg.LLM.MaxTokens == 0 {
			cfg.LLM.MaxTokens = 1024
		}
	}
	if cfg.History.Type == "" {
		cfg.History.Type = "none"
	}
	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
