package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type StoreConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type EmbeddingConfig struct {
	Provider string `toml:"provider"` // "", "openai", "gemini", "ollama"
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type DedupConfig struct {
	Preset           string  `toml:"preset"`
	MinCombinedScore float64 `toml:"min_combined_score"` // 0 keeps the preset default
	Workers          int     `toml:"workers"`
	UseEmbeddings    bool    `toml:"use_embeddings"`
	GroupID          string  `toml:"group_id"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type Config struct {
	Store     StoreConfig     `toml:"store"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Dedup     DedupConfig     `toml:"dedup"`
	Server    ServerConfig    `toml:"server"`
}

// Load reads a TOML config file and applies environment overrides on top.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.ApplyEnv()
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Store:  StoreConfig{URI: "bolt://localhost:7687"},
		Dedup:  DedupConfig{Preset: "name_focused"},
		Server: ServerConfig{Port: "8080"},
	}
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides individual fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("STORE_URI"); v != "" {
		c.Store.URI = v
	}
	if v := os.Getenv("STORE_USER"); v != "" {
		c.Store.User = v
	}
	if v := os.Getenv("STORE_PASSWORD"); v != "" {
		c.Store.Password = v
	}
	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		c.Embedding.BaseURL = v
	}
	if v := os.Getenv("DEDUP_PRESET"); v != "" {
		c.Dedup.Preset = v
	}
	if v := os.Getenv("DEDUP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Dedup.Workers = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
}
