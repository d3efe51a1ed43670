package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Ollama struct {
		BaseURL        string  `yaml:"base_url"`
		ChatModel      string  `yaml:"chat_model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		Temperature    float64 `yaml:"temperature"`
	} `yaml:"ollama"`
	Ingestion struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"ingestion"`
	Retrieval struct {
		TopK          int     `yaml:"top_k"`
		FetchK        int     `yaml:"fetch_k"`
		Lambda        float64 `yaml:"lambda"`
		ContextTokens int     `yaml:"context_tokens"`
	} `yaml:"retrieval"`
	Chat struct {
		TitleWords        int `yaml:"title_words"`
		WebhookTitleWords int `yaml:"webhook_title_words"`
	} `yaml:"chat"`
	Webhook struct {
		Addr string `yaml:"addr"`
	} `yaml:"webhook"`
	Paths struct {
		DocumentsDir string `yaml:"documents_dir"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults.
// Environment variables DOCUCHAT_DATABASE_URL and OLLAMA_HOST override
// the file values so deployments can avoid writing config to disk.
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".docuchat", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		applyEnv(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".docuchat")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.ChatModel = "deepseek-r1:1.5b"
	cfg.Ollama.EmbeddingModel = "nomic-embed-text"
	cfg.Ollama.Temperature = 0.3
	cfg.Ingestion.ChunkSize = 1200
	cfg.Ingestion.ChunkOverlap = 150
	cfg.Retrieval.TopK = 3
	cfg.Retrieval.FetchK = 20
	cfg.Retrieval.Lambda = 0.5
	cfg.Retrieval.ContextTokens = 2000
	cfg.Chat.TitleWords = 6
	cfg.Chat.WebhookTitleWords = 3
	cfg.Webhook.Addr = ":8080"
	cfg.Paths.DocumentsDir = filepath.Join(os.Getenv("HOME"), "documents")

	return cfg
}

// applyEnv applies environment variable overrides
func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCUCHAT_DATABASE_URL"); v != "" {
		cfg.Database.ConnectionString = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.BaseURL = v
	}
}
