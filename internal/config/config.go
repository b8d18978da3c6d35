package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Groq      GroqConfig      `mapstructure:"groq"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	RAG       RAGConfig       `mapstructure:"rag"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type GroqConfig struct {
	APIKey             string  `mapstructure:"api_key"`
	BaseURL            string  `mapstructure:"base_url"`
	ChatModel          string  `mapstructure:"chat_model"`
	TranscriptionModel string  `mapstructure:"transcription_model"`
	Temperature        float32 `mapstructure:"temperature"`
	MaxRetries         int     `mapstructure:"max_retries"`
	TimeoutSec         int     `mapstructure:"timeout_sec"`
}

type EmbeddingConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type RAGConfig struct {
	VectorsDir string `mapstructure:"vectors_dir"`
	TopK       int    `mapstructure:"top_k"`
}

type CatalogConfig struct {
	File string `mapstructure:"file"`
}

type ChatConfig struct {
	HistoryTurns int `mapstructure:"history_turns"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.chat_model", "llama3-8b-8192")
	v.SetDefault("groq.transcription_model", "whisper-large-v3-turbo")
	v.SetDefault("groq.max_retries", 2)
	v.SetDefault("groq.timeout_sec", 60)
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("rag.vectors_dir", "data/vectors")
	v.SetDefault("rag.top_k", 3)
	v.SetDefault("catalog.file", "data/grocery_products_50.json")
	v.SetDefault("chat.history_turns", 4)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Secrets never live in the config file
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		v.Set("groq.api_key", key)
	}
	if key := os.Getenv("EMBEDDING_API_KEY"); key != "" {
		v.Set("embedding.api_key", key)
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		v.Set("telegram.token", token)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Groq.APIKey == "" {
		return nil, fmt.Errorf("groq.api_key is required (set in config or GROQ_API_KEY env)")
	}

	return &cfg, nil
}
