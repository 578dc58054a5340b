package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Groq         GroqConfig         `yaml:"groq"`
	AlphaVantage AlphaVantageConfig `yaml:"alpha_vantage"`
	News         NewsConfig         `yaml:"news"`
	Sentiment    SentimentConfig    `yaml:"sentiment"`
	Watchlist    WatchlistConfig    `yaml:"watchlist"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Web          WebConfig          `yaml:"web"`
	Storage      StorageConfig      `yaml:"storage"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type GroqConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type AlphaVantageConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type NewsConfig struct {
	FeedURL        string `yaml:"feed_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SentimentConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIToken       string `yaml:"api_token"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	SkipWarmup     bool   `yaml:"skip_warmup"`
}

type WatchlistConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Schedule string   `yaml:"schedule"`
	Symbols  []string `yaml:"symbols"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file, applies .env and environment overrides, then defaults.
// A missing file is not an error when the environment supplies the keys.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	applyEnv(cfg)

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.Groq.APIKey = v
	}
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		cfg.Groq.Model = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("HF_API_TOKEN"); v != "" {
		cfg.Sentiment.APIToken = v
	}
	if v := os.Getenv("FINBERT_MODEL"); v != "" {
		cfg.Sentiment.Model = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Groq.BaseURL == "" {
		cfg.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Groq.TimeoutSeconds == 0 {
		cfg.Groq.TimeoutSeconds = 60
	}
	if cfg.AlphaVantage.BaseURL == "" {
		cfg.AlphaVantage.BaseURL = "https://www.alphavantage.co"
	}
	if cfg.AlphaVantage.TimeoutSeconds == 0 {
		cfg.AlphaVantage.TimeoutSeconds = 30
	}
	if cfg.News.FeedURL == "" {
		cfg.News.FeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline"
	}
	if cfg.News.TimeoutSeconds == 0 {
		cfg.News.TimeoutSeconds = 30
	}
	if cfg.Sentiment.Endpoint == "" {
		cfg.Sentiment.Endpoint = "https://api-inference.huggingface.co"
	}
	if cfg.Sentiment.Model == "" {
		cfg.Sentiment.Model = "ProsusAI/finbert"
	}
	if cfg.Sentiment.TimeoutSeconds == 0 {
		cfg.Sentiment.TimeoutSeconds = 30
	}
	if cfg.Watchlist.Schedule == "" {
		cfg.Watchlist.Schedule = "0 */15 * * * *"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/fin-advisor.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Groq.APIKey == "" {
		return fmt.Errorf("groq.api_key is required")
	}
	if c.Groq.Model == "" {
		return fmt.Errorf("groq.model is required")
	}
	if c.AlphaVantage.APIKey == "" {
		return fmt.Errorf("alpha_vantage.api_key is required")
	}
	if c.Sentiment.Model == "" {
		return fmt.Errorf("sentiment.model is required")
	}
	if c.Watchlist.Enabled && len(c.Watchlist.Symbols) == 0 {
		return fmt.Errorf("watchlist.symbols is required when watchlist is enabled")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

func (c *Config) GroqTimeout() time.Duration {
	return time.Duration(c.Groq.TimeoutSeconds) * time.Second
}

func (c *Config) AlphaVantageTimeout() time.Duration {
	return time.Duration(c.AlphaVantage.TimeoutSeconds) * time.Second
}

func (c *Config) NewsTimeout() time.Duration {
	return time.Duration(c.News.TimeoutSeconds) * time.Second
}

func (c *Config) SentimentTimeout() time.Duration {
	return time.Duration(c.Sentiment.TimeoutSeconds) * time.Second
}
