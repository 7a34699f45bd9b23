package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Search    SearchConfig    `yaml:"search"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Teams     TeamsConfig     `yaml:"teams"`
	KB        KBConfig        `yaml:"kb"`
	Store     StoreConfig     `yaml:"store"`
	NATS      NATSConfig      `yaml:"nats"`
	Web       WebConfig       `yaml:"web"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Vault     VaultConfig     `yaml:"vault"`
}

type ModelConfig struct {
	Name    string        `yaml:"name"`
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SearchConfig struct {
	APIKey     string `yaml:"api_key"`
	MaxResults int    `yaml:"max_results"`
}

type SMTPConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TeamsConfig carries the tunables of the two assistant teams. The
// similarity threshold and turn ceiling are empirically chosen values
// carried over from the original deployments; they are configurable
// rather than hard-coded.
type TeamsConfig struct {
	MaxTurns            int     `yaml:"max_turns"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinScoreThreshold   int     `yaml:"min_score_threshold"`
}

type KBConfig struct {
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type NATSConfig struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Auth    string `yaml:"auth"`
}

type TelegramConfig struct {
	Token     string  `yaml:"token"`
	AllowFrom []int64 `yaml:"allow_from"`
	// FallbackEmail receives ticket notifications for chats whose users
	// have no known address.
	FallbackEmail string `yaml:"fallback_email"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type VaultConfig struct {
	Passphrase string `yaml:"passphrase"`
}

func defaults() Config {
	return Config{
		Model: ModelConfig{
			Name:    "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Search: SearchConfig{
			MaxResults: 5,
		},
		SMTP: SMTPConfig{
			Server: "smtp.gmail.com",
			Port:   587,
		},
		Teams: TeamsConfig{
			MaxTurns:            25,
			SimilarityThreshold: 0.2,
			MinScoreThreshold:   90,
		},
		KB: KBConfig{
			Path: "data/kb/knowledge_base.txt",
		},
		Store: StoreConfig{
			Path: "data/agora.db",
		},
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Scheduler: SchedulerConfig{
			PollInterval: 30 * time.Second,
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("AGORA_CONFIG")
	if path == "" {
		path = "config/agora.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.SMTP.Server = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("AGORA_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("AGORA_WEB_PASSWORD"); v != "" {
		cfg.Web.Auth = v
	}
	if v := os.Getenv("AGORA_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("AGORA_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := os.Getenv("AGORA_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("AGORA_KB_PATH"); v != "" {
		cfg.KB.Path = v
	}
	if v := os.Getenv("AGORA_VAULT_PASSPHRASE"); v != "" {
		cfg.Vault.Passphrase = v
	}
}
