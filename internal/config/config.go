package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	Account    string `yaml:"account"`
	PostingKey string `yaml:"posting_key"`
	ActiveKey  string `yaml:"active_key"`
	RPCURL     string `yaml:"rpc_url"`
	SignerURL  string `yaml:"signer_url"`
	Proxy      string `yaml:"proxy"`
	LogLevel   string `yaml:"log_level"`

	Bidding struct {
		MinBid          float64  `yaml:"min_bid"`
		MaxBid          float64  `yaml:"max_bid"`
		Currency        string   `yaml:"currency"`
		AllowComments   bool     `yaml:"allow_comments"`
		MaxPostAgeHours float64  `yaml:"max_post_age"`
		Blacklist       []string `yaml:"blacklist"`
		DisabledMode    bool     `yaml:"disabled_mode"`
	} `yaml:"bidding"`
	Refunds struct {
		Enabled  bool     `yaml:"enabled"`
		NoRefund []string `yaml:"no_refund"`
	} `yaml:"refunds"`
	Voting struct {
		BatchVoteWeight  float64       `yaml:"batch_vote_weight"`
		PromotionContent string        `yaml:"promotion_content"`
		Pacing           time.Duration `yaml:"pacing"`
	} `yaml:"voting"`
	Schedule struct {
		PollInterval    time.Duration `yaml:"poll_interval"`
		HistoryPageSize int           `yaml:"history_page_size"`
		CallTimeout     time.Duration `yaml:"call_timeout"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		EnablePrometheus bool   `yaml:"enable_prometheus"`
		ListenAddr       string `yaml:"listen_addr"`
		EnableOTLP       bool   `yaml:"enable_otlp"`
		OTLPEndpoint     string `yaml:"otlp_endpoint"`
		OTLPInsecure     bool   `yaml:"otlp_insecure"`
	} `yaml:"metrics"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing envFile is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Refunds.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ACCOUNT"); v != "" {
		cfg.Account = v
	}
	if v := os.Getenv("POSTING_KEY"); v != "" {
		cfg.PostingKey = v
	}
	if v := os.Getenv("ACTIVE_KEY"); v != "" {
		cfg.ActiveKey = v
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv("SIGNER_URL"); v != "" {
		cfg.SignerURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DISABLED_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Bidding.DisabledMode = b
		}
	}

	// Defaults
	if cfg.RPCURL == "" {
		cfg.RPCURL = "https://api.steemit.com"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Bidding.MaxBid == 0 {
		cfg.Bidding.MaxBid = 9999
	}
	if cfg.Bidding.Currency == "" {
		cfg.Bidding.Currency = "SBD"
	}
	if cfg.Voting.BatchVoteWeight == 0 {
		cfg.Voting.BatchVoteWeight = 100
	}
	if cfg.Voting.Pacing == 0 {
		cfg.Voting.Pacing = 30 * time.Second
	}
	if cfg.Schedule.PollInterval == 0 {
		cfg.Schedule.PollInterval = 5 * time.Second
	}
	if cfg.Schedule.HistoryPageSize == 0 {
		cfg.Schedule.HistoryPageSize = 50
	}
	if cfg.Schedule.CallTimeout == 0 {
		cfg.Schedule.CallTimeout = 30 * time.Second
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":8086"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Account == "" {
		return fmt.Errorf("%w: account is required", ErrInvalid)
	}
	if c.PostingKey == "" {
		return fmt.Errorf("%w: posting_key is required", ErrInvalid)
	}
	if c.ActiveKey == "" && c.Refunds.Enabled {
		return fmt.Errorf("%w: active_key is required when refunds are enabled", ErrInvalid)
	}
	if c.SignerURL == "" {
		return fmt.Errorf("%w: signer_url is required", ErrInvalid)
	}
	if c.Bidding.MinBid < 0 {
		return fmt.Errorf("%w: bidding.min_bid must not be negative", ErrInvalid)
	}
	if c.Bidding.MaxBid < c.Bidding.MinBid {
		return fmt.Errorf("%w: bidding.max_bid must not be below min_bid", ErrInvalid)
	}
	if c.Bidding.MaxPostAgeHours < 0 {
		return fmt.Errorf("%w: bidding.max_post_age must not be negative", ErrInvalid)
	}
	if c.Voting.BatchVoteWeight <= 0 || c.Voting.BatchVoteWeight > 100 {
		return fmt.Errorf("%w: voting.batch_vote_weight must be in (0, 100]", ErrInvalid)
	}
	if c.Voting.Pacing < 0 {
		return fmt.Errorf("%w: voting.pacing must not be negative", ErrInvalid)
	}
	if c.Schedule.PollInterval < time.Second {
		return fmt.Errorf("%w: schedule.poll_interval must be at least 1s", ErrInvalid)
	}
	if c.Schedule.HistoryPageSize <= 0 {
		return fmt.Errorf("%w: schedule.history_page_size must be positive", ErrInvalid)
	}
	if c.Metrics.EnableOTLP && c.Metrics.OTLPEndpoint == "" {
		return fmt.Errorf("%w: metrics.otlp_endpoint is required when OTLP is enabled", ErrInvalid)
	}
	return nil
}

// MaxPostAge returns the configured maximum post age. Zero means no limit.
func (c *Config) MaxPostAge() time.Duration {
	return time.Duration(c.Bidding.MaxPostAgeHours * float64(time.Hour))
}

// TelegramEnabled reports whether operator notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
