package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	OwnerID int64  `yaml:"owner_id" envconfig:"TELEGRAM_OWNER_ID"`
	// AdminIDs lists additional privileged identities besides the owner.
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"TELEGRAM_ADMIN_IDS"`
	RunMode  string  `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// ChatsConfig identifies the chat surfaces the bot posts to.
type ChatsConfig struct {
	// GroupID is the main auction group where bids are placed.
	GroupID int64 `yaml:"group_id" envconfig:"AUCTION_GROUP_ID"`
	// ChannelID is the public channel that carries auction posts.
	ChannelID int64 `yaml:"channel_id" envconfig:"AUCTION_CHANNEL_ID"`
	// LogGroupID receives moderation and audit messages.
	LogGroupID int64 `yaml:"log_group_id" envconfig:"AUCTION_LOG_GROUP_ID"`

	GroupURL   string `yaml:"group_url" envconfig:"AUCTION_GROUP_URL"`
	ChannelURL string `yaml:"channel_url" envconfig:"AUCTION_CHANNEL_URL"`

	// WelcomeVideoID is a Telegram file_id played on /start; optional.
	WelcomeVideoID string `yaml:"welcome_video_id" envconfig:"AUCTION_WELCOME_VIDEO_ID"`
}

// AuctionConfig tunes the auction lifecycle.
type AuctionConfig struct {
	// ExpiryHours is how long an approved auction stays open.
	ExpiryHours int `yaml:"expiry_hours" envconfig:"AUCTION_EXPIRY_HOURS"`
	// MinIncrement is the minimum amount a new bid must exceed the current one by.
	MinIncrement int64 `yaml:"min_increment" envconfig:"AUCTION_MIN_INCREMENT"`
	// SweepIntervalMinutes controls the primary expiry sweep cadence.
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" envconfig:"AUCTION_SWEEP_INTERVAL_MINUTES"`
	// CleanupIntervalMinutes controls the secondary bid-control cleanup cadence.
	CleanupIntervalMinutes int `yaml:"cleanup_interval_minutes" envconfig:"AUCTION_CLEANUP_INTERVAL_MINUTES"`
}

// ExpiryDuration returns the configured auction window.
func (a AuctionConfig) ExpiryDuration() time.Duration {
	return time.Duration(a.ExpiryHours) * time.Hour
}

// SweepInterval returns the primary sweep cadence.
func (a AuctionConfig) SweepInterval() time.Duration {
	return time.Duration(a.SweepIntervalMinutes) * time.Minute
}

// CleanupInterval returns the secondary sweep cadence.
func (a AuctionConfig) CleanupInterval() time.Duration {
	return time.Duration(a.CleanupIntervalMinutes) * time.Minute
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the full bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Chats     ChatsConfig     `yaml:"chats"`
	Auction   AuctionConfig   `yaml:"auction"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// IsPrivileged reports whether the given user may perform moderation actions.
func (c *Config) IsPrivileged(userID int64) bool {
	if userID == 0 {
		return false
	}
	if userID == c.Telegram.OwnerID {
		return true
	}
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.OwnerID == 0 {
		return fmt.Errorf("telegram.owner_id is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Chats.GroupID == 0 {
		return fmt.Errorf("chats.group_id is required")
	}
	if cfg.Chats.ChannelID == 0 {
		return fmt.Errorf("chats.channel_id is required")
	}

	if cfg.Auction.ExpiryHours <= 0 {
		cfg.Auction.ExpiryHours = 72
	}
	if cfg.Auction.MinIncrement <= 0 {
		cfg.Auction.MinIncrement = 5
	}
	if cfg.Auction.SweepIntervalMinutes <= 0 {
		cfg.Auction.SweepIntervalMinutes = 1
	}
	if cfg.Auction.CleanupIntervalMinutes <= 0 {
		cfg.Auction.CleanupIntervalMinutes = 60
	}

	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}
	if strings.TrimSpace(cfg.Database.SSLMode) == "" {
		cfg.Database.SSLMode = "disable"
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
