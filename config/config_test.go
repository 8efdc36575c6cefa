package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:   "123456:test-token",
			OwnerID: 42,
			RunMode: "longpoll",
		},
		Chats: ChatsConfig{
			GroupID:   -1001,
			ChannelID: -1002,
		},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = ""

	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.Auction.ExpiryHours != 72 {
		t.Errorf("expiry_hours = %d, want 72", cfg.Auction.ExpiryHours)
	}
	if cfg.Auction.MinIncrement != 5 {
		t.Errorf("min_increment = %d, want 5", cfg.Auction.MinIncrement)
	}
	if cfg.Auction.SweepIntervalMinutes != 1 {
		t.Errorf("sweep_interval_minutes = %d, want 1", cfg.Auction.SweepIntervalMinutes)
	}
	if cfg.Database.MaxConnections != 10 {
		t.Errorf("max_connections = %d, want 10", cfg.Database.MaxConnections)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("sslmode = %q, want disable", cfg.Database.SSLMode)
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"

	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Telegram.Token = "" },
			wantErr: "token",
		},
		{
			name:    "missing owner",
			mutate:  func(c *Config) { c.Telegram.OwnerID = 0 },
			wantErr: "owner_id",
		},
		{
			name:    "missing group",
			mutate:  func(c *Config) { c.Chats.GroupID = 0 },
			wantErr: "group_id",
		},
		{
			name:    "missing channel",
			mutate:  func(c *Config) { c.Chats.ChannelID = 0 },
			wantErr: "channel_id",
		},
		{
			name:    "bad run mode",
			mutate:  func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" },
			wantErr: "run_mode",
		},
		{
			name: "webhook without url",
			mutate: func(c *Config) {
				c.Telegram.RunMode = RunModeWebhook
				c.Webhook = WebhookConfig{Listen: "0.0.0.0", Port: 8443}
			},
			wantErr: "webhook.url",
		},
		{
			name: "webhook without port",
			mutate: func(c *Config) {
				c.Telegram.RunMode = RunModeWebhook
				c.Webhook = WebhookConfig{URL: "https://bot.example.com", Listen: "0.0.0.0"}
			},
			wantErr: "webhook.port",
		},
		{
			name:    "bad rate limit exclusion",
			mutate:  func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline"} },
			wantErr: "exclude_updates",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Normalize(cfg)
			if err == nil {
				t.Fatal("Normalize: expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "MESSAGE"}

	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback || cfg.RateLimit.ExcludeUpdates[1] != UpdateMessage {
		t.Errorf("exclusions not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}
}

func TestIsPrivileged(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.AdminIDs = []int64{7, 9}

	for _, id := range []int64{42, 7, 9} {
		if !cfg.IsPrivileged(id) {
			t.Errorf("IsPrivileged(%d) = false, want true", id)
		}
	}
	for _, id := range []int64{0, 8, 100} {
		if cfg.IsPrivileged(id) {
			t.Errorf("IsPrivileged(%d) = true, want false", id)
		}
	}
}
