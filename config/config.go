// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For sending credentials (authenticated chat messages), use ValidateDispatchReady.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/onnwee/casebox/chat"
	"github.com/onnwee/casebox/cooldown"
)

type Config struct {
	// Twitch
	TwitchChannel     string
	TwitchBotUsername string
	TwitchOAuthToken  string
	TwitchIRCAddr     string

	// Case opening
	Trigger        string
	CooldownWindow time.Duration

	// Storage
	SettingsPath string
	DataDir      string
	DBDsn        string

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail if Twitch creds are
// missing; the anonymous listener needs only a channel, and the authenticated sender path is
// validated separately via ValidateDispatchReady.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchChannel = os.Getenv("TWITCH_CHANNEL")
	cfg.TwitchBotUsername = os.Getenv("TWITCH_BOT_USERNAME")
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")
	cfg.TwitchIRCAddr = os.Getenv("TWITCH_IRC_ADDR")
	if cfg.TwitchIRCAddr == "" {
		cfg.TwitchIRCAddr = chat.DefaultIRCAddr
	}

	cfg.Trigger = os.Getenv("CASE_TRIGGER")
	if cfg.Trigger == "" {
		cfg.Trigger = "!open"
	}

	cfg.CooldownWindow = cooldown.DefaultWindow
	if v := os.Getenv("COOLDOWN_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid COOLDOWN_SECONDS %q: want positive integer", v)
		}
		cfg.CooldownWindow = time.Duration(secs) * time.Second
	}

	cfg.SettingsPath = os.Getenv("SETTINGS_PATH")
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = "settings.json"
	}

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	// Empty means flat-file persistence; set to select Postgres.
	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// ValidateDispatchReady checks required fields for sending authenticated chat messages.
func (c *Config) ValidateDispatchReady() error {
	if c.TwitchChannel == "" || c.TwitchBotUsername == "" || c.TwitchOAuthToken == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN")
	}
	return nil
}
