// Package config loads environment variables and provides a typed Config used across the service.
// Every setting has a compiled-in default so the binary runs with no environment at all;
// only CHAT_PAGE_URL needs setting for the reader to join a channel.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultChatURL       = "wss://irc-ws.chat.twitch.tv/"
	DefaultHTTPAddr      = ":8080"
	DefaultScrollback    = 150
	DefaultNavPoll       = time.Second
	DefaultReconnectWait = 5 * time.Second
)

type Config struct {
	// Chat
	PageURL           string // page the overlay starts on, e.g. https://www.twitch.tv/somechannel
	ChatURL           string
	Scrollback        int
	ReconnectAttempts int
	ReconnectDelay    time.Duration

	// Navigation
	NavURLFile      string // polled for the current page URL when set
	NavPollInterval time.Duration
	NavigateToken   string // required in X-Navigate-Token for POST /navigate when set

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. Malformed numbers or
// durations are reported rather than silently replaced.
func Load() (*Config, error) {
	cfg := &Config{
		PageURL:       os.Getenv("CHAT_PAGE_URL"),
		ChatURL:       envOr("CHAT_WS_URL", DefaultChatURL),
		NavURLFile:    os.Getenv("NAV_URL_FILE"),
		NavigateToken: os.Getenv("NAVIGATE_TOKEN"),
		HTTPAddr:      envOr("HTTP_ADDR", DefaultHTTPAddr),
	}

	var err error
	if cfg.Scrollback, err = envInt("CHAT_SCROLLBACK", DefaultScrollback); err != nil {
		return nil, err
	}
	if cfg.Scrollback <= 0 {
		return nil, fmt.Errorf("invalid CHAT_SCROLLBACK: must be positive, got %d", cfg.Scrollback)
	}
	if cfg.ReconnectAttempts, err = envInt("CHAT_RECONNECT_ATTEMPTS", 0); err != nil {
		return nil, err
	}
	if cfg.ReconnectAttempts < 0 {
		return nil, fmt.Errorf("invalid CHAT_RECONNECT_ATTEMPTS: must not be negative, got %d", cfg.ReconnectAttempts)
	}
	if cfg.ReconnectDelay, err = envDuration("CHAT_RECONNECT_DELAY", DefaultReconnectWait); err != nil {
		return nil, err
	}
	if cfg.NavPollInterval, err = envDuration("NAV_POLL_INTERVAL", DefaultNavPoll); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (e.g. 5s): %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
	}
	return d, nil
}
