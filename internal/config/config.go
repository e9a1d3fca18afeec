package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the tgstream bridge binaries.
type Config struct {
	Telegram TelegramConfig `toml:"telegram"`
	Delivery DeliveryConfig `toml:"delivery"`
	Webhook  WebhookConfig  `toml:"webhook"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Security SecurityConfig `toml:"security"`
}

type TelegramConfig struct {
	Token   string `toml:"token"`
	APIBase string `toml:"api_base"`
}

type DeliveryConfig struct {
	Mode           string   `toml:"mode"` // "polling" or "webhook"
	PollInterval   int      `toml:"poll_interval"`
	Limit          int      `toml:"limit"`
	Timeout        int      `toml:"timeout"` // long-poll seconds
	AllowedUpdates []string `toml:"allowed_updates"`
}

type WebhookConfig struct {
	Addr        string `toml:"addr"`
	Path        string `toml:"path"`
	PublicURL   string `toml:"public_url"`
	SecretToken string `toml:"secret_token"`
	UseFunnel   bool   `toml:"use_funnel"` // expose via tailscale funnel
}

type GatewayConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

type SecurityConfig struct {
	Mode         string  `toml:"mode"` // "open" or "allowlist"
	AllowedUsers []int64 `toml:"allowed_users"`
	RateLimit    int     `toml:"rate_limit"`  // messages per window, 0 disables
	RateWindow   int     `toml:"rate_window"` // seconds
}

func defaults() Config {
	return Config{
		Delivery: DeliveryConfig{
			Mode:         "polling",
			PollInterval: 2,
			Limit:        100,
		},
		Webhook: WebhookConfig{
			Addr: ":18791",
			Path: "/",
		},
		Security: SecurityConfig{
			Mode:       "open",
			RateWindow: 60,
		},
	}
}

// Load reads configuration from the TOML config file (if it exists) and
// applies environment variable overrides. Env vars always win.
//
// Config file resolution: TGSTREAM_CONFIG env var → ~/.config/tgstream/config.toml → skip.
func Load() (*Config, error) {
	cfg := defaults()

	path := configPath()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func configPath() string {
	if p := os.Getenv("TGSTREAM_CONFIG"); p != "" {
		return expandHome(p)
	}
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "tgstream", "config.toml")
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TGSTREAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TGSTREAM_API_BASE"); v != "" {
		cfg.Telegram.APIBase = v
	}

	if v := os.Getenv("TGSTREAM_MODE"); v != "" {
		cfg.Delivery.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("TGSTREAM_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Delivery.PollInterval = n
		}
	}
	if v := os.Getenv("TGSTREAM_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Delivery.Limit = n
		}
	}
	if v := os.Getenv("TGSTREAM_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Delivery.Timeout = n
		}
	}
	if v := os.Getenv("TGSTREAM_ALLOWED_UPDATES"); v != "" {
		cfg.Delivery.AllowedUpdates = splitList(v)
	}

	if v := os.Getenv("TGSTREAM_WEBHOOK_ADDR"); v != "" {
		cfg.Webhook.Addr = v
	}
	if v := os.Getenv("TGSTREAM_WEBHOOK_PATH"); v != "" {
		cfg.Webhook.Path = v
	}
	if v := os.Getenv("TGSTREAM_WEBHOOK_PUBLIC_URL"); v != "" {
		cfg.Webhook.PublicURL = v
	}
	if v := os.Getenv("TGSTREAM_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.SecretToken = v
	}
	if v := os.Getenv("TGSTREAM_WEBHOOK_FUNNEL"); v != "" {
		cfg.Webhook.UseFunnel = v == "1" || strings.EqualFold(v, "true")
	}

	if v := os.Getenv("TGSTREAM_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("TGSTREAM_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Token = v
	}

	if v := os.Getenv("TGSTREAM_SECURITY_MODE"); v != "" {
		cfg.Security.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("TGSTREAM_ALLOWED_USERS"); v != "" {
		cfg.Security.AllowedUsers = splitIDList(v)
	}
	if v := os.Getenv("TGSTREAM_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.RateLimit = n
		}
	}
	if v := os.Getenv("TGSTREAM_RATE_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.RateWindow = n
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitIDList(v string) []int64 {
	parts := strings.Split(v, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			if id, err := strconv.ParseInt(p, 10, 64); err == nil {
				out = append(out, id)
			}
		}
	}
	return out
}

// Validate checks required fields and floors out-of-range values. A poll
// interval below one second would hammer the API, so it falls back to the
// default; the updates limit is clamped to the API's 1..100 range.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token must be set (TGSTREAM_TOKEN)")
	}

	mode := strings.ToLower(c.Delivery.Mode)
	switch mode {
	case "polling", "webhook":
		c.Delivery.Mode = mode
	default:
		c.Delivery.Mode = "polling"
	}

	if c.Delivery.PollInterval < 1 {
		c.Delivery.PollInterval = 2
	}
	if c.Delivery.Limit < 1 || c.Delivery.Limit > 100 {
		c.Delivery.Limit = 100
	}
	if c.Delivery.Timeout < 0 {
		c.Delivery.Timeout = 0
	}

	if c.Webhook.Path == "" {
		c.Webhook.Path = "/"
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		c.Webhook.Path = "/" + c.Webhook.Path
	}

	secMode := strings.ToLower(c.Security.Mode)
	switch secMode {
	case "open", "allowlist":
		c.Security.Mode = secMode
	default:
		c.Security.Mode = "open"
	}
	if c.Security.RateWindow < 1 {
		c.Security.RateWindow = 60
	}

	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
