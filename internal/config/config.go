package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	yaml "gopkg.in/yaml.v3"

	"github.com/park285/kingcapture/internal/obslog"
)

var ErrConfigInvalid = errors.New("invalid config")

// DefaultFile is looked up under the XDG config directories when no path is given.
const DefaultFile = "kingcapture/config.yaml"

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Console bool   `yaml:"console"`
	File    string `yaml:"file"`
	Caller  bool   `yaml:"caller"`
}

type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	RedisURL      string `yaml:"redis_url"`
	ChannelPrefix string `yaml:"channel_prefix"`

	EventsWSURL      string `yaml:"events_ws_url"`
	EventsWSToken    string `yaml:"events_ws_token"`
	EventsWebhookURL string `yaml:"events_webhook_url"`
	// FeedMode selects the event transport: "ws", "http" or "auto".
	FeedMode string `yaml:"feed_mode"`

	// OpponentSide is the team the computer plays: "black", "white" or "none".
	OpponentSide     string `yaml:"opponent_side"`
	OpponentStrategy string `yaml:"opponent_strategy"`
	OpponentSeed     int64  `yaml:"opponent_seed"`

	MaxPlies    int    `yaml:"max_plies"`
	MessagesDir string `yaml:"messages_dir"`

	Log LogConfig `yaml:"log"`

	// Source is the config file that was read, empty when none was found.
	Source string `yaml:"-"`
}

func defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:       ":8080",
		ChannelPrefix:    "kingcapture",
		FeedMode:         "auto",
		OpponentSide:     "black",
		OpponentStrategy: "greedy",
		MaxPlies:         400,
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Console: true,
		},
	}
}

// Load reads defaults, then the YAML file at path (or the XDG default when path is
// empty and one exists), then environment overrides, and validates the result.
func Load(path string) (*AppConfig, error) {
	cfg := defaults()

	path = strings.TrimSpace(path)
	if path == "" {
		if found, err := xdg.SearchConfigFile(DefaultFile); err == nil {
			path = found
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) readFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrConfigInvalid, path, err)
	}
	c.Source = path
	return nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		c.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHANNEL_PREFIX")); v != "" {
		c.ChannelPrefix = v
	}
	if v := strings.TrimSpace(os.Getenv("EVENTS_WS_URL")); v != "" {
		c.EventsWSURL = v
	}
	if v := strings.TrimSpace(os.Getenv("EVENTS_WS_TOKEN")); v != "" {
		c.EventsWSToken = v
	}
	if v := strings.TrimSpace(os.Getenv("EVENTS_WEBHOOK_URL")); v != "" {
		c.EventsWebhookURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FEED_MODE")); v != "" {
		c.FeedMode = v
	}
	if v := strings.TrimSpace(os.Getenv("OPPONENT_SIDE")); v != "" {
		c.OpponentSide = v
	}
	if v := strings.TrimSpace(os.Getenv("OPPONENT_STRATEGY")); v != "" {
		c.OpponentStrategy = v
	}
	if v := strings.TrimSpace(os.Getenv("OPPONENT_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.OpponentSeed = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_PLIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxPlies = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MESSAGES_DIR")); v != "" {
		c.MessagesDir = v
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		c.Log.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
		c.Log.File = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_CONSOLE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Console = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("LOG_CALLER")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Caller = b
		}
	}
}

// Validate normalises enum-like fields and rejects values the hosts cannot use.
func (c *AppConfig) Validate() error {
	c.OpponentSide = strings.ToLower(strings.TrimSpace(c.OpponentSide))
	switch c.OpponentSide {
	case "white", "black", "none":
	case "":
		c.OpponentSide = "none"
	default:
		return fmt.Errorf("%w: opponent_side %q", ErrConfigInvalid, c.OpponentSide)
	}

	c.OpponentStrategy = strings.ToLower(strings.TrimSpace(c.OpponentStrategy))
	switch c.OpponentStrategy {
	case "random", "greedy":
	case "":
		c.OpponentStrategy = "greedy"
	default:
		return fmt.Errorf("%w: opponent_strategy %q", ErrConfigInvalid, c.OpponentStrategy)
	}

	c.FeedMode = strings.ToLower(strings.TrimSpace(c.FeedMode))
	switch c.FeedMode {
	case "auto":
	case "":
		c.FeedMode = "auto"
	case "ws":
		if c.EventsWSURL == "" {
			return fmt.Errorf("%w: feed_mode ws needs events_ws_url", ErrConfigInvalid)
		}
	case "http":
		if c.EventsWebhookURL == "" {
			return fmt.Errorf("%w: feed_mode http needs events_webhook_url", ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: feed_mode %q", ErrConfigInvalid, c.FeedMode)
	}

	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("%w: listen_addr is required", ErrConfigInvalid)
	}
	if c.MaxPlies <= 0 {
		return fmt.Errorf("%w: max_plies must be positive", ErrConfigInvalid)
	}
	if c.RedisURL != "" && strings.TrimSpace(c.ChannelPrefix) == "" {
		return fmt.Errorf("%w: channel_prefix is required with redis_url", ErrConfigInvalid)
	}
	if v := c.EventsWSURL; v != "" && !strings.HasPrefix(v, "ws://") && !strings.HasPrefix(v, "wss://") {
		return fmt.Errorf("%w: events_ws_url must be ws:// or wss://", ErrConfigInvalid)
	}
	if v := c.EventsWebhookURL; v != "" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		return fmt.Errorf("%w: events_webhook_url must be http:// or https://", ErrConfigInvalid)
	}
	return nil
}

func (c *AppConfig) LogOptions() obslog.Options {
	return obslog.Options{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Console: c.Log.Console,
		File:    c.Log.File,
		Caller:  c.Log.Caller,
	}
}
