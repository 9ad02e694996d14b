// Package config loads server settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a string ("90s", "5m") in YAML.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration back as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds server configuration.
type Config struct {
	Addr          string   `yaml:"addr"`
	DBPath        string   `yaml:"db_path"`
	Persistence   bool     `yaml:"persistence"`
	TurnTimeLimit Duration `yaml:"turn_time_limit"`
	RoomTTL       Duration `yaml:"room_ttl"`
	FinishedGrace Duration `yaml:"finished_grace"`
	ReapInterval  Duration `yaml:"reap_interval"`

	Heartbeat struct {
		PongWait   Duration `yaml:"pong_wait"`
		PingPeriod Duration `yaml:"ping_period"`
	} `yaml:"heartbeat"`

	RateLimit struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Map struct {
		Width    int    `yaml:"width"`
		Height   int    `yaml:"height"`
		Minerals int    `yaml:"minerals"`
		Official string `yaml:"official"` // map ID used when a game names none
	} `yaml:"map"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default returns a config with default values.
func Default() *Config {
	cfg := &Config{
		Addr:          ":30000",
		DBPath:        "data/fullmetal.db",
		Persistence:   true,
		TurnTimeLimit: Duration(5 * time.Minute),
		RoomTTL:       Duration(2 * time.Hour),
		FinishedGrace: Duration(10 * time.Minute),
		ReapInterval:  Duration(time.Minute),
	}
	cfg.Heartbeat.PongWait = Duration(60 * time.Second)
	cfg.Heartbeat.PingPeriod = Duration(54 * time.Second)
	cfg.RateLimit.PerSecond = 20
	cfg.RateLimit.Burst = 40
	cfg.Map.Width = 37
	cfg.Map.Height = 23
	cfg.Map.Minerals = 90
	cfg.Log.Level = "info"
	return cfg
}

// Load reads path (if not empty) over the defaults, then applies the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables. PORT and DB_PATH
// are what hosting platforms set.
func (c *Config) applyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid PORT %q", port)
		}
		c.Addr = ":" + port
	}
	if path := getenv("DB_PATH"); path != "" {
		c.DBPath = path
	}
	if v := getenv("PERSISTENCE"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PERSISTENCE %q", v)
		}
		c.Persistence = on
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Persistence && c.DBPath == "" {
		return fmt.Errorf("db_path is required when persistence is on")
	}
	if c.TurnTimeLimit <= 0 {
		return fmt.Errorf("turn_time_limit must be positive")
	}
	if c.Heartbeat.PingPeriod >= c.Heartbeat.PongWait {
		return fmt.Errorf("heartbeat.ping_period must be shorter than pong_wait")
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit must be positive")
	}
	if c.ReapInterval <= 0 {
		return fmt.Errorf("reap_interval must be positive")
	}
	return nil
}
