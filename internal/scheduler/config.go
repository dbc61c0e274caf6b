package scheduler

import "time"

// Config controls the billing loop interval and per-run timeout.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	RunTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		RunInterval: time.Hour,
		RunTimeout:  2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}

func ProvideConfig() Config {
	return DefaultConfig()
}
