package commands

import (
	"time"

	"stagedates/internal/alert"
)

type FetchConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
	MinDelayMs     int `json:"min_delay_ms"`
	MaxDelayMs     int `json:"max_delay_ms"`
	// SkipDiscovery disables following production links on listing pages.
	SkipDiscovery bool `json:"skip_discovery"`
	// DumpDir receives a text dump of every http exchange when set.
	DumpDir string `json:"dump_dir"`
}

func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c FetchConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

func (c FetchConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}

type CacheConfig struct {
	Enabled bool `json:"enabled"`
	// Dir is where pages are kept, empty keeps them in memory.
	Dir        string `json:"dir"`
	TtlMinutes int    `json:"ttl_minutes"`
}

func (c CacheConfig) Ttl() time.Duration {
	return time.Duration(c.TtlMinutes) * time.Minute
}

type HistoryConfig struct {
	// Database is the sqlite file runs are recorded to, empty disables it.
	Database string `json:"database"`
	KeepDays int    `json:"keep_days"`
}

type DaemonConfig struct {
	// Cron is evaluated in the venue time zone.
	Cron   string `json:"cron"`
	Listen string `json:"listen"`
}

type Config struct {
	Output  string        `json:"output"`
	Fetch   FetchConfig   `json:"fetch"`
	Cache   CacheConfig   `json:"cache"`
	History HistoryConfig `json:"history"`
	Daemon  DaemonConfig  `json:"daemon"`
	// Alert mails someone when venues fail or the reduced document is
	// written, it is off unless a server and recipients are set.
	Alert alert.SmtpConfig `json:"alert"`
}

func DefaultConfig() Config {
	return Config{
		Output: "data/shows.json",
		Fetch: FetchConfig{
			TimeoutSeconds: 15,
			MinDelayMs:     1000,
			MaxDelayMs:     3000,
		},
		Cache: CacheConfig{
			Dir:        ".cache/pages",
			TtlMinutes: 30,
		},
		History: HistoryConfig{
			Database: "data/history.db",
			KeepDays: 90,
		},
		Daemon: DaemonConfig{
			Cron: "0 */6 * * *",
		},
	}
}
