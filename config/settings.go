// Package config provides configuration loading and validation for the
// handler framework: log level, post-finalize replacement policy, and the
// reporting backend wiring.
package config

import (
	"fmt"

	liberrors "github.com/lukaszraczylo/handlerswap/internal/errors"
)

// Post-finalize replacement policies.
const (
	PolicyIgnore = "ignore"
	PolicyLog    = "log"
	PolicyPanic  = "panic"
)

// Report sink kinds.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
)

// Settings is the top-level framework configuration.
type Settings struct {
	// LogLevel is one of debug, info, error, none.
	LogLevel string `yaml:"logLevel" json:"logLevel"`

	// PostFinalizePolicy selects what happens when a handler replacement is
	// attempted after the registry has been finalized.
	PostFinalizePolicy string `yaml:"postFinalizePolicy" json:"postFinalizePolicy"`

	// Reporting configures the default error-reporting backend.
	Reporting ReportingSettings `yaml:"reporting" json:"reporting"`
}

// ReportingSettings configures the report sink.
type ReportingSettings struct {
	// Sink is "log" or "redis".
	Sink string `yaml:"sink" json:"sink"`

	// Redis configures the redis sink; ignored for other sinks.
	Redis RedisSettings `yaml:"redis" json:"redis"`

	// RatePerSecond throttles report delivery; 0 disables throttling.
	RatePerSecond float64 `yaml:"ratePerSecond" json:"ratePerSecond"`

	// Burst is the throttle burst size; defaults to 1 when throttling is on.
	Burst int `yaml:"burst" json:"burst"`
}

// RedisSettings holds the redis sink connection options.
type RedisSettings struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"keyPrefix" json:"keyPrefix"`
	// MaxQueued caps the report list length; older entries are trimmed.
	MaxQueued int64 `yaml:"maxQueued" json:"maxQueued"`
}

// NewSettings returns the default configuration.
func NewSettings() *Settings {
	return &Settings{
		LogLevel:           "info",
		PostFinalizePolicy: PolicyLog,
		Reporting: ReportingSettings{
			Sink: SinkLog,
			Redis: RedisSettings{
				KeyPrefix: "handlerswap:reports",
				MaxQueued: 10000,
			},
		},
	}
}

// Validate checks the configuration for consistency.
func (s *Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "error", "none":
	default:
		return liberrors.NewConfigError("invalid log level", s.LogLevel)
	}

	switch s.PostFinalizePolicy {
	case PolicyIgnore, PolicyLog, PolicyPanic:
	default:
		return liberrors.NewConfigError("invalid post-finalize policy", s.PostFinalizePolicy)
	}

	switch s.Reporting.Sink {
	case SinkLog:
	case SinkRedis:
		if s.Reporting.Redis.Addr == "" {
			return liberrors.NewConfigError("redis sink requires an address", "reporting.redis.addr")
		}
		if s.Reporting.Redis.MaxQueued <= 0 {
			return liberrors.NewConfigError("redis sink requires a positive queue cap", fmt.Sprintf("reporting.redis.maxQueued=%d", s.Reporting.Redis.MaxQueued))
		}
	default:
		return liberrors.NewConfigError("invalid report sink", s.Reporting.Sink)
	}

	if s.Reporting.RatePerSecond < 0 {
		return liberrors.NewConfigError("report rate must not be negative", fmt.Sprintf("%f", s.Reporting.RatePerSecond))
	}
	if s.Reporting.Burst < 0 {
		return liberrors.NewConfigError("report burst must not be negative", fmt.Sprintf("%d", s.Reporting.Burst))
	}

	return nil
}
