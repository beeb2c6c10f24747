package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liberrors "github.com/lukaszraczylo/handlerswap/internal/errors"
)

func TestNewSettings_DefaultsAreValid(t *testing.T) {
	settings := NewSettings()
	require.NoError(t, settings.Validate())

	assert.Equal(t, "info", settings.LogLevel)
	assert.Equal(t, PolicyLog, settings.PostFinalizePolicy)
	assert.Equal(t, SinkLog, settings.Reporting.Sink)
	assert.Equal(t, int64(10000), settings.Reporting.Redis.MaxQueued)
}

func TestSettings_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		valid  bool
	}{
		{"default", func(s *Settings) {}, true},
		{"bad log level", func(s *Settings) { s.LogLevel = "verbose" }, false},
		{"bad policy", func(s *Settings) { s.PostFinalizePolicy = "explode" }, false},
		{"bad sink", func(s *Settings) { s.Reporting.Sink = "kafka" }, false},
		{"redis without addr", func(s *Settings) { s.Reporting.Sink = SinkRedis }, false},
		{"redis with addr", func(s *Settings) {
			s.Reporting.Sink = SinkRedis
			s.Reporting.Redis.Addr = "localhost:6379"
		}, true},
		{"redis zero cap", func(s *Settings) {
			s.Reporting.Sink = SinkRedis
			s.Reporting.Redis.Addr = "localhost:6379"
			s.Reporting.Redis.MaxQueued = 0
		}, false},
		{"negative rate", func(s *Settings) { s.Reporting.RatePerSecond = -1 }, false},
		{"negative burst", func(s *Settings) { s.Reporting.Burst = -1 }, false},
		{"panic policy", func(s *Settings) { s.PostFinalizePolicy = PolicyPanic }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := NewSettings()
			tc.mutate(settings)

			err := settings.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, liberrors.HasCode(err, liberrors.ErrCodeConfigInvalid))
			}
		})
	}
}
