package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-railwatch/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "https://pass.rw.by", cfg.RailBaseURL)
	require.Equal(t, "Europe/Minsk", cfg.Timezone)
	require.Equal(t, 5*time.Minute, cfg.PollInterval)
	require.Equal(t, 0.25, cfg.PollJitter)
	require.Equal(t, 8, cfg.FailureCeiling)
	require.Equal(t, 3, cfg.MaxSearchesPerUser)
	require.Equal(t, 7*time.Second, cfg.ProbeTimeout)
	require.Equal(t, 5*time.Second, cfg.QuiesceTimeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "Europe/Minsk", loc.String())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("POLL_INTERVAL", "90s")
	t.Setenv("POLL_JITTER", "0.5")
	t.Setenv("MAX_SEARCHES_PER_USER", "10")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, 90*time.Second, cfg.PollInterval)
	require.Equal(t, 0.5, cfg.PollJitter)
	require.Equal(t, 10, cfg.MaxSearchesPerUser)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"POLL_INTERVAL", "five minutes"},
		{"POLL_JITTER", "lots"},
		{"FAILURE_CEILING", "8.5"},
		{"QUIESCE_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.key)
		})
	}
}
