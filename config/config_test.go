package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[ServiceMode]bool
		wantErr bool
	}{
		{
			name:  "both services",
			input: "tracker,arbiter",
			want:  map[ServiceMode]bool{ServiceModeTracker: true, ServiceModeArbiter: true},
		},
		{
			name:  "tracker only",
			input: "tracker",
			want:  map[ServiceMode]bool{ServiceModeTracker: true},
		},
		{
			name:  "whitespace tolerated",
			input: " arbiter , tracker ",
			want:  map[ServiceMode]bool{ServiceModeTracker: true, ServiceModeArbiter: true},
		},
		{
			name:    "unknown service",
			input:   "tracker,frobnicator",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only separators",
			input:   ",,",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, "code_analysis_requested", cfg.EventLog.RequestTopic)
	assert.Equal(t, "agent_results", cfg.EventLog.ResultTopic)
	assert.Equal(t, "release_decisions", cfg.EventLog.DecisionTopic)
	assert.Equal(t, 10, cfg.EventLog.BatchSize)

	assert.True(t, cfg.IsTrackerEnabled())
	assert.True(t, cfg.IsArbiterEnabled())

	assert.Equal(t, []string{"security", "intent", "performance", "test", "diff"}, cfg.Arbiter.ExpectedReporters)
	assert.Equal(t, []string{"security", "intent"}, cfg.Arbiter.BlockingAuthorities)
	assert.InDelta(t, 0.35, cfg.Arbiter.Weights["security"], 1e-9)
	assert.InDelta(t, 0.10, cfg.Arbiter.Weights["diff"], 1e-9)
	assert.Equal(t, 10*time.Minute, cfg.Arbiter.WaitTimeout)
}

func TestEventLogConfigSanitizeGuardrails(t *testing.T) {
	cfg := EventLogConfig{
		BatchSize:         0,
		BlockTimeout:      time.Millisecond,
		VisibilityTimeout: time.Second,
		ReclaimInterval:   time.Millisecond,
	}
	cfg.Sanitize()

	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BlockTimeout)
	assert.Equal(t, 10*time.Second, cfg.VisibilityTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReclaimInterval)
}

func TestArbiterConfigSanitizeGuardrails(t *testing.T) {
	cfg := ArbiterConfig{
		Group:         "  ",
		Concurrency:   -1,
		WaitTimeout:   time.Second,
		SweepInterval: time.Millisecond,
		Weights:       map[string]float64{"security": -0.5, "intent": 0.25},
	}
	cfg.Sanitize()

	assert.Equal(t, "arbiter", cfg.Group)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, time.Minute, cfg.WaitTimeout)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.Zero(t, cfg.Weights["security"])
	assert.InDelta(t, 0.25, cfg.Weights["intent"], 1e-9)
}

func TestTrackerConfigSanitizeGuardrails(t *testing.T) {
	cfg := TrackerConfig{Group: "", Concurrency: 0}
	cfg.Sanitize()

	assert.Equal(t, "tracker", cfg.Group)
	assert.Equal(t, 1, cfg.Concurrency)
}
