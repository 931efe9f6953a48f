package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeTracker runs the lifecycle tracker consumers.
	ServiceModeTracker ServiceMode = "tracker"
	// ServiceModeArbiter runs the arbitration engine consumers and sweeper.
	ServiceModeArbiter ServiceMode = "arbiter"
)

// ParseServices parses a comma-delimited string of service names and returns
// the enabled services. It validates that all service names are valid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeTracker, ServiceModeArbiter:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: tracker, arbiter)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// EventLogConfig contains event log topic and delivery configuration.
type EventLogConfig struct {
	// RequestTopic carries analysis-requested events to the workers.
	RequestTopic string `env:"LOG_REQUEST_TOPIC" envDefault:"code_analysis_requested"`

	// ResultTopic carries reporter result events.
	ResultTopic string `env:"LOG_RESULT_TOPIC" envDefault:"agent_results"`

	// DecisionTopic carries release decision events.
	DecisionTopic string `env:"LOG_DECISION_TOPIC" envDefault:"release_decisions"`

	// BatchSize is the maximum number of entries fetched per read.
	BatchSize int `env:"LOG_BATCH_SIZE" envDefault:"10"`

	// BlockTimeout is how long a read blocks when no entries are available.
	BlockTimeout time.Duration `env:"LOG_BLOCK_TIMEOUT" envDefault:"5s"`

	// VisibilityTimeout is how long a delivered entry may stay
	// unacknowledged before it is redelivered to another group member.
	VisibilityTimeout time.Duration `env:"LOG_VISIBILITY_TIMEOUT" envDefault:"5m"`

	// ReclaimInterval is how often each runner scans for idle entries to reclaim.
	ReclaimInterval time.Duration `env:"LOG_RECLAIM_INTERVAL" envDefault:"30s"`
}

// Sanitize applies guardrails to event log configuration values.
func (c *EventLogConfig) Sanitize() {
	if c.BatchSize < 1 {
		c.BatchSize = 1
	}
	if c.BlockTimeout < time.Second {
		c.BlockTimeout = time.Second
	}
	if c.VisibilityTimeout < 10*time.Second {
		c.VisibilityTimeout = 10 * time.Second
	}
	if c.ReclaimInterval < 5*time.Second {
		c.ReclaimInterval = 5 * time.Second
	}
}

// TrackerConfig contains lifecycle tracker service configuration.
type TrackerConfig struct {
	// Group is the consumer group name; all tracker instances share it.
	Group string `env:"TRACKER_GROUP" envDefault:"tracker"`

	// Concurrency is the number of worker goroutines per topic.
	Concurrency int `env:"TRACKER_CONCURRENCY" envDefault:"2"`
}

// Sanitize applies guardrails to tracker configuration values.
func (c *TrackerConfig) Sanitize() {
	if strings.TrimSpace(c.Group) == "" {
		c.Group = "tracker"
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
}

// ArbiterConfig contains arbitration engine configuration. The expected
// reporter set, weights, and blocking authorities are injected here rather
// than hard-coded, so adding a reporter type is a config change.
type ArbiterConfig struct {
	// Group is the consumer group name; all arbiter instances share it.
	Group string `env:"ARBITER_GROUP" envDefault:"arbiter"`

	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"ARBITER_CONCURRENCY" envDefault:"2"`

	// ExpectedReporters is the set of reporter names a job waits for.
	ExpectedReporters []string `env:"ARBITER_EXPECTED_REPORTERS" envSeparator:"," envDefault:"security,intent,performance,test,diff"`

	// Weights maps reporter name to its non-negative decision weight.
	Weights map[string]float64 `env:"ARBITER_REPORTER_WEIGHTS" envSeparator:"," envKeyValSeparator:":" envDefault:"security:0.35,intent:0.25,performance:0.20,test:0.20,diff:0.10"`

	// BlockingAuthorities lists reporters whose reject verdict forces the
	// final decision to reject regardless of score.
	BlockingAuthorities []string `env:"ARBITER_BLOCKING_AUTHORITIES" envSeparator:"," envDefault:"security,intent"`

	// WaitTimeout is how long a job waits for missing reporters, measured
	// from the first result arrival.
	WaitTimeout time.Duration `env:"ARBITER_WAIT_TIMEOUT" envDefault:"10m"`

	// SweepInterval is how often the sweeper resolves timed-out jobs that
	// receive no further events.
	SweepInterval time.Duration `env:"ARBITER_SWEEP_INTERVAL" envDefault:"30s"`
}

// Sanitize applies guardrails to arbiter configuration values.
func (c *ArbiterConfig) Sanitize() {
	if strings.TrimSpace(c.Group) == "" {
		c.Group = "arbiter"
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.WaitTimeout < time.Minute {
		c.WaitTimeout = time.Minute
	}
	if c.SweepInterval < 5*time.Second {
		c.SweepInterval = 5 * time.Second
	}
	for name, w := range c.Weights {
		if w < 0 {
			c.Weights[name] = 0
		}
	}
}
