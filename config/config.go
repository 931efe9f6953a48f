// Package config defines the environment-driven configuration for the
// releasegate coordination services.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config files:
//   - database.go: Postgres and Redis configuration
//   - services.go: service mode, event log, tracker, and arbiter configuration
package config

// AppConfig is the main application configuration struct.
type AppConfig struct {
	// IsDev controls development mode behavior.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Postgres configuration (job store).
	Postgres DBConfig `envPrefix:"DB_"`

	// Redis configuration (event log and aggregate store).
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Services is a comma-delimited list of enabled services.
	Services string `env:"SERVICES" envDefault:"tracker,arbiter"`

	// EventLog configuration (topics, batching, redelivery).
	EventLog EventLogConfig

	// Tracker configuration.
	Tracker TrackerConfig

	// Arbiter configuration.
	Arbiter ArbiterConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.EventLog.Sanitize()
	c.Tracker.Sanitize()
	c.Arbiter.Sanitize()
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsTrackerEnabled returns true if the lifecycle tracker service is enabled.
func (c *AppConfig) IsTrackerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeTracker]
}

// IsArbiterEnabled returns true if the arbitration engine service is enabled.
func (c *AppConfig) IsArbiterEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeArbiter]
}
