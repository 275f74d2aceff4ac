package session

import "time"

// Config holds session lifecycle settings.
type Config struct {
	// TTL is the fixed lifetime of an issued session.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// SweepInterval is the period of the expired-session reaper. Sweeps are
	// aligned to wall-clock multiples of the interval.
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`
}

// DefaultConfig returns default session configuration: 7-day sessions swept
// hourly.
func DefaultConfig() Config {
	return Config{
		TTL:           7 * 24 * time.Hour,
		SweepInterval: time.Hour,
	}
}
