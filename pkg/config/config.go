package config

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilPointer is returned when a nil pointer is provided to Load.
	ErrNilPointer = errors.New("config: nil pointer provided to loader")

	// ErrParsingConfig is returned when environment variables cannot be
	// parsed into the config struct.
	ErrParsingConfig = errors.New("config: failed to parse environment variables")
)

var dotenvOnce sync.Once

// Load populates cfg from environment variables based on `env` struct tags.
// A .env file in the working directory is loaded once per process before the
// first parse; a missing file is not an error.
//
// Example:
//
//	type SessionConfig struct {
//		TTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`
//	}
//
//	var cfg SessionConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is a development convenience only.
		_ = godotenv.Load()
	})

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration the
// process cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
