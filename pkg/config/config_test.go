package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authsvc/pkg/config"
)

type testConfig struct {
	Name    string        `env:"TEST_CFG_NAME" envDefault:"fallback"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"5s"`
	Items   []string      `env:"TEST_CFG_ITEMS" envSeparator:","`
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_REQUIRED_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when env is unset", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "fallback", cfg.Name)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Empty(t, cfg.Items)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("TEST_CFG_NAME", "from-env")
		t.Setenv("TEST_CFG_TIMEOUT", "250ms")
		t.Setenv("TEST_CFG_ITEMS", "a,b,c")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "from-env", cfg.Name)
		assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
		assert.Equal(t, []string{"a", "b", "c"}, cfg.Items)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer is rejected", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("unparsable value fails", func(t *testing.T) {
		t.Setenv("TEST_CFG_TIMEOUT", "not-a-duration")

		var cfg testConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})

	t.Run("loads valid config", func(t *testing.T) {
		t.Setenv("TEST_CFG_NAME", "loaded")

		var cfg testConfig
		assert.NotPanics(t, func() { config.MustLoad(&cfg) })
		assert.Equal(t, "loaded", cfg.Name)
	})
}
