package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/config"
)

type testConfig struct {
	Host  string `env:"CONFIG_TEST_HOST" envDefault:"localhost"`
	Port  int    `env:"CONFIG_TEST_PORT" envDefault:"5432"`
	Debug bool   `env:"CONFIG_TEST_DEBUG" envDefault:"false"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied when env unset", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 5432, cfg.Port)
		assert.False(t, cfg.Debug)
	})

	t.Run("values read from environment", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_HOST", "db.internal")
		t.Setenv("CONFIG_TEST_PORT", "6432")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "db.internal", cfg.Host)
		assert.Equal(t, 6432, cfg.Port)
	})

	t.Run("nil pointer rejected", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoadPanicsOnError(t *testing.T) {
	type invalid struct {
		Port int `env:"CONFIG_TEST_BAD_PORT"`
	}
	t.Setenv("CONFIG_TEST_BAD_PORT", "not-a-number")

	assert.Panics(t, func() {
		var cfg invalid
		config.MustLoad(&cfg)
	})
}
