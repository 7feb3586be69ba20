package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/config"
)

type sweeperConfig struct {
	Schedule string        `env:"TEST_SWEEP_SCHEDULE" envDefault:"@every 1m"`
	Window   time.Duration `env:"TEST_SWEEP_WINDOW" envDefault:"72h"`
	Enabled  bool          `env:"TEST_SWEEP_ENABLED" envDefault:"true"`
}

type gatewayConfig struct {
	Provider string   `env:"TEST_GATEWAY_PROVIDER" envDefault:"local"`
	Currency []string `env:"TEST_GATEWAY_CURRENCIES" envSeparator:","`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE"`
}

type requiredConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET,required"`
}

type fileConfig struct {
	Token  string `env:"TEST_FILE_TOKEN"`
	Region string `env:"TEST_FILE_REGION"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.ResetCache()

		var cfg sweeperConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "@every 1m", cfg.Schedule)
		assert.Equal(t, 72*time.Hour, cfg.Window)
		assert.True(t, cfg.Enabled)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_GATEWAY_PROVIDER", "stripe")
		t.Setenv("TEST_GATEWAY_CURRENCIES", "RUB,EUR")

		var cfg gatewayConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "stripe", cfg.Provider)
		assert.Equal(t, []string{"RUB", "EUR"}, cfg.Currency)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_CACHED_VALUE", "first")

		var first cachedConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("TEST_CACHED_VALUE", "second")

		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)

		config.ResetCache()
		var third cachedConfig
		require.NoError(t, config.Load(&third))
		assert.Equal(t, "second", third.Value)
	})

	t.Run("missing required", func(t *testing.T) {
		config.ResetCache()
		os.Unsetenv("TEST_REQUIRED_SECRET")

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)

		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *sweeperConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	override := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(base, []byte("TEST_FILE_TOKEN=base-token\nTEST_FILE_REGION=eu\n"), 0o600))
	require.NoError(t, os.WriteFile(override, []byte("TEST_FILE_TOKEN=local-token\n"), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("TEST_FILE_TOKEN")
		os.Unsetenv("TEST_FILE_REGION")
	})
	os.Unsetenv("TEST_FILE_TOKEN")
	os.Unsetenv("TEST_FILE_REGION")
	config.ResetCache()

	require.NoError(t, config.LoadEnv(override, base))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "local-token", cfg.Token)
	assert.Equal(t, "eu", cfg.Region)

	err := config.LoadEnv(filepath.Join(dir, "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv(filepath.Join(dir, "missing.env")) })
}
