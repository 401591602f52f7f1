package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-leaklab/config"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvPrefix+config.EnvBatchSize, "250")
	t.Setenv(config.EnvPrefix+config.EnvRefreshInterval, "250ms")
	t.Setenv(config.EnvPrefix+config.EnvMessage, "hi there")
	t.Setenv(config.EnvPrefix+config.EnvEnableWatchdog, "yes")
	t.Setenv(config.EnvPrefix+config.EnvHeapLimit, "1048576")
	t.Setenv(config.EnvPrefix+config.EnvIntrospectAddr, "127.0.0.1:7070")
	t.Setenv(config.EnvPrefix+config.EnvLogLevel, "DEBUG")
	t.Setenv(config.EnvPrefix+config.EnvLogFormat, "json")

	cfg := config.NewConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 250, cfg.Demo.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Demo.RefreshInterval.Duration())
	assert.Equal(t, "hi there", cfg.Demo.Message)
	assert.True(t, cfg.Collection.EnableWatchdog)
	assert.EqualValues(t, 1<<20, cfg.Collection.HeapLimit)
	assert.True(t, cfg.Diagnostics.EnableIntrospect)
	assert.Equal(t, "127.0.0.1:7070", cfg.Diagnostics.IntrospectAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv(config.EnvPrefix+config.EnvBatchSize, "-3")
	t.Setenv(config.EnvPrefix+config.EnvRefreshInterval, "soon")
	t.Setenv(config.EnvPrefix+config.EnvHeapLimit, "lots")

	cfg := config.NewConfig()
	applyEnvOverrides(cfg)

	defaults := config.NewConfig()
	assert.Equal(t, defaults.Demo.BatchSize, cfg.Demo.BatchSize)
	assert.Equal(t, defaults.Demo.RefreshInterval, cfg.Demo.RefreshInterval)
	assert.Zero(t, cfg.Collection.HeapLimit)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", " 1 ", "yes", "on"} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"", "false", "0", "off", "nope"} {
		assert.False(t, parseBool(s), s)
	}
}

func TestScenario_KeepRunning(t *testing.T) {
	assert.False(t, scenario{}.keepRunning())
	assert.True(t, scenario{linger: time.Second}.keepRunning())
	assert.True(t, scenario{serve: true}.keepRunning())
}
