package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/logger"
)

func TestInventoryConfig_Parse(t *testing.T) {
	cfg := InventoryConfig{Spec: "vip:16, standard:128"}

	specs, err := cfg.Parse()

	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, CategorySpec{Category: "vip", Count: 16}, specs[0])
	assert.Equal(t, CategorySpec{Category: "standard", Count: 128}, specs[1])
}

func TestInventoryConfig_Parse_Empty(t *testing.T) {
	specs, err := InventoryConfig{}.Parse()

	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestInventoryConfig_Parse_Invalid(t *testing.T) {
	for _, spec := range []string{"vip", "vip:", "vip:zero", "vip:-1", ":5"} {
		_, err := InventoryConfig{Spec: spec}.Parse()
		assert.Error(t, err, "spec %q should not parse", spec)
	}
}

func TestLoggerConfig_LogLevel(t *testing.T) {
	assert.Equal(t, logger.DebugLevel, LoggerConfig{Level: "debug"}.LogLevel())
	assert.Equal(t, logger.WarnLevel, LoggerConfig{Level: "warn"}.LogLevel())
	assert.Equal(t, logger.ErrorLevel, LoggerConfig{Level: "error"}.LogLevel())
	assert.Equal(t, logger.InfoLevel, LoggerConfig{Level: "info"}.LogLevel())
	assert.Equal(t, logger.InfoLevel, LoggerConfig{Level: ""}.LogLevel())
}
