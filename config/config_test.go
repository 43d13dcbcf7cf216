package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadTunables(t *testing.T) {
	cfg := Default()
	cfg.PushRetries = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.FilenameWorkers = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RequestTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ConnectTimeout = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().PushRetries, cfg.PushRetries)
	assert.Equal(t, Default().FilenameWorkers, cfg.FilenameWorkers)
}
