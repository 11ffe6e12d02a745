package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SNAP_TOLERANCE", "15")
	t.Setenv("PERSIST_REDIS", "true")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Port)
	assert.Equal(t, 2.0, c.HitTolerance)
	assert.Equal(t, 15.0, c.SnapTolerance)
	assert.True(t, c.PersistRedis)
	assert.False(t, c.PersistPostgres)
	assert.Equal(t, "info", c.LogLevel)
}
