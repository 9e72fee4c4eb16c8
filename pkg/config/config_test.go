package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CD_TEST_INT", "42")
	t.Setenv("CD_TEST_BAD_INT", "x")
	t.Setenv("CD_TEST_BOOL", "on")
	t.Setenv("CD_TEST_DUR", "90s")

	assert.Equal(t, 42, EnvIntDefault("CD_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CD_TEST_BAD_INT", 1))
	assert.True(t, EnvBool("CD_TEST_BOOL", false))
	assert.True(t, EnvBool("CD_TEST_MISSING", true))
	assert.Equal(t, 90*time.Second, EnvDuration("CD_TEST_DUR", time.Second))
	assert.Equal(t, "def", EnvDefault("CD_TEST_MISSING", "def"))
}

func TestRequire(t *testing.T) {
	require.Error(t, RequireNonEmpty("", "X"))
	require.NoError(t, RequireNonEmpty("v", "X"))
	require.Error(t, RequireMinBytes([]byte("short"), 32, "JWT_SECRET"))
	require.NoError(t, RequireMinBytes(make([]byte, 32), 32, "JWT_SECRET"))
}
