package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvFallsBackToOSThenDefault(t *testing.T) {
	t.Setenv("NDAKU_TEST_KEY", "from-os")
	assert.Equal(t, "from-os", GetEnv("NDAKU_TEST_KEY", "default"))
	assert.Equal(t, "default", GetEnv("NDAKU_TEST_MISSING", "default"))
}

func TestGetEnvPrefersLoadedFileOverOS(t *testing.T) {
	values = map[string]string{"NDAKU_TEST_KEY": "from-file"}
	t.Cleanup(func() { values = nil })

	t.Setenv("NDAKU_TEST_KEY", "from-os")
	assert.Equal(t, "from-file", GetEnv("NDAKU_TEST_KEY", "default"))
}

func TestAppURLDefault(t *testing.T) {
	assert.Equal(t, "http://localhost:4000", AppURL())
}

func TestIsDev(t *testing.T) {
	assert.False(t, IsDev())
	t.Setenv("APP_ENV", "dev")
	assert.True(t, IsDev())
}
