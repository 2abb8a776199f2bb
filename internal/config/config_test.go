package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend.local/")
	t.Setenv("LATE_CUTOFF", "")

	cfg := Load()
	assert.Equal(t, "http://backend.local", cfg.APIBaseURL)
	assert.Equal(t, "09:00", cfg.LateCutoff)
	assert.Equal(t, 3*time.Second, cfg.NotifyDismiss)
}

func TestEnvParsers(t *testing.T) {
	t.Setenv("X_DUR", "bogus")
	t.Setenv("X_INT", "42")
	t.Setenv("X_BOOL", "0")
	t.Setenv("X_LIST", " a, ,b ")

	assert.Equal(t, time.Minute, durationEnv("X_DUR", time.Minute))
	assert.Equal(t, 42, intEnv("X_INT", 1))
	assert.False(t, boolEnv("X_BOOL", true))
	assert.Equal(t, []string{"a", "b"}, listEnv("X_LIST", nil))
}

func TestLocationFallback(t *testing.T) {
	cfg := App{Timezone: "Nowhere/Invalid"}
	assert.Equal(t, time.UTC, cfg.Location())
}
