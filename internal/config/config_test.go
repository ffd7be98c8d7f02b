package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "outreach.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Browser.PageLoadSecs)
	assert.Equal(t, 20, cfg.Discovery.TimeoutSecs)
	assert.Equal(t, 3, cfg.Form.MaxAttempts)
	assert.InDelta(t, 0.7, cfg.Classifier.ConfidenceThreshold, 0.001)
	assert.Equal(t, 5, cfg.Classifier.RetrainInterval)
	assert.Equal(t, "https://www.linkedin.com", cfg.LinkedIn.BaseURL)
	assert.InDelta(t, 70, cfg.LinkedIn.MinMatchScore, 0.001)
	assert.Equal(t, 50, cfg.Batch.DefaultLimit)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/outreach
log:
  level: debug
  format: console
browser:
  page_load_secs: 45
form:
  max_attempts: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 45, cfg.Browser.PageLoadSecs)
	assert.Equal(t, 2, cfg.Form.MaxAttempts)
	// Defaults still apply for unset values
	assert.Equal(t, 20, cfg.Discovery.TimeoutSecs)
}

func TestTimeoutAccessors(t *testing.T) {
	assert.Equal(t, 30*time.Second, BrowserConfig{}.PageLoadTimeout())
	assert.Equal(t, 10*time.Second, BrowserConfig{PageLoadSecs: 10}.PageLoadTimeout())
	assert.Equal(t, 20*time.Second, DiscoveryConfig{}.Timeout())
	assert.Equal(t, 3*time.Second, FormConfig{}.ResultPoll())
	assert.Equal(t, 10*time.Second, LinkedInConfig{}.LoginTimeout())
	assert.Equal(t, 5*time.Second, LinkedInConfig{}.PageTimeout())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
