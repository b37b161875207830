package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salewatch/salewatch/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "app:\n  name: salewatch\n"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "https://www.asos.com", cfg.Crawler.BaseURL)
	assert.Equal(t, config.DefaultConcurrency, cfg.Crawler.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Crawler.RequestTimeout)
	assert.NotEmpty(t, cfg.Crawler.UserAgent)
	assert.NotEmpty(t, cfg.Crawler.Cookie)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddress)
}

func TestLoad_DefaultFeedCatalog(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "app:\n  name: salewatch\n"))
	require.NoError(t, err)

	feeds := cfg.Feeds()
	require.Len(t, feeds, 11)
	assert.Equal(t, "newBalance_footwear", feeds[0].Name)
	assert.Equal(t, "15892?attribute_10992=61388&", feeds[0].Path)
	assert.Equal(t, "drMartens", feeds[10].Name)
}

func TestLoad_ExplicitSourcesReplaceDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
sources:
  - name: custom_feed
    path: "1234?attribute_1=2&"
`))
	require.NoError(t, err)

	feeds := cfg.Feeds()
	require.Len(t, feeds, 1)
	assert.Equal(t, "custom_feed", feeds[0].Name)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	_, err := config.Load(writeConfig(t, "app:\n  environment: testing\n"))
	assert.ErrorContains(t, err, "invalid environment")
}

func TestLoad_TelegramTokenRequiresChatID(t *testing.T) {
	_, err := config.Load(writeConfig(t, "telegram:\n  token: \"123:abc\"\n"))
	assert.ErrorContains(t, err, "chat_id")
}

func TestLoad_RejectsBadSource(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
sources:
  - name: nameless
`))
	assert.ErrorContains(t, err, "name and path")
}

func TestLoad_RejectsZeroConcurrency(t *testing.T) {
	_, err := config.Load(writeConfig(t, "crawler:\n  concurrency: -1\n"))
	assert.ErrorContains(t, err, "concurrency")
}
