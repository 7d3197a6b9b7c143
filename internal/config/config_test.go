package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leadsmith.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileIsNil(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EmptyPathIsNil(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_ParsesFields(t *testing.T) {
	path := writeConfig(t, `
scrape:
  user_agent: "TestAgent/1.0"
  timeout: 20s
  max_contact_pages: 3
  max_text_bytes: 16384
enrich:
  social_fallback_trigger: emails_and_phones
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "TestAgent/1.0", cfg.Scrape.UserAgent)
	assert.Equal(t, 20*time.Second, cfg.ScrapeTimeout())
	assert.Equal(t, 3, cfg.Scrape.MaxContactPages)
	assert.Equal(t, 16384, cfg.Scrape.MaxTextBytes)
	assert.Equal(t, "emails_and_phones", cfg.Enrich.SocialFallbackTrigger)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	path := writeConfig(t, "scrape:\n  timeout: banana\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape.timeout")
}

func TestLoad_InvalidTrigger(t *testing.T) {
	path := writeConfig(t, "enrich:\n  social_fallback_trigger: whenever\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "social_fallback_trigger")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "scrape: [not a mapping\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestScrapeTimeout_NilConfig(t *testing.T) {
	var cfg *FileConfig
	assert.Equal(t, time.Duration(0), cfg.ScrapeTimeout())
}
