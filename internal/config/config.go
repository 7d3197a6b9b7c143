// Package config loads the optional YAML config file tuning scraping and
// enrichment behavior. Flags and env vars override anything set here.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScrapeConfig tunes the page fetcher and contact page selection.
type ScrapeConfig struct {
	UserAgent       string `yaml:"user_agent"`
	Timeout         string `yaml:"timeout"`
	MaxContactPages int    `yaml:"max_contact_pages"`
	MaxTextBytes    int    `yaml:"max_text_bytes"`
}

// EnrichConfig tunes the enrichment sequence.
type EnrichConfig struct {
	SocialFallbackTrigger string `yaml:"social_fallback_trigger"`
}

// FileConfig represents the structure of the config file.
type FileConfig struct {
	Scrape ScrapeConfig `yaml:"scrape"`
	Enrich EnrichConfig `yaml:"enrich"`
}

// Load loads configuration from the given path. Returns nil if the file
// doesn't exist (not an error). Returns error if the file exists but cannot
// be parsed.
func Load(path string) (*FileConfig, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *FileConfig) validate() error {
	if c.Scrape.Timeout != "" {
		if _, err := time.ParseDuration(c.Scrape.Timeout); err != nil {
			return fmt.Errorf("invalid scrape.timeout: %w", err)
		}
	}
	switch c.Enrich.SocialFallbackTrigger {
	case "", "emails", "emails_and_phones":
	default:
		return fmt.Errorf("invalid enrich.social_fallback_trigger %q (want emails or emails_and_phones)", c.Enrich.SocialFallbackTrigger)
	}
	return nil
}

// ScrapeTimeout returns the parsed scrape timeout, or zero when unset.
func (c *FileConfig) ScrapeTimeout() time.Duration {
	if c == nil || c.Scrape.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Scrape.Timeout)
	if err != nil {
		return 0
	}
	return d
}
