package enrich

import (
	"context"

	"github.com/leadsmith/leadsmith/internal/lead"
	"github.com/leadsmith/leadsmith/internal/scrape"
)

// PageFetcher retrieves one candidate page. scrape.Fetcher is the production
// implementation; tests substitute canned results.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string, rank int) scrape.PageResult
}

// StructuredExtractor asks a model to read the scraped page text and pull
// out contacts the pattern matcher misses (obfuscated emails, prose-embedded
// staff lists). It is optional; a nil extractor skips the step.
type StructuredExtractor interface {
	ExtractContacts(ctx context.Context, seed lead.BusinessSeed, pageText string) (lead.ContactSignals, error)
}

// Social fallback triggers. The fallback query fires only while the chosen
// condition is still unmet after the primary search.
const (
	TriggerEmails          = "emails"
	TriggerEmailsAndPhones = "emails_and_phones"
)

type Config struct {
	// MaxContactPages caps catalog paths tried per site, in addition to the
	// site root. Zero means the default.
	MaxContactPages int

	// SocialFallbackTrigger selects when the social-platform search query
	// fires: TriggerEmails (default) fires while no email has been found,
	// TriggerEmailsAndPhones only while neither an email nor a phone has.
	SocialFallbackTrigger string
}

// RetryableError is returned by the engine when a transient backend failure
// occurred before any signal was gathered. It unwraps to the backend's
// transient error so worker pools retry it; Floor is the record to emit if no
// retry succeeds, preserving the attempt's page and source counters.
type RetryableError struct {
	Floor lead.Record
	Err   error
}

func (e *RetryableError) Error() string {
	if e == nil || e.Err == nil {
		return "enrichment failed"
	}
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (c Config) withDefaults() Config {
	if c.MaxContactPages <= 0 {
		c.MaxContactPages = scrape.DefaultMaxContactPages
	}
	if c.SocialFallbackTrigger == "" {
		c.SocialFallbackTrigger = TriggerEmails
	}
	return c
}
