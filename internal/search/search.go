// Package search defines the web lookup contract used to enrich businesses
// whose own pages yielded nothing. Implementations live in subpackages.
package search

import "context"

// Result is the text haul from one query.
type Result struct {
	// Snippets is the synthesized or quoted text returned for the query.
	Snippets string
	// Sources are the URLs the snippets were grounded on, when known.
	Sources []string
}

// Searcher runs one query against a web search backend. Implementations
// should return core.TransientError (or a type satisfying its contract) for
// retryable failures so the worker pool can back off and retry.
type Searcher interface {
	Search(ctx context.Context, query string) (Result, error)
}

// PrimaryQuery targets the business's own email and contact mentions.
func PrimaryQuery(name, city, state string) string {
	q := `"` + name + `" email contact`
	if city != "" {
		q += " " + city
	}
	if state != "" {
		q += " " + state
	}
	return q
}

// SocialQuery is the fallback: restrict to the major social platforms, where
// small businesses often publish an email they keep off their site.
func SocialQuery(name string) string {
	return `site:facebook.com OR site:instagram.com OR site:linkedin.com "` + name + `" email`
}
