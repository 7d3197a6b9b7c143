// Package enrich runs the per-business enrichment sequence: scrape the site's
// contact pages, optionally ask a model to read them, and fall back to web
// search when the site yields nothing. Failures along the way degrade the
// record's status instead of failing the business.
package enrich

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/leadsmith/leadsmith/internal/extract"
	"github.com/leadsmith/leadsmith/internal/lead"
	"github.com/leadsmith/leadsmith/internal/scrape"
	"github.com/leadsmith/leadsmith/internal/search"
	"github.com/leadsmith/leadsmith/pkg/pipeline/core"
)

const (
	sourceWebSearch    = "web_search"
	sourceSocialSearch = "social_search"
	sourceStructured   = "structured_extraction"

	// maxStructuredInput caps the page text handed to the model extractor.
	maxStructuredInput = 48 * 1024
)

type Engine struct {
	fetcher    PageFetcher
	searcher   search.Searcher
	structured StructuredExtractor
	cfg        Config
	now        func() time.Time
}

// New builds an engine. searcher and structured may be nil; the engine then
// skips those stages and status reflects only what ran.
func New(fetcher PageFetcher, searcher search.Searcher, structured StructuredExtractor, cfg Config) *Engine {
	return &Engine{
		fetcher:    fetcher,
		searcher:   searcher,
		structured: structured,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

// Enrich produces the enriched record for one business. It returns an error
// only when a transient backend failure occurred before any signal was
// gathered, so a retry loses no work; every other outcome is absorbed into
// the record's enrichment_status.
func (e *Engine) Enrich(ctx context.Context, seed lead.BusinessSeed) (lead.Record, error) {
	meta := lead.MergeMeta{ScrapedAt: e.now().UTC()}
	var sources []lead.TaggedSignals
	var pageTexts []string

	for _, c := range scrape.CandidatePages(seed.Website, e.cfg.MaxContactPages) {
		if ctx.Err() != nil {
			break
		}
		res := e.fetcher.Fetch(ctx, c.URL, c.Rank)
		meta.PagesScraped++
		meta.SourcesAttempted++
		if res.Failed() {
			meta.SourcesFailed++
			continue
		}
		if res.Text != "" {
			pageTexts = append(pageTexts, res.Text)
		}
		sig := extract.Extract(res.Text, res.Links, res.URL)
		if !sig.Empty() {
			sources = append(sources, lead.TaggedSignals{Rank: c.Rank, Source: c.URL, Signals: sig})
		}
		// The catalog is ordered by likelihood; once an email surfaces,
		// further paths rarely add anything but duplicates.
		if hasEmails(sources) {
			break
		}
	}

	if e.structured != nil && len(pageTexts) > 0 && ctx.Err() == nil {
		meta.SourcesAttempted++
		sig, err := e.structured.ExtractContacts(ctx, seed, capJoin(pageTexts, maxStructuredInput))
		switch {
		case err != nil:
			meta.SourcesFailed++
		case !sig.Empty():
			sources = append(sources, lead.TaggedSignals{Rank: lead.RankStructured, Source: sourceStructured, Signals: sig})
		}
	}

	if e.searcher != nil && !hasEmails(sources) && ctx.Err() == nil {
		meta.SourcesAttempted++
		res, err := e.searcher.Search(ctx, search.PrimaryQuery(seed.Name, seed.City, seed.State))
		switch {
		case err != nil:
			meta.SourcesFailed++
			if isTransient(err) && len(sources) == 0 {
				// Nothing gathered yet, so a retry repeats no paid work. The
				// floor record keeps this attempt's counters if none succeeds.
				return lead.Record{}, &RetryableError{Floor: lead.Merge(seed, nil, meta), Err: err}
			}
		default:
			sig := extract.Extract(res.Snippets, res.Sources, sourceWebSearch)
			if !sig.Empty() {
				sources = append(sources, lead.TaggedSignals{Rank: lead.RankSearch, Source: sourceWebSearch, Signals: sig})
				meta.SearchEnriched = true
			}
		}
	}

	if e.searcher != nil && e.needsSocialFallback(sources) && ctx.Err() == nil {
		meta.SourcesAttempted++
		res, err := e.searcher.Search(ctx, search.SocialQuery(seed.Name))
		switch {
		case err != nil:
			meta.SourcesFailed++
		default:
			sig := extract.Extract(res.Snippets, res.Sources, sourceSocialSearch)
			if !sig.Empty() {
				sources = append(sources, lead.TaggedSignals{Rank: lead.RankSocialSearch, Source: sourceSocialSearch, Signals: sig})
				meta.SearchEnriched = true
			}
		}
	}

	return lead.Merge(seed, sources, meta), nil
}

func (e *Engine) needsSocialFallback(sources []lead.TaggedSignals) bool {
	switch e.cfg.SocialFallbackTrigger {
	case TriggerEmailsAndPhones:
		return !hasEmails(sources) && !hasPhones(sources)
	default:
		return !hasEmails(sources)
	}
}

func hasEmails(sources []lead.TaggedSignals) bool {
	for _, s := range sources {
		if len(s.Signals.Emails) > 0 {
			return true
		}
	}
	return false
}

func hasPhones(sources []lead.TaggedSignals) bool {
	for _, s := range sources {
		if len(s.Signals.Phones) > 0 {
			return true
		}
	}
	return false
}

func isTransient(err error) bool {
	var te *core.TransientError
	if errors.As(err, &te) {
		return true
	}
	var lte *core.LimitedTransientError
	return errors.As(err, &lte)
}

func capJoin(parts []string, max int) string {
	joined := strings.Join(parts, "\n\n")
	if len(joined) > max {
		joined = joined[:max]
	}
	return joined
}
