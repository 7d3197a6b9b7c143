package app

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/leadsmith/leadsmith/internal/lead"
	"github.com/leadsmith/leadsmith/internal/pipeline"
	"github.com/leadsmith/leadsmith/pkg/pipeline/core"
	"github.com/leadsmith/leadsmith/pkg/pipeline/redact"
)

// tracedEnricher logs every per-business attempt with its outcome, keeping
// run logs detailed enough to reconstruct retry behavior after the fact.
type tracedEnricher struct {
	next           pipeline.Enricher
	logger         *log.Logger
	runID          string
	maxRetries     int
	requestTimeout time.Duration

	mu       sync.Mutex
	attempts map[string]int
}

func newTracedEnricher(next pipeline.Enricher, logger *log.Logger, runID string, opts pipeline.Options) *tracedEnricher {
	return &tracedEnricher{
		next:           next,
		logger:         logger,
		runID:          runID,
		maxRetries:     opts.MaxRetries,
		requestTimeout: opts.RequestTimeout,
		attempts:       make(map[string]int),
	}
}

func (t *tracedEnricher) Enrich(ctx context.Context, seed lead.BusinessSeed) (lead.Record, error) {
	id := seed.LeadID()
	attempt := t.nextAttempt(id)

	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.Printf(
		"run=%s enrich request: lead=%s business=%q website=%q attempt=%d timeout=%s deadlineIn=%s",
		t.runID, id, seed.Name, seed.Website, attempt, t.requestTimeout, deadlineIn,
	)

	start := time.Now()
	rec, err := t.next.Enrich(ctx, seed)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		maxRetries := maxRetryBudgetForErr(t.maxRetries, err)
		retryable := isRetryableError(err)
		willRetry := retryable && attempt <= maxRetries
		t.logger.Printf(
			"run=%s enrich response: lead=%s attempt=%d duration=%s status=error retryable=%t willRetry=%t maxExtraRetries=%d error=%q",
			t.runID, id, attempt, elapsed, retryable, willRetry, maxRetries, redact.Secrets(err.Error()),
		)
		return rec, err
	}

	t.logger.Printf(
		"run=%s enrich response: lead=%s attempt=%d duration=%s status=%s pagesScraped=%d searchEnriched=%t emails=%q",
		t.runID, id, attempt, elapsed, rec.EnrichmentStatus, rec.PagesScraped, rec.SearchEnriched, rec.Emails,
	)
	return rec, nil
}

func (t *tracedEnricher) nextAttempt(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[id]++
	return t.attempts[id]
}

type retryCap interface {
	MaxExtraRetries() int
}

func maxRetryBudgetForErr(defaultMax int, err error) int {
	if defaultMax < 0 {
		defaultMax = 0
	}
	var capErr retryCap
	if errors.As(err, &capErr) {
		capMax := capErr.MaxExtraRetries()
		if capMax < 0 {
			capMax = 0
		}
		if capMax < defaultMax {
			return capMax
		}
	}
	return defaultMax
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var transientErr *core.TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var limitedTransientErr *core.LimitedTransientError
	if errors.As(err, &limitedTransientErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || netErr.Temporary()
	}
	return false
}
