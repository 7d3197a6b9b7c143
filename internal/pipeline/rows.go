// Package pipeline fans the enrichment engine out over a batch of business
// seeds and guarantees the output invariants: one record per input business,
// in input order, with the seed's own fields intact even on total failure.
package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/leadsmith/leadsmith/internal/enrich"
	"github.com/leadsmith/leadsmith/internal/lead"
	"github.com/leadsmith/leadsmith/pkg/pipeline/worker"
)

// Enricher produces the enriched record for one business.
type Enricher interface {
	Enrich(ctx context.Context, seed lead.BusinessSeed) (lead.Record, error)
}

type Options struct {
	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64
	FailFast       bool

	// Progress, when set, is called after each business completes with the
	// running completion count. Calls arrive from worker goroutines.
	Progress func(completed, total int)
}

// EnrichSeeds runs the enricher over all seeds and returns records in seed
// order. A business whose enrichment fails outright still produces a record,
// carrying its seed fields and an error status.
func EnrichSeeds(ctx context.Context, seeds []lead.BusinessSeed, enricher Enricher, opts Options) ([]lead.Record, error) {
	policy := worker.FailurePolicyPartialOutput
	if opts.FailFast {
		policy = worker.FailurePolicyFailFast
	}

	var completed atomic.Int64
	var onResult func(worker.Result[lead.BusinessSeed, lead.Record]) error
	if opts.Progress != nil {
		onResult = func(worker.Result[lead.BusinessSeed, lead.Record]) error {
			opts.Progress(int(completed.Add(1)), len(seeds))
			return nil
		}
	}

	out, err := worker.ProcessAllWithCallback(ctx, seeds, enricher.Enrich, onResult, worker.Options{
		Workers:           opts.Workers,
		MaxRetries:        opts.MaxRetries,
		RequestTimeout:    opts.RequestTimeout,
		RateLimitRPS:      opts.RateLimitRPS,
		FailurePolicy:     policy,
		BackoffInitial:    200 * time.Millisecond,
		BackoffMax:        2 * time.Second,
		BackoffJitterFrac: 0.2,
	})
	if err != nil {
		return nil, err
	}

	records := make([]lead.Record, 0, len(out))
	for _, item := range out {
		if item.Err != nil {
			records = append(records, errorRecord(item.Input, item.Err))
			continue
		}
		records = append(records, item.Output)
	}
	return records, nil
}

// errorRecord is the floor for a failed business: the engine's own floor
// record when the error carries one (keeping its attempt counters), otherwise
// seed fields only. Either way the row survives into the output.
func errorRecord(seed lead.BusinessSeed, err error) lead.Record {
	var re *enrich.RetryableError
	if errors.As(err, &re) {
		return re.Floor
	}
	return lead.Merge(seed, nil, lead.MergeMeta{
		ScrapedAt:        time.Now().UTC(),
		SourcesAttempted: 1,
		SourcesFailed:    1,
	})
}
