// Package app wires the enrichment run end to end: seed input, incremental
// planning against prior output, the worker pipeline, and the chosen sink
// (local CSV, SQLite store, or the remote lead API).
package app

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leadsmith/leadsmith/internal/lead"
	"github.com/leadsmith/leadsmith/internal/pipeline"
	"github.com/leadsmith/leadsmith/internal/store"
	"github.com/leadsmith/leadsmith/pkg/leadapi"
	localio "github.com/leadsmith/leadsmith/pkg/pipeline/io/local"
)

// LocalParams configures a local run. StorePath is optional; when set, the
// SQLite store both feeds the incremental plan and receives the new leads.
// SearchQuery labels output rows whose seed carries no originating query.
type LocalParams struct {
	InputPath   string
	OutputPath  string
	StorePath   string
	SearchQuery string
}

// RemoteParams configures a run against the remote lead sink.
type RemoteParams struct {
	InputPath   string
	SearchQuery string
}

// RunLocal reads a local seed CSV and writes a local output CSV of enriched
// leads, skipping businesses already enriched in a prior run.
func RunLocal(ctx context.Context, params LocalParams, opts pipeline.Options, enricher pipeline.Enricher) error {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	runID := newRunID()
	logf := runLogf(logger, runID)
	runStart := time.Now()

	seeds, err := readSeeds(params.InputPath)
	if err != nil {
		return err
	}
	applySearchQuery(seeds, params.SearchQuery)
	logf("local run start: input=%s output=%s store=%s seeds=%d workers=%d maxRetries=%d timeout=%s rateLimitRPS=%g failFast=%t",
		params.InputPath, params.OutputPath, params.StorePath,
		len(seeds), opts.Workers, opts.MaxRetries, opts.RequestTimeout, opts.RateLimitRPS, opts.FailFast)

	var st *store.Store
	if params.StorePath != "" {
		st, err = store.Open(params.StorePath)
		if err != nil {
			return err
		}
		defer func() {
			_ = st.Close()
		}()
	}

	existing, err := loadExistingLocal(seeds, st, params.OutputPath, logf)
	if err != nil {
		return err
	}

	records, err := runPlan(ctx, seeds, existing, opts, enricher, logger, runID, logf)
	if err != nil {
		return err
	}

	outF, err := os.Create(params.OutputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = outF.Close()
	}()
	if err := lead.WriteCSV(outF, records); err != nil {
		return err
	}
	if err := outF.Close(); err != nil {
		return err
	}

	if st != nil {
		added, err := st.Append(runID, records)
		if err != nil {
			return err
		}
		logf("store append: added=%d of %d", added, len(records))
	}

	logf("local run complete: leads=%d totalDuration=%s", len(records), time.Since(runStart).Round(time.Millisecond))
	return nil
}

// RunRemote reads a local seed CSV and pushes enriched leads to the remote
// lead API. The sink's existing lead IDs feed the incremental plan.
func RunRemote(ctx context.Context, env leadapi.Env, params RemoteParams, opts pipeline.Options, enricher pipeline.Enricher) error {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	runID := newRunID()
	logf := runLogf(logger, runID)
	runStart := time.Now()

	seeds, err := readSeeds(params.InputPath)
	if err != nil {
		return err
	}
	applySearchQuery(seeds, params.SearchQuery)
	logf("remote run start: input=%s sink=%s seeds=%d workers=%d maxRetries=%d timeout=%s rateLimitRPS=%g failFast=%t",
		params.InputPath, env.BaseURL,
		len(seeds), opts.Workers, opts.MaxRetries, opts.RequestTimeout, opts.RateLimitRPS, opts.FailFast)

	client, err := leadapi.NewClient(env.BaseURL, env.Token, env.DefaultCAPath)
	if err != nil {
		return err
	}

	existing, err := loadExistingRemote(ctx, client, logf)
	if err != nil {
		return err
	}

	records, err := runPlan(ctx, seeds, existing, opts, enricher, logger, runID, logf)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := lead.WriteCSV(&buf, records); err != nil {
		return err
	}
	added, err := client.AppendLeadsCSV(ctx, buf.Bytes())
	if err != nil {
		return err
	}
	logf("remote run complete: leads=%d appended=%d totalDuration=%s", len(records), added, time.Since(runStart).Round(time.Millisecond))
	return nil
}

func runPlan(
	ctx context.Context,
	seeds []lead.BusinessSeed,
	existing map[string]lead.Record,
	opts pipeline.Options,
	enricher pipeline.Enricher,
	logger *log.Logger,
	runID string,
	logf func(string, ...any),
) ([]lead.Record, error) {
	plan := buildIncrementalPlan(seeds, existing)
	logf("incremental plan: inputRows=%d cachedRows=%d rowsToEnrich=%d uniqueBusinessesToEnrich=%d",
		len(seeds), plan.cachedRows, plan.pendingRows, len(plan.pendingSeeds))

	if len(plan.pendingSeeds) > 0 {
		enrichStart := time.Now()
		total := len(plan.pendingSeeds)
		opts.Progress = func(completed, _ int) {
			logf("enrichment progress: completed=%d/%d elapsed=%s", completed, total, time.Since(enrichStart).Round(time.Millisecond))
		}
		fresh, err := pipeline.EnrichSeeds(ctx, plan.pendingSeeds, newTracedEnricher(enricher, logger, runID, opts), opts)
		if err != nil {
			return nil, err
		}
		if err := plan.applyEnrichedRecords(fresh); err != nil {
			return nil, err
		}
		success, partial, errored := countStatuses(fresh)
		logf("enrichment complete: produced=%d success=%d partial=%d error=%d duration=%s",
			len(fresh), success, partial, errored, time.Since(enrichStart).Round(time.Millisecond))
	}
	return plan.records, nil
}

// applySearchQuery fans the run-level listing query onto seeds that do not
// carry their own.
func applySearchQuery(seeds []lead.BusinessSeed, query string) {
	if query == "" {
		return
	}
	for i := range seeds {
		if seeds[i].SearchQuery == "" {
			seeds[i].SearchQuery = query
		}
	}
}

func readSeeds(inputPath string) ([]lead.BusinessSeed, error) {
	inF, err := os.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = inF.Close()
	}()
	return localio.ReadSeedsCSV(inF)
}

// loadExistingLocal gathers prior successful records by lead ID from the
// store and from the previous output file, store taking precedence.
func loadExistingLocal(seeds []lead.BusinessSeed, st *store.Store, outputPath string, logf func(string, ...any)) (map[string]lead.Record, error) {
	existing := map[string]lead.Record{}

	if outputPath != "" {
		if b, err := os.ReadFile(outputPath); err == nil {
			prior, err := lead.ReadCSV(bytes.NewReader(b))
			if err != nil {
				return nil, fmt.Errorf("parse prior output csv: %w", err)
			}
			n := 0
			for _, rec := range prior {
				if cacheable(rec) {
					existing[rec.LeadID] = rec
					n++
				}
			}
			logf("incremental: loaded %d prior leads from %s", n, outputPath)
		}
	}

	if st != nil {
		ids := make([]string, 0, len(seeds))
		for _, s := range seeds {
			ids = append(ids, s.LeadID())
		}
		stored, err := st.Get(ids)
		if err != nil {
			return nil, fmt.Errorf("read lead store: %w", err)
		}
		n := 0
		for id, rec := range stored {
			if cacheable(rec) {
				existing[id] = rec
				n++
			}
		}
		logf("incremental: loaded %d prior leads from store", n)
	}
	return existing, nil
}

func loadExistingRemote(ctx context.Context, client *leadapi.Client, logf func(string, ...any)) (map[string]lead.Record, error) {
	ids, err := client.KnownLeadIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sink lead ids: %w", err)
	}
	if len(ids) == 0 {
		logf("incremental: sink holds no prior leads")
		return map[string]lead.Record{}, nil
	}

	b, err := client.ExportCSV(ctx)
	if err != nil {
		return nil, fmt.Errorf("export sink leads: %w", err)
	}
	prior, err := lead.ReadCSV(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse sink export csv: %w", err)
	}

	existing := make(map[string]lead.Record, len(prior))
	for _, rec := range prior {
		if cacheable(rec) {
			existing[rec.LeadID] = rec
		}
	}
	logf("incremental: loaded %d prior leads from sink", len(existing))
	return existing, nil
}

// cacheable reports whether a prior record should short-circuit re-enrichment.
// Partial and error rows are retried on the next run.
func cacheable(rec lead.Record) bool {
	return rec.LeadID != "" && strings.EqualFold(strings.TrimSpace(rec.EnrichmentStatus), lead.StatusSuccess)
}

type incrementalPlan struct {
	records      []lead.Record
	pendingSeeds []lead.BusinessSeed
	pendingIdx   map[string][]int
	cachedRows   int
	pendingRows  int
}

func buildIncrementalPlan(seeds []lead.BusinessSeed, existing map[string]lead.Record) incrementalPlan {
	plan := incrementalPlan{
		records:    make([]lead.Record, len(seeds)),
		pendingIdx: make(map[string][]int),
	}
	for i, seed := range seeds {
		id := seed.LeadID()

		if prev, ok := existing[id]; ok {
			plan.records[i] = prev
			plan.cachedRows++
			continue
		}

		if _, seen := plan.pendingIdx[id]; !seen {
			plan.pendingSeeds = append(plan.pendingSeeds, seed)
		}
		plan.pendingIdx[id] = append(plan.pendingIdx[id], i)
		plan.pendingRows++
	}
	return plan
}

func (p *incrementalPlan) applyEnrichedRecords(records []lead.Record) error {
	if len(records) != len(p.pendingSeeds) {
		return fmt.Errorf("incremental enrichment mismatch: got %d records for %d pending businesses", len(records), len(p.pendingSeeds))
	}
	for i, seed := range p.pendingSeeds {
		id := seed.LeadID()
		idxs, ok := p.pendingIdx[id]
		if !ok || len(idxs) == 0 {
			return fmt.Errorf("incremental enrichment mismatch: missing pending indexes for %q", id)
		}
		for _, idx := range idxs {
			p.records[idx] = records[i]
		}
	}
	return nil
}

func countStatuses(records []lead.Record) (success, partial, errored int) {
	for _, rec := range records {
		switch strings.TrimSpace(rec.EnrichmentStatus) {
		case lead.StatusSuccess:
			success++
		case lead.StatusPartial:
			partial++
		default:
			errored++
		}
	}
	return success, partial, errored
}

func newRunID() string {
	return "run-" + uuid.NewString()[:8]
}

func runLogf(logger *log.Logger, runID string) func(string, ...any) {
	return func(format string, args ...any) {
		prefix := make([]any, 0, len(args)+1)
		prefix = append(prefix, runID)
		prefix = append(prefix, args...)
		logger.Printf("run=%s "+format, prefix...)
	}
}
