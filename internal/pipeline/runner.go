// Package pipeline drives records through prompt construction, model
// calls, output recovery and schema mapping under a bounded worker
// pool, feeding a single-writer sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"prodnorm/internal/audit"
	"prodnorm/internal/batch"
	"prodnorm/internal/cache"
	"prodnorm/internal/completion"
	"prodnorm/internal/domain"
	"prodnorm/internal/mapper"
	"prodnorm/internal/port"
	"prodnorm/internal/prompt"
	"prodnorm/internal/repair"
	"prodnorm/internal/schema"
)

// Options configure a Runner. Zero values fall back to the defaults
// documented per field.
type Options struct {
	Concurrency   int           // worker pool size, default 4
	MaxRetries    int           // extra attempts per record, default 0
	ProgressEvery int           // progress log interval, default 50
	CallTimeout   time.Duration // per model call, default 60s
	Model         string        // recorded alongside cached responses
	Backoff       BackoffPolicy // default DefaultBackoff
	Sleep         func(time.Duration)
}

// Runner executes one full normalization run.
type Runner struct {
	client  port.CompletionClient
	cache   port.ResponseCache
	sink    port.RowSink
	builder *prompt.Builder
	columns schema.Schema
	auditor *audit.Auditor
	opts    Options
}

// NewRunner creates a Runner. respCache may be nil to disable response
// caching.
func NewRunner(client port.CompletionClient, respCache port.ResponseCache, sink port.RowSink,
	builder *prompt.Builder, columns schema.Schema, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 50
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 60 * time.Second
	}
	if opts.Backoff == nil {
		opts.Backoff = DefaultBackoff
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Runner{
		client:  client,
		cache:   respCache,
		sink:    sink,
		builder: builder,
		columns: columns,
		auditor: audit.NewAuditor(),
		opts:    opts,
	}
}

// result is what one worker hands the writer for one record.
type result struct {
	ordinal     int
	row         domain.Row
	placeholder bool
	cacheHit    bool
	retries     int
}

// Run processes every record and writes exactly one row per record to
// the sink. Per-record failures degrade to placeholder rows; only a
// sink write failure or a canceled context aborts the run.
func (r *Runner) Run(ctx context.Context, records []domain.Record) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:        uuid.New(),
		TotalRecords: len(records),
		StartedAt:    time.Now(),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.opts.Concurrency)
	results := make(chan result)

	for i := range records {
		rec := records[i]
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			res := r.process(gctx, rec)
			select {
			case results <- res:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	// Single writer: this goroutine owns the sink and the counters.
	var writeErr error
	completed := 0
	for res := range results {
		if writeErr == nil {
			if err := r.sink.WriteRow(res.row); err != nil {
				writeErr = fmt.Errorf("writing row for record %d: %w", res.ordinal, err)
				log.Printf("Runner.Run: %v", writeErr)
				cancel()
			} else {
				summary.RowsWritten++
				if res.placeholder {
					summary.Placeholders++
				}
				if res.cacheHit {
					summary.CacheHits++
				}
				summary.Retries += res.retries
				if issues := r.auditor.Check(res.row); len(issues) > 0 {
					summary.AuditIssues += len(issues)
					for _, issue := range issues {
						log.Printf("Runner.Run: record %d audit: %s", res.ordinal, issue)
					}
				}
			}
		}
		completed++
		if completed%r.opts.ProgressEvery == 0 {
			log.Printf("Runner.Run: %d/%d records processed", completed, len(records))
		}
	}

	err := g.Wait()
	summary.Duration = time.Since(summary.StartedAt)

	if writeErr != nil {
		return summary, writeErr
	}
	if err != nil {
		return summary, err
	}

	log.Printf("Runner.Run: run %s complete: %d records, %d rows, %d placeholders, %d cache hits, %d retries, %d audit issues in %s",
		summary.RunID, summary.TotalRecords, summary.RowsWritten, summary.Placeholders,
		summary.CacheHits, summary.Retries, summary.AuditIssues, summary.Duration)
	return summary, nil
}

// process runs the full sequence for one record. It never returns an
// error: anything unrecoverable becomes a placeholder row.
func (r *Runner) process(ctx context.Context, rec domain.Record) result {
	res := result{ordinal: rec.Ordinal}

	userPrompt, err := r.builder.Build(rec.Deterministic, rec.Raw)
	if err != nil {
		log.Printf("Runner.process: record %d: building prompt: %v", rec.Ordinal, err)
		res.row = r.placeholderFor(rec)
		res.placeholder = true
		return res
	}

	key := cache.Key(userPrompt)

	if r.cache != nil {
		text, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			log.Printf("Runner.process: record %d: cache get: %v", rec.Ordinal, err)
		} else if ok {
			if parsed, ok := repair.Parse(text); ok {
				res.cacheHit = true
				res.row = mapper.Row(parsed, rec.Deterministic, r.columns)
				return res
			}
			// cached text no longer parses, go back to the model
		}
	}

	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			res.retries++
		}

		text, err := r.complete(ctx, userPrompt)
		if err != nil {
			log.Printf("Runner.process: record %d attempt %d: %v", rec.Ordinal, attempt+1, err)
			r.waitBeforeRetry(attempt, err)
			continue
		}

		parsed, ok := repair.Parse(text)
		if !ok {
			log.Printf("Runner.process: record %d attempt %d: %v", rec.Ordinal, attempt+1, domain.ErrUnparsableOutput)
			r.waitBeforeRetry(attempt, domain.ErrUnparsableOutput)
			continue
		}

		if r.cache != nil {
			if err := r.cache.Put(ctx, key, r.opts.Model, text); err != nil {
				log.Printf("Runner.process: record %d: cache put: %v", rec.Ordinal, err)
			}
		}
		res.row = mapper.Row(parsed, rec.Deterministic, r.columns)
		return res
	}

	log.Printf("Runner.process: record %d: all attempts exhausted, writing placeholder", rec.Ordinal)
	res.row = r.placeholderFor(rec)
	res.placeholder = true
	return res
}

// complete runs one model call under its individual timeout.
func (r *Runner) complete(ctx context.Context, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.CallTimeout)
	defer cancel()
	return r.client.Complete(callCtx, userPrompt)
}

// waitBeforeRetry sleeps per the backoff policy when another attempt
// will follow. A rate-limit Retry-After wins over the policy delay when
// longer.
func (r *Runner) waitBeforeRetry(attempt int, err error) {
	if attempt >= r.opts.MaxRetries {
		return
	}
	delay := r.opts.Backoff(attempt)
	var rl *completion.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > delay {
		delay = rl.RetryAfter
	}
	r.opts.Sleep(delay)
}

// placeholderFor builds the empty row for a record that produced no
// usable object, carrying the best correlation id available.
func (r *Runner) placeholderFor(rec domain.Record) domain.Row {
	correlationID := ""
	if rec.Deterministic.URL != nil {
		correlationID = *rec.Deterministic.URL
	} else if s, ok := rec.Raw["url"].(string); ok {
		correlationID = s
	}
	if correlationID == "" {
		correlationID = batch.CustomID(rec.Ordinal)
	}
	return mapper.PlaceholderRow(r.columns, correlationID)
}
