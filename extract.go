package thesisaf

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Retry policy for one chunk: up to MaxRetries retries after the initial
// attempt, with exponential backoff capped at retryMaxDelay.
const (
	MaxRetries     = 3
	retryBaseDelay = 2000 * time.Millisecond
	retryMaxDelay  = 10000 * time.Millisecond

	// DefaultConcurrency bounds simultaneous model calls in ExtractAll.
	DefaultConcurrency = 4
)

// backoffDelay returns the delay before retry n (0-indexed): 2s, 4s, 8s,
// then capped at 10s.
func backoffDelay(retry int) time.Duration {
	d := retryBaseDelay << uint(retry)
	if d > retryMaxDelay || d <= 0 {
		d = retryMaxDelay
	}
	return d
}

// Extractor runs the model-extraction step over chunks. The zero value is
// not usable; construct with NewExtractor.
type Extractor struct {
	caller  ModelCaller
	opts    CallOptions
	logger  *zap.Logger
	limiter *rate.Limiter

	concurrency int

	// sleep waits out a backoff delay; swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the extractor's logger (default no-op).
func WithLogger(logger *zap.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRateLimiter throttles model calls across all chunks.
func WithRateLimiter(limiter *rate.Limiter) ExtractorOption {
	return func(e *Extractor) { e.limiter = limiter }
}

// WithConcurrency bounds simultaneous chunk extractions.
func WithConcurrency(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewExtractor builds an extractor calling the given collaborator with the
// given call options.
func NewExtractor(caller ModelCaller, opts CallOptions, options ...ExtractorOption) *Extractor {
	e := &Extractor{
		caller:      caller,
		opts:        opts,
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
		sleep:       sleepContext,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// ExtractChunk runs one chunk to its terminal outcome: build the prompt,
// call the model with retry/backoff, validate, post-process. Chunk-scoped
// failures become a failed result, never an error; the merge coordinator
// decides fatality.
func (e *Extractor) ExtractChunk(ctx context.Context, c Chunk, manifest *FigureManifest, requiredFields []string) ChunkExtractionResult {
	prompt := BuildChunkPrompt(c, manifest, requiredFields)

	var lastErr error
	retries := 0
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			retries = attempt
			if err := e.sleep(ctx, backoffDelay(attempt-1)); err != nil {
				return ChunkExtractionResult{ChunkIndex: c.Index, Err: err.Error(), Retries: attempt - 1}
			}
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return ChunkExtractionResult{ChunkIndex: c.Index, Err: err.Error(), Retries: retries}
			}
		}

		raw, err := e.caller.Call(ctx, prompt, &e.opts)
		if err == nil {
			var rec *StructuredRecord
			rec, err = ParseRecordJSON(raw)
			if err == nil {
				PostProcessRecord(rec, manifest)
				return ChunkExtractionResult{
					Success:    true,
					ChunkIndex: c.Index,
					Record:     rec,
					Retries:    retries,
				}
			}
			// A malformed response is as transient as a failed call: the
			// model may well produce valid JSON on the next attempt.
		} else if !IsRetryable(err) {
			lastErr = err
			break
		}
		lastErr = err
		e.logger.Warn("chunk extraction attempt failed",
			zap.Int("chunk", c.Index),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return ChunkExtractionResult{
		ChunkIndex: c.Index,
		Err:        lastErr.Error(),
		Retries:    retries,
	}
}

// ExtractAll extracts every chunk with bounded concurrency, scatter/gather:
// each task writes its terminal result into the slot keyed by its chunk
// index, and the slice is returned only after every dispatched chunk is
// terminal, so a caller never sees partial in-flight state. Slot order is
// chunk order regardless of completion order.
func (e *Extractor) ExtractAll(ctx context.Context, chunks []Chunk, manifest *FigureManifest, requiredFields []string) []ChunkExtractionResult {
	results := make([]ChunkExtractionResult, len(chunks))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, c := range chunks {
		wg.Add(1)
		go func(idx int, c Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = e.ExtractChunk(ctx, c, manifest, requiredFields)
		}(i, c)
	}
	wg.Wait()
	return results
}
