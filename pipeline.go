package thesisaf

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// PipelineConfig configures one extraction pipeline.
type PipelineConfig struct {
	// ChunkBudget is the max chunk size in characters (0 = DefaultChunkBudget).
	ChunkBudget int

	// Concurrency bounds simultaneous model calls (0 = DefaultConcurrency).
	Concurrency int

	// RateLimitPerMinute throttles model calls across chunks (0 = unlimited).
	RateLimitPerMinute int

	// Model, MaxTokens and Temperature pass through to every model call.
	Model       string
	MaxTokens   int
	Temperature float64
}

// DocumentInput is one document handed to the pipeline: its raw extracted
// text, the figure manifest from the same extractor, and the thesis template
// to extract for.
type DocumentInput struct {
	Text       string
	Manifest   *FigureManifest
	TemplateID string
}

// Pipeline ties the extraction core together: cleanup, splitting, concurrent
// model extraction, and the index-ordered merge.
type Pipeline struct {
	cfg      PipelineConfig
	caller   ModelCaller
	registry TemplateRegistry
	logger   *zap.Logger
}

// NewPipeline builds a pipeline. A nil registry falls back to the built-in
// template catalog; a nil logger to a no-op logger.
func NewPipeline(cfg PipelineConfig, caller ModelCaller, registry TemplateRegistry, logger *zap.Logger) (*Pipeline, error) {
	if caller == nil {
		return nil, fmt.Errorf("model caller is required")
	}
	if registry == nil {
		var err error
		registry, err = NewStaticTemplateRegistry()
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, caller: caller, registry: registry, logger: logger}, nil
}

// Run extracts one document into a structured record. Individual chunk
// failures are reported as warnings on the report; Run errors only when no
// chunk could be extracted at all. A document with no extractable content
// yields an empty valid record without any model call.
func (p *Pipeline) Run(ctx context.Context, doc DocumentInput) (*ExtractionReport, error) {
	text := CleanExtractedText(doc.Text)
	chunks := SplitDocument(text, p.cfg.ChunkBudget)
	if len(chunks) == 0 {
		p.logger.Info("no extractable content, returning empty record")
		return &ExtractionReport{Record: &StructuredRecord{Sections: []Section{}}}, nil
	}
	p.logger.Info("document split",
		zap.Int("chunks", len(chunks)),
		zap.Int("chars", len(text)),
		zap.Int("figures", doc.Manifest.Len()))

	requiredFields, err := p.registry.RequiredFields(doc.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("resolving template %q: %w", doc.TemplateID, err)
	}

	opts := []ExtractorOption{
		WithLogger(p.logger),
		WithConcurrency(p.cfg.Concurrency),
	}
	if p.cfg.RateLimitPerMinute > 0 {
		rps := float64(p.cfg.RateLimitPerMinute) / 60.0
		opts = append(opts, WithRateLimiter(rate.NewLimiter(rate.Limit(rps), 1)))
	}
	extractor := NewExtractor(p.caller, CallOptions{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}, opts...)

	results := extractor.ExtractAll(ctx, chunks, doc.Manifest, requiredFields)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, failures, err := MergeResults(results)
	if err != nil {
		return nil, fmt.Errorf("merging %d chunks: %w", len(chunks), err)
	}
	for _, f := range failures {
		p.logger.Warn("chunk failed after retries",
			zap.Int("chunk", f.ChunkIndex),
			zap.String("error", f.Err))
	}

	// The model only reports figures it saw in the text; the manifest is
	// authoritative for what assets exist.
	if len(record.Figures) == 0 && doc.Manifest.Len() > 0 {
		record.Figures = doc.Manifest.Figures()
	}

	p.logger.Info("extraction complete",
		zap.Int("sections", len(record.Sections)),
		zap.Int("failed_chunks", len(failures)),
		zap.Bool("has_metadata", record.Metadata != nil))
	return &ExtractionReport{Record: record, Failed: failures}, nil
}
