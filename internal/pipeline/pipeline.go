// Package pipeline orchestrates the single-pass ETL run: load raw documents,
// normalize them into reaches, derive the destination schema, and upload
// feature records in fixed-size batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/reach-data-etl/internal/domain"
	"github.com/couchcryptid/reach-data-etl/internal/export"
	"github.com/couchcryptid/reach-data-etl/internal/observability"
)

// Source yields the complete raw document collection for one run.
type Source interface {
	LoadAll(ctx context.Context) ([]domain.RawDocument, error)
}

// Uploader owns the destination layer: it applies the derived schema, then
// accepts feature batches.
type Uploader interface {
	EnsureLayer(ctx context.Context, schema export.Schema) error
	UploadBatch(ctx context.Context, records []export.Record) error
}

// Publisher mirrors normalized records onto a stream for downstream
// consumers. Optional; a nil Publisher disables publishing.
type Publisher interface {
	PublishRecords(ctx context.Context, records []export.Record) error
}

// Pipeline runs the load-normalize-derive-upload sequence once.
type Pipeline struct {
	source    Source
	uploader  Uploader
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	chunkSize int
}

// New creates a Pipeline. publisher may be nil.
func New(source Source, uploader Uploader, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, chunkSize int) *Pipeline {
	return &Pipeline{
		source:    source,
		uploader:  uploader,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		chunkSize: chunkSize,
	}
}

// CheckReadiness returns nil once a run has uploaded at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed an upload yet")
	}
	return nil
}

// Run executes one complete ETL pass. Malformed documents are skipped with a
// warning; schema derivation and upload failures abort the run, since a
// partially uploaded layer under a wrong schema is worse than no layer.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline run starting", "chunk_size", p.chunkSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	reaches, err := p.normalizeAll(ctx)
	if err != nil {
		return err
	}

	schema, err := export.DeriveSchema(reaches)
	if err != nil {
		return fmt.Errorf("derive schema: %w", err)
	}

	if err := p.uploader.EnsureLayer(ctx, schema); err != nil {
		return fmt.Errorf("ensure layer: %w", err)
	}

	records := collectRecords(reaches)
	if err := p.uploadAll(ctx, records); err != nil {
		return err
	}

	if p.publisher != nil {
		if err := p.publisher.PublishRecords(ctx, records); err != nil {
			// Publishing mirrors the upload; its failure does not undo it.
			p.logger.Error("publish records failed", "error", err)
		} else {
			p.metrics.RecordsPublished.Add(float64(len(records)))
		}
	}

	p.ready.Store(true)
	p.logger.Info("pipeline run complete", "reaches", len(reaches), "records", len(records))
	return nil
}

// normalizeAll loads every raw document and normalizes the parseable ones.
// A run with zero usable reaches is an error; there is nothing to derive a
// schema from.
func (p *Pipeline) normalizeAll(ctx context.Context) ([]*domain.Reach, error) {
	docs, err := p.source.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	p.metrics.DocumentsLoaded.Add(float64(len(docs)))

	reaches := make([]*domain.Reach, 0, len(docs))
	for _, doc := range docs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r, err := domain.Normalize(doc.Data)
		if err != nil {
			p.logger.Warn("skipping document", "document", doc.Name, "error", err)
			p.metrics.NormalizeErrors.Inc()
			continue
		}
		reaches = append(reaches, r)
	}

	if len(reaches) == 0 {
		return nil, fmt.Errorf("no usable reaches among %d documents", len(docs))
	}
	p.metrics.ReachesNormalized.Add(float64(len(reaches)))
	return reaches, nil
}

// uploadAll sends records in order, one fixed-size batch at a time. Batches
// are sequential: the destination API rejects concurrent edits to a fresh
// layer, and ordering keeps reruns comparable.
func (p *Pipeline) uploadAll(ctx context.Context, records []export.Record) error {
	batchNum := 0
	for batch := range export.Batches(records, p.chunkSize) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		batchNum++

		start := time.Now()
		if err := p.uploader.UploadBatch(ctx, batch); err != nil {
			return fmt.Errorf("upload batch %d: %w", batchNum, err)
		}
		p.metrics.BatchUploadDuration.Observe(time.Since(start).Seconds())
		p.metrics.UploadBatches.Inc()
		p.metrics.FeaturesUploaded.Add(float64(len(batch)))

		p.logger.Debug("batch uploaded", "batch", batchNum, "size", len(batch))
	}
	return nil
}

func collectRecords(reaches []*domain.Reach) []export.Record {
	records := make([]export.Record, 0, len(reaches))
	for rec := range export.Records(reaches) {
		records = append(records, rec)
	}
	return records
}
