// Package enrichment adds a sector label to every record of a merged table.
package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ndxcli/internal/infrastructure"
	"ndxcli/pkg/contracts/domain"
)

// Classifier labels one symbol.
type Classifier interface {
	Classify(ctx context.Context, symbol string) (string, error)
}

// ProgressFunc is called after each successful classification.
type ProgressFunc func(done, total int)

// Options configures an Enricher.
type Options struct {
	// Concurrency is the number of in-flight classifications. Values below
	// 2 classify strictly in table order.
	Concurrency int
	OnProgress  ProgressFunc
	Logger      *slog.Logger
}

// Enricher calls the classifier exactly once per record.
type Enricher struct {
	classifier Classifier
	opts       Options
	logger     *slog.Logger
}

// New creates an Enricher.
func New(classifier Classifier, opts Options) *Enricher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		classifier: classifier,
		opts:       opts,
		logger:     infrastructure.WithComponent(logger, "enrichment"),
	}
}

// Enrich returns a copy of table with Sector set on every record. The input
// is not modified. The first classification error aborts the stage and no
// table is returned.
func (e *Enricher) Enrich(ctx context.Context, table *domain.MergedTable) (*domain.MergedTable, error) {
	if table == nil {
		return nil, fmt.Errorf("enrich: nil table")
	}

	out := table.Clone()
	total := out.Len()
	start := time.Now()

	e.logger.InfoContext(ctx, "enrichment_start",
		slog.Int("records", total),
		slog.Int("concurrency", e.opts.Concurrency))

	var err error
	if e.opts.Concurrency == 1 {
		err = e.enrichSequential(ctx, out)
	} else {
		err = e.enrichConcurrent(ctx, out)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "enrichment_failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, err
	}

	out.Enriched = true
	e.logger.InfoContext(ctx, "enrichment_complete",
		slog.Int("records", total),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

func (e *Enricher) enrichSequential(ctx context.Context, table *domain.MergedTable) error {
	total := table.Len()
	for i := range table.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.classifyRecord(ctx, table, i); err != nil {
			return err
		}
		e.progress(i+1, total)
	}
	return nil
}

// enrichConcurrent fans out by row index so results land in table order.
func (e *Enricher) enrichConcurrent(ctx context.Context, table *domain.MergedTable) error {
	total := table.Len()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	var (
		mu   sync.Mutex
		done int
	)
	for i := range table.Records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := e.classifyRecord(gctx, table, i); err != nil {
				return err
			}
			mu.Lock()
			done++
			e.progress(done, total)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (e *Enricher) classifyRecord(ctx context.Context, table *domain.MergedTable, i int) error {
	symbol := table.Records[i].Symbol
	label, err := e.classifier.Classify(ctx, symbol)
	if err != nil {
		return fmt.Errorf("classify %s (row %d): %w", symbol, i+1, err)
	}
	table.Records[i].Sector = label
	return nil
}

func (e *Enricher) progress(done, total int) {
	if e.opts.OnProgress != nil {
		e.opts.OnProgress(done, total)
	}
}
