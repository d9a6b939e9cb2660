// Package loader runs the full reload: provision the database, recreate the
// schema and import every CSV source inside one transaction.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecommerce-loader/internal/database"
	"ecommerce-loader/internal/importer"
	"ecommerce-loader/internal/schema"
)

// Policy decides what a rejected row does to the run.
type Policy string

const (
	// Skip reports rejected rows and keeps loading.
	Skip Policy = "skip"
	// Abort fails the run on the first rejected row.
	Abort Policy = "abort"
)

const DefaultBatchSize = 1000

type Options struct {
	BatchSize          int
	OnRowError         Policy
	EnforceForeignKeys bool
	RequireSources     bool
	Verify             bool
}

type Loader struct {
	backend database.Backend
	catalog schema.Catalog
	opts    Options
	logger  *zap.Logger
	runID   uuid.UUID
}

func New(backend database.Backend, catalog schema.Catalog, opts Options, logger *zap.Logger) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.OnRowError == "" {
		opts.OnRowError = Skip
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.New()
	return &Loader{
		backend: backend,
		catalog: catalog,
		opts:    opts,
		runID:   runID,
		logger: logger.With(
			zap.String("run_id", runID.String()),
			zap.String("backend", backend.Name()),
		),
	}
}

// RunID identifies this loader's runs in logs and summaries.
func (l *Loader) RunID() string { return l.runID.String() }

// Provision ensures the target database exists.
func (l *Loader) Provision(ctx context.Context) (database.ProvisionResult, error) {
	res, err := l.backend.Provision(ctx)
	if err != nil {
		l.logger.Error("provisioning failed", zap.String("target", l.backend.Target()), zap.Error(err))
		return res, fmt.Errorf("%w: %s: %w", ErrProvision, l.backend.Target(), err)
	}
	if res.Created {
		l.logger.Info("database created", zap.String("target", res.Target))
	} else {
		l.logger.Info("database already exists", zap.String("target", res.Target))
	}
	return res, nil
}

// Run performs a full reload. The returned summary is non-nil even on error
// and describes how far the run got.
func (l *Loader) Run(ctx context.Context) (*Summary, error) {
	startTime := time.Now()
	summary := &Summary{RunID: l.RunID(), Backend: l.backend.Name()}
	defer func() { summary.TotalTime = time.Since(startTime) }()

	prov, err := l.Provision(ctx)
	if err != nil {
		summary.Provision = database.ProvisionResult{Target: l.backend.Target()}
		summary.ProvisionError = err.Error()
		return summary, err
	}
	summary.Provision = prov

	if err := l.backend.Connect(ctx); err != nil {
		l.logger.Error("connect failed", zap.Error(err))
		summary.ConnectError = err.Error()
		return summary, fmt.Errorf("%w: %s: %w", ErrConnection, l.backend.Target(), err)
	}
	defer func() {
		if err := l.backend.Close(); err != nil {
			l.logger.Warn("close failed", zap.Error(err))
		}
	}()

	// Batch insert latency in microseconds, up to 10000 seconds.
	histogram := hdrhistogram.New(1, 10000000000, 3)

	err = l.backend.ExecuteTx(ctx, func(tx database.Tx) error {
		// A backend may retry the whole transaction.
		summary.Sources = nil
		histogram.Reset()

		if err := l.backend.ApplySchema(ctx, tx, l.catalog, l.opts.EnforceForeignKeys); err != nil {
			return fmt.Errorf("%w: %w", ErrSchema, err)
		}
		for _, t := range l.catalog.Tables() {
			l.logger.Info("table created", zap.String("table", t.Name))
		}

		keys := keyIndex{}
		for _, src := range l.catalog.Sources() {
			res, err := l.importSource(ctx, tx, src, keys, histogram)
			summary.Sources = append(summary.Sources, res)
			if err != nil {
				return err
			}
		}
		return nil
	})
	summary.BatchLatency = latencyStats(histogram)
	if err != nil {
		if !errors.Is(err, ErrSchema) && !errors.Is(err, ErrImportAborted) {
			err = fmt.Errorf("%w: %w", ErrImportAborted, err)
		}
		l.logger.Error("load rolled back", zap.Error(err))
		return summary, err
	}
	summary.Committed = true
	l.logger.Info("load committed",
		zap.Int64("rows_loaded", summary.RowsLoaded()),
		zap.Int("rows_rejected", summary.Rejected()),
	)

	if l.opts.Verify {
		l.verify(ctx, summary)
	}
	return summary, nil
}

// verify reads back the row count of every table. Count failures are
// logged, not returned: the data is already committed.
func (l *Loader) verify(ctx context.Context, summary *Summary) {
	for _, src := range l.catalog.Sources() {
		n, err := l.backend.CountRows(ctx, src.Table)
		if err != nil {
			l.logger.Warn("row count failed", zap.String("table", src.Table.Name), zap.Error(err))
			continue
		}
		var expected int64
		if res, ok := summary.Source(src.Name); ok {
			expected = res.RowsLoaded
		}
		summary.Verified = append(summary.Verified, TableCount{Table: src.Table.Name, Rows: n, Expected: expected})
		if n != expected {
			l.logger.Warn("row count mismatch",
				zap.String("table", src.Table.Name),
				zap.Int64("rows", n),
				zap.Int64("expected", expected),
			)
		}
	}
}

func (l *Loader) importSource(ctx context.Context, tx database.Tx, src schema.Source, keys keyIndex, histogram *hdrhistogram.Histogram) (res SourceResult, err error) {
	res = SourceResult{Source: src.Name, File: src.Path, Table: src.Table.Name}
	logger := l.logger.With(zap.String("source", src.Name), zap.String("table", src.Table.Name))

	f, err := os.Open(src.Path)
	if errors.Is(err, fs.ErrNotExist) {
		if l.opts.RequireSources {
			return res, fmt.Errorf("%w: %w: %s", ErrImportAborted, ErrSourceMissing, src.Path)
		}
		logger.Warn("CSV file not found, skipping", zap.String("file", src.Path))
		res.Skipped = true
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrImportAborted, err)
	}
	defer f.Close()

	startTime := time.Now()
	defer func() { res.Duration = time.Since(startTime) }()

	rd, err := importer.NewReader(f, src)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrImportAborted, err)
	}
	defer func() { res.RowsRead = rd.Read() }()

	batch := make([][]any, 0, l.opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		opStartTime := time.Now()
		n, err := l.backend.BulkInsert(ctx, tx, src.Table, batch)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrImportAborted, err)
		}
		histogram.RecordValue(time.Since(opStartTime).Microseconds())
		res.RowsLoaded += n
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%w: %w", ErrImportAborted, err)
		}

		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err == nil {
			err = keys.check(src, row, rd.Line(), l.opts.EnforceForeignKeys)
		}

		var rowErr *importer.RowError
		if errors.As(err, &rowErr) {
			if l.opts.OnRowError == Abort {
				return res, fmt.Errorf("%w: %w", ErrImportAborted, rowErr)
			}
			res.Rejected = append(res.Rejected, rejection(rowErr))
			logger.Debug("row rejected", zap.Error(rowErr))
			continue
		}
		if err != nil {
			return res, fmt.Errorf("%w: read %s: %w", ErrImportAborted, src.Path, err)
		}

		keys.add(src.Table, row)
		batch = append(batch, row)
		if len(batch) >= l.opts.BatchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}

	logger.Info("source loaded",
		zap.String("file", src.Path),
		zap.Int64("rows_loaded", res.RowsLoaded),
		zap.Int("rows_rejected", len(res.Rejected)),
	)
	return res, nil
}
