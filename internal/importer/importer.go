// Package importer loads the customer and loan workbooks into storage.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/repository"
	"github.com/fazamuttaqien/credit-engine/pkg/common"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Importer struct {
	customerRepository repository.CustomerRepository
	loanRepository     repository.LoanRepository
	scoreCache         repository.ScoreCache

	customerPath string
	loanPath     string

	tracer         trace.Tracer
	log            *zap.Logger
	runDuration    metric.Float64Histogram
	rowsImported   metric.Int64Counter
	rowsSkipped    metric.Int64Counter
	runErrorsCount metric.Int64Counter
}

// Run imports the customer workbook and then the loan workbook. Loans whose
// customer is unknown after the customer import are skipped. Cached credit
// reports are dropped when anything was written.
func (i *Importer) Run(ctx context.Context) (domain.ImportSummary, error) {
	ctx, span := i.tracer.Start(ctx, "importer.Run")
	defer span.End()

	start := time.Now()
	summary, err := i.run(ctx)

	status := "success"
	if err != nil {
		status = "error"
		i.runErrorsCount.Add(ctx, 1)
		span.SetStatus(codes.Error, "Import failed")
		span.RecordError(err)
		i.log.Error("Workbook import failed",
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)
	} else {
		span.SetStatus(codes.Ok, "Import completed")
		span.SetAttributes(
			attribute.Int("import.customers", summary.Customers),
			attribute.Int("import.loans", summary.Loans),
		)
		i.log.Info("Workbook import completed",
			zap.Int("customers", summary.Customers),
			zap.Int("loans", summary.Loans),
			zap.Duration("duration", time.Since(start)),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
		)
	}

	i.runDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.String("status", status)),
	)

	return summary, err
}

func (i *Importer) run(ctx context.Context) (domain.ImportSummary, error) {
	var summary domain.ImportSummary

	if i.customerPath == "" && i.loanPath == "" {
		return summary, common.ErrWorkbookNotFound
	}

	if i.customerPath != "" {
		customers, err := readFile(i.customerPath, ReadCustomers)
		if err != nil {
			return summary, err
		}
		if err := i.customerRepository.UpsertMany(ctx, customers); err != nil {
			return summary, fmt.Errorf("import customers: %w", err)
		}
		summary.Customers = len(customers)
		i.rowsImported.Add(ctx, int64(len(customers)), metric.WithAttributes(attribute.String("workbook", "customers")))
	}

	if i.loanPath != "" {
		loans, err := readFile(i.loanPath, ReadLoans)
		if err != nil {
			return summary, err
		}

		known, err := i.knownLoans(ctx, loans)
		if err != nil {
			return summary, err
		}
		if err := i.loanRepository.UpsertMany(ctx, known); err != nil {
			return summary, fmt.Errorf("import loans: %w", err)
		}
		summary.Loans = len(known)
		i.rowsImported.Add(ctx, int64(len(known)), metric.WithAttributes(attribute.String("workbook", "loans")))
	}

	if summary.Customers+summary.Loans > 0 {
		if err := i.scoreCache.Flush(ctx); err != nil {
			// Stale reports expire with their TTL.
			i.log.Warn("Failed to flush credit report cache after import", zap.Error(err))
		}
	}

	return summary, nil
}

// knownLoans drops loans that reference a customer missing from storage.
func (i *Importer) knownLoans(ctx context.Context, loans []domain.HistoricalLoan) ([]domain.HistoricalLoan, error) {
	ids := make([]uint64, 0, len(loans))
	seen := make(map[uint64]struct{}, len(loans))
	for _, loan := range loans {
		if _, ok := seen[loan.CustomerID]; !ok {
			seen[loan.CustomerID] = struct{}{}
			ids = append(ids, loan.CustomerID)
		}
	}

	existing, err := i.customerRepository.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("import loans: %w", err)
	}

	known := loans[:0:0]
	for _, loan := range loans {
		if _, ok := existing[loan.CustomerID]; !ok {
			i.rowsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "unknown_customer")))
			i.log.Warn("Skipping loan of unknown customer",
				zap.Uint64("loan_id", loan.ID),
				zap.Uint64("customer_id", loan.CustomerID),
			)
			continue
		}
		known = append(known, loan)
	}

	return known, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrWorkbookNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func NewImporter(
	customerRepository repository.CustomerRepository,
	loanRepository repository.LoanRepository,
	scoreCache repository.ScoreCache,
	customerPath, loanPath string,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *Importer {
	runDuration, _ := meter.Float64Histogram(
		"importer.run.duration",
		metric.WithDescription("Duration of workbook imports"),
		metric.WithUnit("ms"),
	)

	rowsImported, _ := meter.Int64Counter(
		"importer.rows.imported",
		metric.WithDescription("Number of workbook rows written to storage"),
		metric.WithUnit("{row}"),
	)

	rowsSkipped, _ := meter.Int64Counter(
		"importer.rows.skipped",
		metric.WithDescription("Number of workbook rows skipped"),
		metric.WithUnit("{row}"),
	)

	runErrorsCount, _ := meter.Int64Counter(
		"importer.run.errors",
		metric.WithDescription("Number of failed workbook imports"),
		metric.WithUnit("{error}"),
	)

	return &Importer{
		customerRepository: customerRepository,
		loanRepository:     loanRepository,
		scoreCache:         scoreCache,
		customerPath:       customerPath,
		loanPath:           loanPath,
		tracer:             tracer,
		log:                log,
		runDuration:        runDuration,
		rowsImported:       rowsImported,
		rowsSkipped:        rowsSkipped,
		runErrorsCount:     runErrorsCount,
	}
}
