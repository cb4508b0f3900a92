package loanrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/model"
	"github.com/fazamuttaqien/credit-engine/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	table     = "loans"
	batchSize = 500
)

type loanRepository struct {
	db      *gorm.DB
	tracer  trace.Tracer
	log     *zap.Logger
	metrics *repository.DBMetrics
}

// Create implements repository.LoanRepository.
func (l *loanRepository) Create(ctx context.Context, loan *domain.HistoricalLoan) error {
	ctx, q := repository.StartQuery(ctx, l.tracer, l.log, l.metrics, "repository.loan.Create", "insert", table)
	q.Span().SetAttributes(attribute.Int64("customer.id", int64(loan.CustomerID)))

	row := model.LoanFromEntity(loan)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		q.Fail("Failed to create loan", err, zap.Uint64("customer_id", loan.CustomerID))
		return fmt.Errorf("create loan: %w", err)
	}

	loan.ID = row.ID

	q.Written(1)
	q.Span().SetAttributes(attribute.Int64("loan.id", int64(row.ID)))
	q.Done("Loan created",
		zap.Uint64("loan_id", row.ID),
		zap.Uint64("customer_id", row.CustomerID),
		zap.Float64("loan_amount", row.LoanAmount),
	)

	return nil
}

// FindByID implements repository.LoanRepository.
func (l *loanRepository) FindByID(ctx context.Context, id uint64) (*domain.HistoricalLoan, error) {
	ctx, q := repository.StartQuery(ctx, l.tracer, l.log, l.metrics, "repository.loan.FindByID", "select", table)
	q.Span().SetAttributes(attribute.Int64("loan.id", int64(id)))

	var loan model.Loan
	if err := l.db.WithContext(ctx).First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			q.NotFound("Loan not found by ID", zap.Uint64("loan_id", id))
			return nil, nil
		}

		q.Fail("Error finding loan by ID", err, zap.Uint64("loan_id", id))
		return nil, fmt.Errorf("find loan %d: %w", id, err)
	}

	q.Retrieved(1)
	q.Done("Loan found by ID", zap.Uint64("loan_id", id))

	return model.LoanToEntity(loan), nil
}

// FindByCustomerID implements repository.LoanRepository. Loans are returned
// in ID order.
func (l *loanRepository) FindByCustomerID(ctx context.Context, customerID uint64) ([]domain.HistoricalLoan, error) {
	ctx, q := repository.StartQuery(ctx, l.tracer, l.log, l.metrics, "repository.loan.FindByCustomerID", "select", table)
	q.Span().SetAttributes(attribute.Int64("customer.id", int64(customerID)))

	var loans []model.Loan
	err := l.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&loans).Error
	if err != nil {
		q.Fail("Error finding loans by customer ID", err, zap.Uint64("customer_id", customerID))
		return nil, fmt.Errorf("find loans of customer %d: %w", customerID, err)
	}

	q.Retrieved(len(loans))
	q.Done("Loans found by customer ID", zap.Uint64("customer_id", customerID), zap.Int("count", len(loans)))

	return model.LoansToEntity(loans), nil
}

// UpsertMany implements repository.LoanRepository.
func (l *loanRepository) UpsertMany(ctx context.Context, loans []domain.HistoricalLoan) error {
	ctx, q := repository.StartQuery(ctx, l.tracer, l.log, l.metrics, "repository.loan.UpsertMany", "upsert", table)
	q.Span().SetAttributes(attribute.Int("loans.count", len(loans)))

	if len(loans) == 0 {
		q.Done("No loans to upsert")
		return nil
	}

	rows := make([]model.Loan, len(loans))
	for i := range loans {
		rows[i] = model.LoanFromEntity(&loans[i])
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_id", "loan_amount", "interest_rate", "tenure", "monthly_installment",
				"emis_paid_on_time", "paid_on_time", "approval_date", "end_date",
			}),
		}).CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		q.Fail("Failed to upsert loans", err, zap.Int("count", len(rows)))
		return fmt.Errorf("upsert loans: %w", err)
	}

	q.Written(len(rows))
	q.Done("Loans upserted", zap.Int("count", len(rows)))

	return nil
}

func NewLoanRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.LoanRepository {
	return &loanRepository{
		db:      db,
		tracer:  tracer,
		log:     log,
		metrics: repository.NewDBMetrics(meter),
	}
}
