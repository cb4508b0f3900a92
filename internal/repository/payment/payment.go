package paymentrepo

import (
	"context"
	"fmt"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/model"
	"github.com/fazamuttaqien/credit-engine/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const table = "payments"

type paymentRepository struct {
	db      *gorm.DB
	tracer  trace.Tracer
	log     *zap.Logger
	metrics *repository.DBMetrics
}

// Create implements repository.PaymentRepository.
func (p *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	ctx, q := repository.StartQuery(ctx, p.tracer, p.log, p.metrics, "repository.payment.Create", "insert", table)
	q.Span().SetAttributes(
		attribute.Int64("loan.id", int64(payment.LoanID)),
		attribute.String("payment.reference", payment.Reference),
	)

	row := model.PaymentFromEntity(payment)
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		q.Fail("Failed to record payment", err,
			zap.Uint64("loan_id", payment.LoanID),
			zap.String("reference", payment.Reference),
		)
		return fmt.Errorf("record payment: %w", err)
	}

	payment.ID = row.ID
	payment.CreatedAt = row.CreatedAt

	q.Written(1)
	q.Done("Payment recorded",
		zap.Uint64("payment_id", row.ID),
		zap.Uint64("loan_id", row.LoanID),
		zap.String("outcome", string(row.Outcome)),
	)

	return nil
}

// FindByLoanID implements repository.PaymentRepository.
func (p *paymentRepository) FindByLoanID(ctx context.Context, loanID uint64) ([]domain.Payment, error) {
	ctx, q := repository.StartQuery(ctx, p.tracer, p.log, p.metrics, "repository.payment.FindByLoanID", "select", table)
	q.Span().SetAttributes(attribute.Int64("loan.id", int64(loanID)))

	var payments []model.Payment
	err := p.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC, id ASC").
		Find(&payments).Error
	if err != nil {
		q.Fail("Error finding payments by loan ID", err, zap.Uint64("loan_id", loanID))
		return nil, fmt.Errorf("find payments of loan %d: %w", loanID, err)
	}

	q.Retrieved(len(payments))
	q.Done("Payments found by loan ID", zap.Uint64("loan_id", loanID), zap.Int("count", len(payments)))

	return model.PaymentsToEntity(payments), nil
}

func NewPaymentRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.PaymentRepository {
	return &paymentRepository{
		db:      db,
		tracer:  tracer,
		log:     log,
		metrics: repository.NewDBMetrics(meter),
	}
}
