package loansrv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/engine"
	"github.com/fazamuttaqien/credit-engine/internal/repository"
	"github.com/fazamuttaqien/credit-engine/internal/service"
	"github.com/fazamuttaqien/credit-engine/pkg/common"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	MessageLoanApproved    = "Loan approved"
	messageLoanNotApproved = "Loan not approved: %s"

	messagePendingEMIs     = "Successfully paid and %d remaining EMI(s) left"
	MessageLoanCleared     = "Successfully paid the entire loan amount. 0 pending amount."
	messageMonthsRemaining = "Successfully paid monthly EMI and remaining loan left is %d month(s)"
)

type loanService struct {
	customerRepository repository.CustomerRepository
	loanRepository     repository.LoanRepository
	paymentRepository  repository.PaymentRepository
	scoreCache         repository.ScoreCache
	now                func() time.Time

	tracer            trace.Tracer
	log               *zap.Logger
	operationDuration metric.Float64Histogram
	operationCount    metric.Int64Counter
	errorCount        metric.Int64Counter
	decisions         metric.Int64Counter
	paymentsAccepted  metric.Int64Counter
}

// CheckEligibility implements service.LoanServices.
func (l *loanService) CheckEligibility(ctx context.Context, application domain.LoanApplication) (*domain.EligibilityResult, error) {
	ctx, op := l.start(ctx, "check_eligibility")
	op.span.SetAttributes(attribute.Int64("customer.id", int64(application.CustomerID)))

	result, err := l.evaluate(ctx, op.span, application)
	if err != nil {
		op.end(err)
		return nil, err
	}

	op.span.SetAttributes(
		attribute.Bool("loan.approved", result.Approved),
		attribute.Int("credit.score", result.CreditScore),
	)
	op.end(nil, zap.Uint64("customer_id", application.CustomerID), zap.Bool("approved", result.Approved))

	return result, nil
}

// CreateLoan implements service.LoanServices. Only approved applications are
// persisted, at the corrected rate and installment.
func (l *loanService) CreateLoan(ctx context.Context, application domain.LoanApplication) (*domain.LoanCreation, error) {
	ctx, op := l.start(ctx, "create_loan")
	op.span.SetAttributes(attribute.Int64("customer.id", int64(application.CustomerID)))

	result, err := l.evaluate(ctx, op.span, application)
	if err != nil {
		op.end(err)
		return nil, err
	}

	if !result.Approved {
		op.end(nil, zap.Uint64("customer_id", application.CustomerID), zap.String("reason", result.RejectionReason))
		return &domain.LoanCreation{
			CustomerID: application.CustomerID,
			Message:    fmt.Sprintf(messageLoanNotApproved, result.RejectionReason),
		}, nil
	}

	approvedAt := l.now().UTC()
	loan := domain.HistoricalLoan{
		CustomerID:         application.CustomerID,
		LoanAmount:         application.LoanAmount,
		InterestRate:       result.CorrectedInterestRate,
		Tenure:             application.Tenure,
		MonthlyInstallment: result.MonthlyInstallment,
		ApprovalDate:       approvedAt,
		EndDate:            approvedAt.AddDate(0, application.Tenure, 0),
	}
	if err := l.loanRepository.Create(ctx, &loan); err != nil {
		op.end(err)
		return nil, err
	}

	// The new loan changes this year's count and the principal total.
	if err := l.scoreCache.Invalidate(ctx, application.CustomerID); err != nil {
		l.log.Warn("Failed to invalidate cached credit report",
			zap.Uint64("customer_id", application.CustomerID),
			op.traceID(),
			zap.Error(err),
		)
	}

	op.span.SetAttributes(attribute.Int64("loan.id", int64(loan.ID)))
	op.end(nil, zap.Uint64("customer_id", loan.CustomerID), zap.Uint64("loan_id", loan.ID))

	return &domain.LoanCreation{
		LoanID:             &loan.ID,
		CustomerID:         loan.CustomerID,
		Approved:           true,
		Message:            MessageLoanApproved,
		MonthlyInstallment: loan.MonthlyInstallment,
	}, nil
}

// ViewLoan implements service.LoanServices. A loan whose customer record is
// missing is still returned, with a nil Customer.
func (l *loanService) ViewLoan(ctx context.Context, loanID uint64) (*domain.LoanView, error) {
	ctx, op := l.start(ctx, "view_loan")
	op.span.SetAttributes(attribute.Int64("loan.id", int64(loanID)))

	loan, err := l.loanRepository.FindByID(ctx, loanID)
	if err != nil {
		op.end(err)
		return nil, err
	}
	if loan == nil {
		err := fmt.Errorf("%w: %d", common.ErrLoanNotFound, loanID)
		op.end(err)
		return nil, err
	}

	customer, err := l.customerRepository.FindByID(ctx, loan.CustomerID)
	if err != nil {
		op.end(err)
		return nil, err
	}

	op.end(nil, zap.Uint64("loan_id", loanID), zap.Bool("customer_found", customer != nil))

	return &domain.LoanView{Loan: *loan, Customer: customer}, nil
}

// MakePayment implements service.LoanServices. Accepted payments are stored
// as receipts; the loan record is left as it was imported or created.
func (l *loanService) MakePayment(ctx context.Context, customerID, loanID uint64, amount float64) (*domain.PaymentReceipt, error) {
	ctx, op := l.start(ctx, "make_payment")
	op.span.SetAttributes(
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("loan.id", int64(loanID)),
		attribute.Float64("payment.amount", amount),
	)

	loan, err := l.findCustomerLoan(ctx, customerID, loanID)
	if err != nil {
		op.end(err)
		return nil, err
	}

	outcome, err := engine.ApplyPayment(loan, amount)
	if err != nil {
		op.end(err)
		return nil, err
	}

	payment := domain.Payment{
		Reference:        uuid.NewString(),
		LoanID:           loan.ID,
		CustomerID:       loan.CustomerID,
		Amount:           amount,
		Outcome:          outcome.Kind,
		RemainingBalance: outcome.RemainingBalance,
	}
	if err := l.paymentRepository.Create(ctx, &payment); err != nil {
		op.end(err)
		return nil, err
	}

	l.paymentsAccepted.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome.Kind))))
	op.span.SetAttributes(
		attribute.String("payment.reference", payment.Reference),
		attribute.String("payment.outcome", string(outcome.Kind)),
	)
	op.end(nil,
		zap.Uint64("loan_id", loan.ID),
		zap.String("reference", payment.Reference),
		zap.String("outcome", string(outcome.Kind)),
	)

	return &domain.PaymentReceipt{
		Payment: payment,
		Loan:    loan,
		Message: PaymentMessage(outcome),
	}, nil
}

// ViewStatement implements service.LoanServices.
func (l *loanService) ViewStatement(ctx context.Context, customerID, loanID uint64) (*domain.Statement, error) {
	ctx, op := l.start(ctx, "view_statement")
	op.span.SetAttributes(
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("loan.id", int64(loanID)),
	)

	loans, err := l.loanRepository.FindByCustomerID(ctx, customerID)
	if err != nil {
		op.end(err)
		return nil, err
	}

	statement, err := engine.GenerateStatement(customerID, loanID, loans)
	if err != nil {
		op.end(err)
		return nil, err
	}

	op.end(nil, zap.Uint64("customer_id", customerID), zap.Uint64("loan_id", loanID))

	return &statement, nil
}

// PaymentMessage renders the customer-facing text for an accepted payment.
func PaymentMessage(outcome domain.PaymentOutcome) string {
	switch outcome.Kind {
	case domain.OutcomeCleared:
		return MessageLoanCleared
	case domain.OutcomePendingEMIs:
		return fmt.Sprintf(messagePendingEMIs, outcome.PendingEMIs)
	default:
		return fmt.Sprintf(messageMonthsRemaining, outcome.MonthsRemaining)
	}
}

// evaluate loads the customer snapshot and runs the decision policy.
func (l *loanService) evaluate(ctx context.Context, span trace.Span, application domain.LoanApplication) (*domain.EligibilityResult, error) {
	customer, err := l.customerRepository.FindByID(ctx, application.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: %d", common.ErrCustomerNotFound, application.CustomerID)
	}

	loans, err := l.loanRepository.FindByCustomerID(ctx, application.CustomerID)
	if err != nil {
		return nil, err
	}

	report := l.creditReport(ctx, span, application.CustomerID, loans)

	result, err := engine.DecideFromReport(application, customer.MonthlyIncome, report, engine.TotalEMIs(application.CustomerID, loans))
	if err != nil {
		return nil, err
	}

	approval := "rejected"
	if result.Approved {
		approval = "approved"
	}
	l.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", approval)))

	return &result, nil
}

// creditReport prefers the cached report for the current year. Cache
// failures fall back to scoring the snapshot.
func (l *loanService) creditReport(ctx context.Context, span trace.Span, customerID uint64, loans []domain.HistoricalLoan) domain.CreditReport {
	asOf := l.now()
	traceID := zap.String("trace_id", span.SpanContext().TraceID().String())

	cached, err := l.scoreCache.Get(ctx, customerID, asOf.Year())
	if err != nil {
		l.log.Warn("Credit report cache unavailable", zap.Uint64("customer_id", customerID), traceID, zap.Error(err))
	}
	if cached != nil {
		span.SetAttributes(attribute.Bool("credit.cached", true))
		return *cached
	}

	report := engine.Score(customerID, loans, asOf)
	if err := l.scoreCache.Set(ctx, report); err != nil {
		l.log.Warn("Failed to cache credit report", zap.Uint64("customer_id", customerID), traceID, zap.Error(err))
	}
	span.SetAttributes(attribute.Bool("credit.cached", false))

	return report
}

func (l *loanService) findCustomerLoan(ctx context.Context, customerID, loanID uint64) (domain.HistoricalLoan, error) {
	loans, err := l.loanRepository.FindByCustomerID(ctx, customerID)
	if err != nil {
		return domain.HistoricalLoan{}, err
	}
	return engine.FindLoan(customerID, loanID, loans)
}

// operation tracks one service call from start to end.
type operation struct {
	svc   *loanService
	ctx   context.Context
	span  trace.Span
	name  string
	start time.Time
}

func (l *loanService) start(ctx context.Context, name string) (context.Context, *operation) {
	ctx, span := l.tracer.Start(ctx, "service.loan."+name)
	span.SetAttributes(attribute.String("service", "loan"))

	l.operationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", name),
			attribute.String("service", "loan"),
		),
	)

	return ctx, &operation{svc: l, ctx: ctx, span: span, name: name, start: time.Now()}
}

func (o *operation) traceID() zap.Field {
	return zap.String("trace_id", o.span.SpanContext().TraceID().String())
}

// end records the outcome and closes the span. Expected business errors are
// logged at warn, everything else at error.
func (o *operation) end(err error, fields ...zap.Field) {
	defer o.span.End()

	duration := float64(time.Since(o.start).Milliseconds())
	status := "success"
	fields = append(fields, zap.String("operation", o.name), zap.Float64("duration_ms", duration), o.traceID())

	if err != nil {
		status = "error"
		errorType := classify(err)

		o.span.SetStatus(codes.Error, errorType)
		o.span.RecordError(err)

		o.svc.errorCount.Add(o.ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", o.name),
				attribute.String("service", "loan"),
				attribute.String("error_type", errorType),
			),
		)

		fields = append(fields, zap.String("error_type", errorType), zap.Error(err))
		if errorType == "internal" {
			o.svc.log.Error("Loan operation failed", fields...)
		} else {
			o.svc.log.Warn("Loan operation rejected", fields...)
		}
	} else {
		o.span.SetStatus(codes.Ok, o.name)
		o.svc.log.Info("Loan operation completed", fields...)
	}

	o.svc.operationDuration.Record(o.ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", o.name),
			attribute.String("service", "loan"),
			attribute.String("status", status),
		),
	)
}

func classify(err error) string {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return "validation"
	case errors.Is(err, engine.ErrInvalidPayment):
		return "invalid_payment"
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, common.ErrLoanNotFound),
		errors.Is(err, common.ErrCustomerNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func NewLoanService(
	customerRepository repository.CustomerRepository,
	loanRepository repository.LoanRepository,
	paymentRepository repository.PaymentRepository,
	scoreCache repository.ScoreCache,
	now func() time.Time,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.LoanServices {
	if now == nil {
		now = time.Now
	}

	operationDuration, _ := meter.Float64Histogram(
		"service.operation.duration",
		metric.WithDescription("Duration of service operations"),
		metric.WithUnit("ms"),
	)

	operationCount, _ := meter.Int64Counter(
		"service.operation.count",
		metric.WithDescription("Number of service operations"),
		metric.WithUnit("{operation}"),
	)

	errorCount, _ := meter.Int64Counter(
		"service.error.count",
		metric.WithDescription("Number of service errors"),
		metric.WithUnit("{error}"),
	)

	decisions, _ := meter.Int64Counter(
		"service.loan.decisions",
		metric.WithDescription("Eligibility decisions by outcome"),
		metric.WithUnit("{decision}"),
	)

	paymentsAccepted, _ := meter.Int64Counter(
		"service.loan.payments",
		metric.WithDescription("Accepted payments by outcome"),
		metric.WithUnit("{payment}"),
	)

	return &loanService{
		customerRepository: customerRepository,
		loanRepository:     loanRepository,
		paymentRepository:  paymentRepository,
		scoreCache:         scoreCache,
		now:                now,
		tracer:             tracer,
		log:                log,
		operationDuration:  operationDuration,
		operationCount:     operationCount,
		errorCount:         errorCount,
		decisions:          decisions,
		paymentsAccepted:   paymentsAccepted,
	}
}
