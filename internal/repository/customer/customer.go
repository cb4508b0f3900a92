package customerrepo

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
	table     = "customers"
	batchSize = 500
)

type customerRepository struct {
	db      *gorm.DB
	tracer  trace.Tracer
	log     *zap.Logger
	metrics *repository.DBMetrics
}

// Create implements repository.CustomerRepository.
func (c *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	ctx, q := repository.StartQuery(ctx, c.tracer, c.log, c.metrics, "repository.customer.Create", "insert", table)

	row := model.CustomerFromEntity(customer)
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		q.Fail("Failed to create customer", err, zap.String("phone_number", customer.PhoneNumber))
		return fmt.Errorf("create customer: %w", err)
	}

	customer.ID = row.ID
	customer.CreatedAt = row.CreatedAt

	q.Written(1)
	q.Span().SetAttributes(attribute.Int64("customer.id", int64(row.ID)))
	q.Done("Customer created", zap.Uint64("customer_id", row.ID))

	return nil
}

// FindByID implements repository.CustomerRepository.
func (c *customerRepository) FindByID(ctx context.Context, id uint64) (*domain.Customer, error) {
	ctx, q := repository.StartQuery(ctx, c.tracer, c.log, c.metrics, "repository.customer.FindByID", "select", table)
	q.Span().SetAttributes(attribute.Int64("customer.id", int64(id)))

	var customer model.Customer
	if err := c.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			q.NotFound("Customer not found by ID", zap.Uint64("customer_id", id))
			return nil, nil
		}

		q.Fail("Error finding customer by ID", err, zap.Uint64("customer_id", id))
		return nil, fmt.Errorf("find customer %d: %w", id, err)
	}

	q.Retrieved(1)
	q.Done("Customer found by ID", zap.Uint64("customer_id", id))

	return model.CustomerToEntity(customer), nil
}

// UpsertMany implements repository.CustomerRepository. Rows are written in
// one transaction; an existing ID has every column replaced.
func (c *customerRepository) UpsertMany(ctx context.Context, customers []domain.Customer) error {
	ctx, q := repository.StartQuery(ctx, c.tracer, c.log, c.metrics, "repository.customer.UpsertMany", "upsert", table)
	q.Span().SetAttributes(attribute.Int("customers.count", len(customers)))

	if len(customers) == 0 {
		q.Done("No customers to upsert")
		return nil
	}

	rows := make([]model.Customer, len(customers))
	for i := range customers {
		rows[i] = model.CustomerFromEntity(&customers[i])
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "age", "phone_number", "monthly_income", "approved_limit", "updated_at"}),
		}).CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		q.Fail("Failed to upsert customers", err, zap.Int("count", len(rows)))
		return fmt.Errorf("upsert customers: %w", err)
	}

	q.Written(len(rows))
	q.Done("Customers upserted", zap.Int("count", len(rows)))

	return nil
}

// ExistingIDs implements repository.CustomerRepository.
func (c *customerRepository) ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]struct{}, error) {
	ctx, q := repository.StartQuery(ctx, c.tracer, c.log, c.metrics, "repository.customer.ExistingIDs", "select", table)

	found := make(map[uint64]struct{}, len(ids))
	if len(ids) == 0 {
		q.Done("No customer IDs to check")
		return found, nil
	}

	var existing []uint64
	err := c.db.WithContext(ctx).Model(&model.Customer{}).Where("id IN ?", ids).Pluck("id", &existing).Error
	if err != nil {
		q.Fail("Failed to check customer IDs", err, zap.Int("count", len(ids)))
		return nil, fmt.Errorf("check customer ids: %w", err)
	}

	for _, id := range existing {
		found[id] = struct{}{}
	}

	q.Retrieved(len(existing))
	q.Done("Customer IDs checked", zap.Int("requested", len(ids)), zap.Int("found", len(existing)))

	return found, nil
}

func NewCustomerRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.CustomerRepository {
	return &customerRepository{
		db:      db,
		tracer:  tracer,
		log:     log,
		metrics: repository.NewDBMetrics(meter),
	}
}
