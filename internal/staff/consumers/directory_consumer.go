package consumers

import (
	"context"

	"github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/messaging"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

// DirectoryQueue is the queue the ledger service reads directory events from
const DirectoryQueue = "ledger-service.directory"

// EmployeeStore is the part of the employee repository the consumer writes to
type EmployeeStore interface {
	Upsert(ctx context.Context, emp *domain.Employee) error
	Deactivate(ctx context.Context, id string) error
}

// TenantStore is the part of the tenant repository the consumer writes to
type TenantStore interface {
	Upsert(ctx context.Context, t *domain.Tenant) error
}

// DirectoryConsumer keeps the local employee directory and tenant registry in sync
// with the staff and tenant services.
type DirectoryConsumer struct {
	consumer  *messaging.Consumer
	employees EmployeeStore
	tenants   TenantStore
	logger    *logger.Logger
}

// NewDirectoryConsumer creates the consumer and binds it to staff and tenant events
func NewDirectoryConsumer(
	rmq *messaging.RabbitMQ,
	employees EmployeeStore,
	tenants TenantStore,
	log *logger.Logger,
) (*DirectoryConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, DirectoryQueue, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeStaffEvents, "staff.employee.#"); err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeTenantEvents, "tenant.#"); err != nil {
		return nil, err
	}

	c := NewDirectoryHandlers(employees, tenants, log)
	c.consumer = consumer
	c.Register(consumer)

	return c, nil
}

// NewDirectoryHandlers builds the handlers without a broker connection
func NewDirectoryHandlers(employees EmployeeStore, tenants TenantStore, log *logger.Logger) *DirectoryConsumer {
	return &DirectoryConsumer{
		employees: employees,
		tenants:   tenants,
		logger:    log.WithComponent("directory-consumer"),
	}
}

// Register attaches the handlers to a consumer
func (c *DirectoryConsumer) Register(consumer *messaging.Consumer) {
	consumer.RegisterHandler(messaging.EventEmployeeCreated, c.HandleEmployeeUpserted)
	consumer.RegisterHandler(messaging.EventEmployeeUpdated, c.HandleEmployeeUpserted)
	consumer.RegisterHandler(messaging.EventEmployeeDeleted, c.HandleEmployeeDeleted)
	consumer.RegisterHandler(messaging.EventTenantCreated, c.HandleTenantUpserted)
	consumer.RegisterHandler(messaging.EventTenantUpdated, c.HandleTenantUpserted)
}

// Start starts consuming messages
func (c *DirectoryConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// HandleEmployeeUpserted stores the employee profile carried by a created or updated event
func (c *DirectoryConsumer) HandleEmployeeUpserted(ctx context.Context, event *messaging.Event) error {
	var data messaging.EmployeeEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	emp := &domain.Employee{
		ID:       data.EmployeeID,
		TenantID: data.TenantID,
		Name:     data.Name,
		Role:     domain.Role(data.Role),
		Wage:     domain.WageBasis{Kind: domain.WageKind(data.WageBasis), Amount: data.WageAmount},
		Active:   data.Active,
	}
	if err := emp.Validate(); err != nil {
		// Redelivery cannot fix a malformed profile
		c.logger.Warn().Err(err).Str("employee_id", data.EmployeeID).Msg("dropping invalid employee event")
		return nil
	}

	ctx = tenant.WithTenantID(ctx, data.TenantID)
	if err := c.employees.Upsert(ctx, emp); err != nil {
		return err
	}

	c.logger.Info().
		Str("employee_id", emp.ID).
		Str("tenant_id", emp.TenantID).
		Str("event_type", event.Type).
		Msg("employee directory updated")
	return nil
}

// HandleEmployeeDeleted deactivates the employee. Ledger history is retained.
func (c *DirectoryConsumer) HandleEmployeeDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.EmployeeDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	ctx = tenant.WithTenantID(ctx, data.TenantID)
	err := c.employees.Deactivate(ctx, data.EmployeeID)
	if errors.Is(err, errors.ErrNotFound) {
		c.logger.Debug().Str("employee_id", data.EmployeeID).Msg("deleted employee was never synced")
		return nil
	}
	return err
}

// HandleTenantUpserted stores tenant registry data, including the scheduling timezone
func (c *DirectoryConsumer) HandleTenantUpserted(ctx context.Context, event *messaging.Event) error {
	var data messaging.TenantEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.TenantID == "" || data.Slug == "" {
		c.logger.Warn().Str("tenant_id", data.TenantID).Msg("dropping tenant event without id or slug")
		return nil
	}

	return c.tenants.Upsert(ctx, &domain.Tenant{
		ID:       data.TenantID,
		Name:     data.Name,
		Slug:     data.Slug,
		Timezone: data.Timezone,
		Active:   data.Active,
	})
}
