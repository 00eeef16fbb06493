package consumers

import (
	"context"

	"github.com/workledger/workledger-backend/internal/ledger/service"
	staff "github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/actor"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/messaging"
	"github.com/workledger/workledger-backend/pkg/period"
	"github.com/workledger/workledger-backend/pkg/tenant"
)

// GenerationQueue receives generation requests published by other services
const GenerationQueue = "ledger-service.generation"

// TenantLookup resolves a tenant of the registry
type TenantLookup interface {
	GetByID(ctx context.Context, id string) (*staff.Tenant, error)
}

// GenerationConsumer runs a batch generation for each ledger.generation.requested event
type GenerationConsumer struct {
	consumer  *messaging.Consumer
	generator service.Generator
	tenants   TenantLookup
	logger    *logger.Logger
}

// NewGenerationConsumer creates the consumer and binds it to generation requests
func NewGenerationConsumer(rmq *messaging.RabbitMQ, generator service.Generator, tenants TenantLookup, log *logger.Logger) (*GenerationConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, GenerationQueue, log)
	if err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeLedgerEvents, messaging.EventLedgerGenerationRequested); err != nil {
		return nil, err
	}

	c := NewGenerationHandler(generator, tenants, log)
	c.consumer = consumer
	consumer.RegisterHandler(messaging.EventLedgerGenerationRequested, c.HandleGenerationRequested)
	return c, nil
}

// NewGenerationHandler builds the handler without a broker connection
func NewGenerationHandler(generator service.Generator, tenants TenantLookup, log *logger.Logger) *GenerationConsumer {
	return &GenerationConsumer{
		generator: generator,
		tenants:   tenants,
		logger:    log.WithComponent("generation-consumer"),
	}
}

// Start starts consuming messages
func (c *GenerationConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// HandleGenerationRequested generates the requested tenant period as the system actor.
// Requests for an invalid period or an unknown or inactive tenant are dropped.
func (c *GenerationConsumer) HandleGenerationRequested(ctx context.Context, event *messaging.Event) error {
	var data messaging.GenerationRequestedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	log := c.logger.WithCorrelationID(event.CorrelationID).WithTenantID(data.TenantID)

	p, err := period.New(data.Month, data.Year)
	if err != nil {
		log.Warn().Err(err).Msg("dropping generation request with invalid period")
		return nil
	}

	t, err := c.tenants.GetByID(ctx, data.TenantID)
	if errors.Is(err, errors.ErrNotFound) || (err == nil && !t.Active) {
		log.Warn().Msg("dropping generation request for unknown or inactive tenant")
		return nil
	}
	if err != nil {
		return err
	}

	ctx = tenant.WithTenantContext(ctx, t.ID, t.Slug)
	ctx = actor.WithActor(ctx, actor.SystemActor(t.ID))

	_, err = c.generator.GeneratePeriod(ctx, p, service.TriggerEvent)
	return err
}
