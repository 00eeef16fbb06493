package events

import (
	"context"

	"github.com/workledger/workledger-backend/internal/ledger/domain"
	"github.com/workledger/workledger-backend/pkg/actor"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/messaging"
)

// LedgerEventPublisher publishes ledger changes on ledger.events. A failed publish is
// logged and never fails the ledger operation that triggered it.
type LedgerEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewLedgerEventPublisher creates a new ledger event publisher
func NewLedgerEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*LedgerEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeLedgerEvents, "ledger-service", log)
	if err != nil {
		return nil, err
	}
	return NewLedgerEventPublisherWith(publisher, log), nil
}

// NewLedgerEventPublisherWith wraps an existing publisher
func NewLedgerEventPublisherWith(publisher messaging.EventPublisher, log *logger.Logger) *LedgerEventPublisher {
	return &LedgerEventPublisher{publisher: publisher, logger: log}
}

// PublishCreated publishes a ledger entry created event
func (p *LedgerEventPublisher) PublishCreated(ctx context.Context, e *domain.Entry) {
	p.publish(ctx, messaging.EventLedgerEntryCreated, snapshot(ctx, e))
}

// PublishAdjusted publishes the entry after an adjustment, with the applied deltas
func (p *LedgerEventPublisher) PublishAdjusted(ctx context.Context, e *domain.Entry, adj domain.Adjustment) {
	p.publish(ctx, messaging.EventLedgerEntryAdjusted, messaging.LedgerAdjustedEvent{
		LedgerEntryEvent: snapshot(ctx, e),
		AdvanceDelta:     adj.Advance,
		LoanTakenDelta:   adj.LoanTaken,
		LoanPaidDelta:    adj.LoanPaid,
	})
}

// PublishClosed publishes a ledger entry closed event
func (p *LedgerEventPublisher) PublishClosed(ctx context.Context, e *domain.Entry) {
	p.publish(ctx, messaging.EventLedgerEntryClosed, snapshot(ctx, e))
}

// PublishDeleted publishes a ledger entry deleted event
func (p *LedgerEventPublisher) PublishDeleted(ctx context.Context, e *domain.Entry) {
	p.publish(ctx, messaging.EventLedgerEntryDeleted, snapshot(ctx, e))
}

// PublishGenerationCompleted publishes the outcome of a batch generation
func (p *LedgerEventPublisher) PublishGenerationCompleted(ctx context.Context, data messaging.GenerationCompletedEvent) {
	p.publish(ctx, messaging.EventLedgerGenerationCompleted, data)
}

func (p *LedgerEventPublisher) publish(ctx context.Context, eventType string, data interface{}) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", eventType).
			Msg("failed to publish ledger event")
	}
}

func snapshot(ctx context.Context, e *domain.Entry) messaging.LedgerEntryEvent {
	return messaging.LedgerEntryEvent{
		EntryID:       e.ID,
		TenantID:      e.TenantID,
		EmployeeID:    e.EmployeeID,
		Month:         e.Period.Month,
		Year:          e.Period.Year,
		BasePay:       e.BasePay,
		Advance:       e.Advance,
		LoanTaken:     e.LoanTaken,
		LoanPaid:      e.LoanPaid,
		LoanRemaining: e.LoanRemaining,
		FinalPayable:  e.FinalPayable,
		ActorID:       actor.IDFromContext(ctx),
	}
}
