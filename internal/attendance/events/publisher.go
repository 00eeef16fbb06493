package events

import (
	"context"

	"github.com/workledger/workledger-backend/internal/attendance/domain"
	"github.com/workledger/workledger-backend/pkg/actor"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/messaging"
)

// AttendanceEventPublisher publishes attendance changes. Failures are logged only.
type AttendanceEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewAttendanceEventPublisher declares the attendance exchange and returns a publisher on it
func NewAttendanceEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AttendanceEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAttendanceEvents, "ledger-service", log)
	if err != nil {
		return nil, err
	}
	return NewAttendanceEventPublisherWith(publisher, log), nil
}

// NewAttendanceEventPublisherWith wraps an existing publisher
func NewAttendanceEventPublisherWith(publisher messaging.EventPublisher, log *logger.Logger) *AttendanceEventPublisher {
	return &AttendanceEventPublisher{publisher: publisher, logger: log}
}

// PublishRecorded publishes an attendance recorded event
func (p *AttendanceEventPublisher) PublishRecorded(ctx context.Context, rec *domain.Record) {
	p.publish(ctx, messaging.EventAttendanceRecorded, rec)
}

// PublishCorrected publishes an attendance corrected event
func (p *AttendanceEventPublisher) PublishCorrected(ctx context.Context, rec *domain.Record) {
	p.publish(ctx, messaging.EventAttendanceCorrected, rec)
}

// PublishDeleted publishes an attendance deleted event
func (p *AttendanceEventPublisher) PublishDeleted(ctx context.Context, rec *domain.Record) {
	p.publish(ctx, messaging.EventAttendanceDeleted, rec)
}

func (p *AttendanceEventPublisher) publish(ctx context.Context, eventType string, rec *domain.Record) {
	data := messaging.AttendanceEvent{
		RecordID:    rec.ID,
		TenantID:    rec.TenantID,
		EmployeeID:  rec.EmployeeID,
		WorkDate:    rec.WorkDate.Format("2006-01-02"),
		HoursWorked: rec.HoursWorked,
		WageEarned:  rec.WageEarned,
		ActorID:     actor.IDFromContext(ctx),
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("record_id", rec.ID).
			Msg("failed to publish attendance event")
	}
}
