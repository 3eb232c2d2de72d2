package notify

import (
	"context"
	"database/sql"
	"encoding/json"

	"go-tenantops/internal/messaging/kafka"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is an outbound notification. Delivery is fire-and-forget: the
// core never waits on it and a delivery failure never fails a transition.
type Event struct {
	Name          string
	Topic         string
	AggregateType string
	AggregateID   string
	TenantID      string
	Payload       any
}

//go:generate mockgen -source=notifier.go -destination=mock/notifier_mock.go -package=mock
type Notifier interface {
	// WithTx binds the notifier to the caller's transaction so the
	// notification record commits or rolls back with the state change.
	WithTx(tx *sql.Tx) Notifier
	Notify(ctx context.Context, event Event)
}

type noopNotifier struct{}

func NewNoopNotifier() Notifier { return noopNotifier{} }

func (noopNotifier) WithTx(*sql.Tx) Notifier       { return noopNotifier{} }
func (noopNotifier) Notify(context.Context, Event) {}

type outboxNotifier struct {
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewOutboxNotifier(outbox kafka.OutboxRepository, logger ...*zap.Logger) Notifier {
	l := zap.L().Named("notify.outbox")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.outbox")
	}
	return &outboxNotifier{outbox: outbox, logger: l}
}

func (n *outboxNotifier) WithTx(tx *sql.Tx) Notifier {
	return &outboxNotifier{outbox: n.outbox.WithTx(tx), logger: n.logger}
}

func (n *outboxNotifier) Notify(ctx context.Context, event Event) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		n.logger.Error("notify payload marshal failed",
			zap.String("event", event.Name),
			zap.Error(err),
		)
		return
	}

	record := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		TenantID:      event.TenantID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.Name,
		Topic:         event.Topic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}

	if err := kafka.ValidateOutboxEvent(record); err != nil {
		n.logger.Error("notify event invalid", zap.String("event", event.Name), zap.Error(err))
		return
	}

	if err := n.outbox.Create(ctx, record); err != nil {
		n.logger.Error("notify outbox write failed",
			zap.String("event", event.Name),
			zap.String("aggregate_id", event.AggregateID),
			zap.Error(err),
		)
	}
}
