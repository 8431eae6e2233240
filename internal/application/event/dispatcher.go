package event

import (
	"context"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Handler reacts to domain events after the transaction that raised them
// has committed
type Handler interface {
	Handle(ctx context.Context, event shared.DomainEvent)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, event shared.DomainEvent)

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) {
	f(ctx, event)
}

// Dispatcher fans committed events out to handlers synchronously
type Dispatcher struct {
	logger   *zap.Logger
	handlers []Handler
}

// NewDispatcher creates a dispatcher. A nil logger disables event logging.
func NewDispatcher(logger *zap.Logger, handlers ...Handler) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger, handlers: handlers}
}

// Subscribe adds a handler
func (d *Dispatcher) Subscribe(h Handler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch logs each event and passes it to every handler. A nil
// dispatcher drops the events.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...shared.DomainEvent) {
	if d == nil {
		return
	}
	for _, e := range events {
		d.logger.Debug("domain event",
			zap.String("event_type", e.EventType()),
			zap.String("aggregate_type", e.AggregateType()),
			zap.String("aggregate_id", e.AggregateID().String()),
		)
		for _, h := range d.handlers {
			h.Handle(ctx, e)
		}
	}
}

// Collect drains the pending events of the given aggregates
func Collect(aggregates ...shared.AggregateRoot) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, a := range aggregates {
		if a == nil {
			continue
		}
		out = append(out, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	return out
}
