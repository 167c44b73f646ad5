package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher captures structured audit events. With an async buffer it
// enqueues for the worker; without one it appends to the sink inline. Either
// way emission is best-effort and never fails the originating request.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	inbox  chan Event
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking: events go through a channel of the
// given size and a Worker drains them. When the buffer is full the event is
// dropped and logged rather than stalling the request path.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

func NewPublisher(sink Sink, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records an event, stamping the time if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", string(event.Action),
				"user_id", event.UserID,
			)
		}
		return
	}

	if err := p.sink.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to append audit event",
			"error", err,
			"action", string(event.Action),
		)
	}
}

// Inbox exposes the async channel for the worker; nil in sync mode.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }
