package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Sink is where audit events end up. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// MemorySink collects events in memory for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// SlogSink writes events to the structured log. It is the default sink when
// no message broker is configured.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"action", string(event.Action),
		"user_id", event.UserID,
		"resource", event.Resource,
		"outcome", event.Outcome,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)
	return nil
}
