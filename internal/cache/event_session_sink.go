package cache

import (
	"context"

	"github.com/SAP-F-2025/classroom-session/internal/events"
	"github.com/SAP-F-2025/classroom-session/internal/models"
)

// EventSessionSink announces session changes on the event bus.
type EventSessionSink struct {
	publisher events.EventPublisher
}

func NewEventSessionSink(publisher events.EventPublisher) *EventSessionSink {
	return &EventSessionSink{publisher: publisher}
}

func (s *EventSessionSink) Publish(ctx context.Context, session models.SessionDetails) error {
	return s.publisher.Publish(ctx, events.NewEvent(events.EventSessionUpdated, events.SessionUpdatedEvent{
		CourseID: session.CourseID,
		Role:     string(session.Role),
	}))
}

func (s *EventSessionSink) Clear(ctx context.Context) error {
	return s.publisher.Publish(ctx, events.NewEvent(events.EventSessionCleared, events.SessionClearedEvent{}))
}
