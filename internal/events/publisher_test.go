package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatermillEventPublisher_Publish(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), "classroom-session")
	require.NoError(t, err)

	publisher := NewWatermillEventPublisher(pubSub, "classroom-session", discardLogger())
	event := NewEvent(EventCourseJoined, CourseJoinedEvent{CourseID: "c-1", StudentID: "s-1"})

	require.NoError(t, publisher.Publish(context.Background(), event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(EventCourseJoined), msg.Metadata.Get("event_type"))
		assert.Equal(t, "classroom-session", msg.Metadata.Get("source"))

		var decoded Event
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventCourseJoined, decoded.Type)
		data, ok := decoded.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "c-1", data["course_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(discardLogger())

	require.NoError(t, publisher.Publish(context.Background(), NewEvent(EventSessionUpdated, SessionUpdatedEvent{CourseID: "c-1", Role: "STUDENT"})))
	require.NoError(t, publisher.Publish(context.Background(), NewEvent(EventSessionCleared, SessionClearedEvent{})))

	assert.Len(t, publisher.GetPublishedEvents(), 2)
	assert.Len(t, publisher.EventsOfType(EventSessionCleared), 1)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestNewEventAssignsIdentity(t *testing.T) {
	a := NewEvent(EventQuizStarted, QuizStatusEvent{QuizID: "q-1"})
	b := NewEvent(EventQuizStarted, QuizStatusEvent{QuizID: "q-1"})

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "1.0", a.Version)
	assert.False(t, a.Timestamp.IsZero())
}
