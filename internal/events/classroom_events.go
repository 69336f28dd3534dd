package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType names every event the classroom core emits
type EventType string

const (
	// Session events
	EventSessionUpdated EventType = "session.updated"
	EventSessionCleared EventType = "session.cleared"

	// Course events
	EventCourseCreated EventType = "course.created"
	EventCourseJoined  EventType = "course.joined"

	// Quiz events
	EventQuizStarted  EventType = "quiz.started"
	EventQuizFinished EventType = "quiz.finished"

	// Attempt events
	EventAttemptSubmitted EventType = "attempt.submitted"
)

const (
	eventSource  = "classroom-session"
	eventVersion = "1.0"
)

// Event is the envelope for all classroom events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent stamps a payload with a fresh id and the current time
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Payloads

type SessionUpdatedEvent struct {
	UserID   string `json:"user_id,omitempty"`
	CourseID string `json:"course_id"`
	Role     string `json:"role"`
}

type SessionClearedEvent struct {
	UserID string `json:"user_id,omitempty"`
}

type CourseCreatedEvent struct {
	CourseID       string `json:"course_id"`
	InstructorID   string `json:"instructor_id"`
	Name           string `json:"name"`
	EducationLevel string `json:"education_level"`
}

type CourseJoinedEvent struct {
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
}

type QuizStatusEvent struct {
	QuizID        string `json:"quiz_id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

type AttemptSubmittedEvent struct {
	AttemptID   string    `json:"attempt_id"`
	QuizName    string    `json:"quiz_name"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}
