package services

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/events"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/SAP-F-2025/classroom-session/internal/quizapi"
)

// StudentQuizAPI is the part of the quiz service a student drives.
type StudentQuizAPI interface {
	StudentCourseQuizzes(ctx context.Context, token string) ([]models.QuizSummary, error)
	CreateAttempt(ctx context.Context, token, quizID string) (*quizapi.CreateAttemptResponse, error)
	GetAttempt(ctx context.Context, token, attemptID string) (*models.AttemptDetails, error)
	SubmitAttempt(ctx context.Context, token, attemptID string, answers []string) (int, error)
	WeeklySummary(ctx context.Context, token string) (*models.WeeklySummary, error)
}

// AttemptService starts student attempts and serves the student's read paths.
type AttemptService interface {
	CreateAttempt(ctx context.Context, quizID string) (*StudentAttempt, error)
	GetAttempt(ctx context.Context, attemptID string) (*models.AttemptDetails, error)
	ListQuizzesForCourse(ctx context.Context) ([]models.QuizSummary, error)
	WeeklySummary(ctx context.Context) (*models.WeeklySummary, error)
}

type attemptService struct {
	tokens    TokenSource
	api       StudentQuizAPI
	publisher events.EventPublisher
	logger    *ServiceLogger
}

func NewAttemptService(tokens TokenSource, api StudentQuizAPI, publisher events.EventPublisher, logger *ServiceLogger) AttemptService {
	return &attemptService{
		tokens:    tokens,
		api:       api,
		publisher: publisher,
		logger:    logger,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) CreateAttempt(ctx context.Context, quizID string) (attempt *StudentAttempt, err error) {
	op := s.logger.WithOperation(ctx, "create_attempt", "")
	defer func() { op.LogResult(quizID, "quiz", err) }()

	if strings.TrimSpace(quizID) == "" {
		return nil, apperrors.Validation(msgQuizIDMissing)
	}

	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.api.CreateAttempt(ctx, token, quizID)
	if err != nil {
		return nil, err
	}

	return &StudentAttempt{
		service:   s,
		id:        res.QuizAttemptID,
		quizID:    quizID,
		quizName:  res.QuizName,
		questions: append([]string(nil), res.Questions...),
		answers:   []string{},
	}, nil
}

func (s *attemptService) GetAttempt(ctx context.Context, attemptID string) (*models.AttemptDetails, error) {
	if strings.TrimSpace(attemptID) == "" {
		return nil, apperrors.Validation(msgAttemptIDMissing)
	}
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.GetAttempt(ctx, token, attemptID)
}

func (s *attemptService) ListQuizzesForCourse(ctx context.Context) ([]models.QuizSummary, error) {
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.StudentCourseQuizzes(ctx, token)
}

func (s *attemptService) WeeklySummary(ctx context.Context) (*models.WeeklySummary, error) {
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.WeeklySummary(ctx, token)
}

// ===== STUDENT ATTEMPT =====

// StudentAttempt moves Active -> Finished -> Scored. It is Finished once every
// question has an answer and Scored once the service returned a score.
type StudentAttempt struct {
	service *attemptService

	mu        sync.RWMutex
	id        string
	quizID    string
	quizName  string
	questions []string
	answers   []string
	score     *int
}

func (a *StudentAttempt) ID() string {
	return a.id
}

func (a *StudentAttempt) QuizID() string {
	return a.quizID
}

func (a *StudentAttempt) QuizName() string {
	return a.quizName
}

func (a *StudentAttempt) Questions() []string {
	return append([]string(nil), a.questions...)
}

func (a *StudentAttempt) Answers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.answers...)
}

func (a *StudentAttempt) Status() models.AttemptStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.statusLocked()
}

func (a *StudentAttempt) statusLocked() models.AttemptStatus {
	switch {
	case a.score != nil:
		return models.AttemptStatusScored
	case len(a.answers) >= len(a.questions):
		return models.AttemptStatusFinished
	default:
		return models.AttemptStatusActive
	}
}

func (a *StudentAttempt) IsFinished() bool {
	return a.Status() != models.AttemptStatusActive
}

// AddAnswer appends the answer to the current question. Once every question is
// answered it does nothing and reports false.
func (a *StudentAttempt) AddAnswer(answer string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.statusLocked() != models.AttemptStatusActive {
		return false
	}
	a.answers = append(a.answers, answer)
	return true
}

// CurrentQuestionNumber is 1-based and never runs past the last question.
func (a *StudentAttempt) CurrentQuestionNumber() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return min(len(a.answers)+1, len(a.questions))
}

func (a *StudentAttempt) CurrentQuestion() (string, bool) {
	n := a.CurrentQuestionNumber()
	if n == 0 {
		return "", false
	}
	return a.questions[n-1], true
}

// FinalScore reports the score once the attempt has been submitted.
func (a *StudentAttempt) FinalScore() (int, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.score == nil {
		return 0, false
	}
	return *a.score, true
}

// Submit sends every answer to the scorer. The score is set exactly once.
func (a *StudentAttempt) Submit(ctx context.Context) (score int, err error) {
	op := a.service.logger.WithOperation(ctx, "submit_attempt", "")
	defer func() { op.LogResult(a.id, "attempt", err) }()

	a.mu.RLock()
	status := a.statusLocked()
	answers := append([]string(nil), a.answers...)
	a.mu.RUnlock()

	switch status {
	case models.AttemptStatusScored:
		return 0, apperrors.Conflict(msgAttemptScored)
	case models.AttemptStatusActive:
		return 0, apperrors.InvalidTransition(msgAttemptNotFinished)
	}

	token, err := a.service.tokens.AuthorizationToken(ctx)
	if err != nil {
		return 0, err
	}
	score, err = a.service.api.SubmitAttempt(ctx, token, a.id, answers)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	if a.score != nil {
		a.mu.Unlock()
		return 0, apperrors.Conflict(msgAttemptScored)
	}
	a.score = &score
	a.mu.Unlock()

	if a.service.publisher != nil {
		event := events.NewEvent(events.EventAttemptSubmitted, events.AttemptSubmittedEvent{
			AttemptID:   a.id,
			QuizName:    a.quizName,
			Score:       score,
			SubmittedAt: time.Now().UTC(),
		})
		if err := a.service.publisher.Publish(ctx, event); err != nil {
			a.service.logger.logger.WarnContext(ctx, "Failed to publish attempt event", "attempt_id", a.id, "error", FormatError(err))
		}
	}
	return score, nil
}
