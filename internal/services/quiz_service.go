package services

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/events"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/SAP-F-2025/classroom-session/internal/quizapi"
	"github.com/SAP-F-2025/classroom-session/internal/validator"
)

// InstructorQuizAPI is the part of the quiz service an instructor drives.
type InstructorQuizAPI interface {
	CreateQuiz(ctx context.Context, token string, options quizapi.QuizOptions) (*quizapi.CreateQuizResponse, error)
	InstructorCourseQuizzes(ctx context.Context, token string) ([]models.QuizSummary, error)
	NextQuestion(ctx context.Context, token, quizID string) (string, error)
	EditQuestions(ctx context.Context, token, quizID string, questions []string) error
	StartQuiz(ctx context.Context, token, quizID string) error
	FinishQuiz(ctx context.Context, token, quizID string) error
}

// QuizService creates instructor quizzes and lists the course's quizzes.
type QuizService interface {
	CreateQuiz(ctx context.Context, name string, questionLimit int, prompt string) (*InstructorQuiz, error)
	ListQuizzesForCourse(ctx context.Context) ([]models.QuizSummary, error)
	// FinishQuiz finishes a running quiz known only by id.
	FinishQuiz(ctx context.Context, quizID string) error
}

type quizService struct {
	tokens    TokenSource
	api       InstructorQuizAPI
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
}

func NewQuizService(tokens TokenSource, api InstructorQuizAPI, publisher events.EventPublisher, validator *validator.Validator, logger *ServiceLogger) QuizService {
	return &quizService{
		tokens:    tokens,
		api:       api,
		publisher: publisher,
		validator: validator,
		logger:    logger,
	}
}

type createQuizForm struct {
	Name          string `json:"name" validate:"required"`
	Prompt        string `json:"prompt" validate:"required"`
	QuestionLimit int    `json:"questionLimit" validate:"gt=0"`
}

func (s *quizService) CreateQuiz(ctx context.Context, name string, questionLimit int, prompt string) (quiz *InstructorQuiz, err error) {
	op := s.logger.WithOperation(ctx, "create_quiz", "")
	defer func() { op.LogResult(quiz.idOrEmpty(), "quiz", err) }()

	if strings.TrimSpace(name) == "" || strings.TrimSpace(prompt) == "" {
		return nil, apperrors.Validation(msgQuizFieldsEmpty)
	}
	if err := s.validator.Check(msgQuestionLimit, createQuizForm{Name: name, Prompt: prompt, QuestionLimit: questionLimit}); err != nil {
		return nil, err
	}

	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.api.CreateQuiz(ctx, token, quizapi.QuizOptions{Name: name, QuestionLimit: questionLimit, Prompt: prompt})
	if err != nil {
		return nil, err
	}

	return &InstructorQuiz{
		service:       s,
		id:            res.QuizID,
		name:          name,
		questionLimit: questionLimit,
		questions:     []string{res.FirstQuestion},
		status:        models.QuizStatusDraft,
	}, nil
}

func (s *quizService) ListQuizzesForCourse(ctx context.Context) ([]models.QuizSummary, error) {
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.InstructorCourseQuizzes(ctx, token)
}

func (s *quizService) FinishQuiz(ctx context.Context, quizID string) (err error) {
	op := s.logger.WithOperation(ctx, "finish_quiz", "")
	defer func() { op.LogResult(quizID, "quiz", err) }()

	if strings.TrimSpace(quizID) == "" {
		return apperrors.Validation(msgQuizIDMissing)
	}
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return err
	}
	if err := s.api.FinishQuiz(ctx, token, quizID); err != nil {
		return err
	}
	s.emit(ctx, events.EventQuizFinished, events.QuizStatusEvent{QuizID: quizID})
	return nil
}

func (s *quizService) emit(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.logger.WarnContext(ctx, "Failed to publish quiz event",
			"event_type", eventType,
			"error", FormatError(err))
	}
}

// ===== INSTRUCTOR QUIZ =====

// InstructorQuiz moves Draft -> Running -> Finished. Local state changes only after
// the matching remote call succeeded; mu is never held across a remote call.
type InstructorQuiz struct {
	service *quizService

	mu            sync.RWMutex
	id            string
	name          string
	questionLimit int
	questions     []string
	status        models.QuizStatus
}

func (q *InstructorQuiz) idOrEmpty() string {
	if q == nil {
		return ""
	}
	return q.ID()
}

func (q *InstructorQuiz) ID() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.id
}

func (q *InstructorQuiz) Name() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.name
}

func (q *InstructorQuiz) QuestionLimit() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.questionLimit
}

func (q *InstructorQuiz) Status() models.QuizStatus {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.status
}

// Questions returns a copy of the ordered question sequence.
func (q *InstructorQuiz) Questions() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]string(nil), q.questions...)
}

// NextQuestion asks the service for one more question and appends it.
func (q *InstructorQuiz) NextQuestion(ctx context.Context) (string, error) {
	q.mu.RLock()
	id, status, count, limit := q.id, q.status, len(q.questions), q.questionLimit
	q.mu.RUnlock()

	if status == models.QuizStatusFinished {
		return "", apperrors.InvalidTransition("cannot add questions to a finished quiz")
	}
	if count >= limit {
		return "", apperrors.Validation(msgQuestionLimitHit)
	}

	token, err := q.service.tokens.AuthorizationToken(ctx)
	if err != nil {
		return "", err
	}
	question, err := q.service.api.NextQuestion(ctx, token, id)
	if err != nil {
		return "", err
	}

	q.mu.Lock()
	q.questions = append(q.questions, question)
	q.mu.Unlock()
	return question, nil
}

// EditQuestions replaces the whole sequence. Only a draft can be edited.
func (q *InstructorQuiz) EditQuestions(ctx context.Context, questions []string) error {
	q.mu.RLock()
	id, status, limit := q.id, q.status, q.questionLimit
	q.mu.RUnlock()

	if status != models.QuizStatusDraft {
		return apperrors.InvalidTransition("only a draft quiz can be edited")
	}
	if err := q.service.validator.Question().ValidateQuestions(questions, limit); err != nil {
		return err
	}

	replacement := append([]string(nil), questions...)
	token, err := q.service.tokens.AuthorizationToken(ctx)
	if err != nil {
		return err
	}
	if err := q.service.api.EditQuestions(ctx, token, id, replacement); err != nil {
		return err
	}

	q.mu.Lock()
	q.questions = replacement
	q.mu.Unlock()
	return nil
}

func (q *InstructorQuiz) Start(ctx context.Context) (err error) {
	op := q.service.logger.WithOperation(ctx, "start_quiz", "")
	defer func() { op.LogResult(q.ID(), "quiz", err) }()

	q.mu.RLock()
	id, status := q.id, q.status
	q.mu.RUnlock()

	if status != models.QuizStatusDraft {
		return apperrors.InvalidTransition("only a draft quiz can be started")
	}

	token, err := q.service.tokens.AuthorizationToken(ctx)
	if err != nil {
		return err
	}
	if err := q.service.api.StartQuiz(ctx, token, id); err != nil {
		return err
	}

	q.mu.Lock()
	q.status = models.QuizStatusRunning
	event := events.QuizStatusEvent{QuizID: q.id, Name: q.name, QuestionCount: len(q.questions)}
	q.mu.Unlock()

	q.service.emit(ctx, events.EventQuizStarted, event)
	return nil
}

func (q *InstructorQuiz) Finish(ctx context.Context) (err error) {
	op := q.service.logger.WithOperation(ctx, "finish_quiz", "")
	defer func() { op.LogResult(q.ID(), "quiz", err) }()

	q.mu.RLock()
	id, status := q.id, q.status
	q.mu.RUnlock()

	if status != models.QuizStatusRunning {
		return apperrors.InvalidTransition("only a running quiz can be finished")
	}

	token, err := q.service.tokens.AuthorizationToken(ctx)
	if err != nil {
		return err
	}
	if err := q.service.api.FinishQuiz(ctx, token, id); err != nil {
		return err
	}

	q.mu.Lock()
	q.status = models.QuizStatusFinished
	event := events.QuizStatusEvent{QuizID: q.id, Name: q.name, QuestionCount: len(q.questions)}
	q.mu.Unlock()

	q.service.emit(ctx, events.EventQuizFinished, event)
	return nil
}
