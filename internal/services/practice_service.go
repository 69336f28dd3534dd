package services

import (
	"context"
	"strings"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/quizapi"
)

// PracticeQuizAPI is the self-study part of the quiz service.
type PracticeQuizAPI interface {
	StartPractice(ctx context.Context, token, prompt string) (*quizapi.PracticeStartResponse, error)
	GetPractice(ctx context.Context, token, practiceQuizID string) (*quizapi.PracticeStatus, error)
	AnswerPractice(ctx context.Context, token, practiceQuizID, answer string) (string, error)
	ContinuePractice(ctx context.Context, token, practiceQuizID string) (*quizapi.PracticeContinueResponse, error)
}

// PracticeService runs ungraded practice quizzes. The service keeps the
// progress, so nothing is held locally between calls.
type PracticeService interface {
	Start(ctx context.Context, prompt string) (*quizapi.PracticeStartResponse, error)
	Answer(ctx context.Context, practiceQuizID, answer string) (string, error)
	// Continue returns the next problem, or the score once none are left.
	Continue(ctx context.Context, practiceQuizID string) (*quizapi.PracticeContinueResponse, error)
	Get(ctx context.Context, practiceQuizID string) (*quizapi.PracticeStatus, error)
}

type practiceService struct {
	tokens TokenSource
	api    PracticeQuizAPI
	logger *ServiceLogger
}

func NewPracticeService(tokens TokenSource, api PracticeQuizAPI, logger *ServiceLogger) PracticeService {
	return &practiceService{tokens: tokens, api: api, logger: logger}
}

func (s *practiceService) Start(ctx context.Context, prompt string) (res *quizapi.PracticeStartResponse, err error) {
	op := s.logger.WithOperation(ctx, "start_practice", "")
	defer func() {
		id := ""
		if res != nil {
			id = res.PracticeQuizID
		}
		op.LogResult(id, "practice_quiz", err)
	}()

	if strings.TrimSpace(prompt) == "" {
		return nil, apperrors.Validation(msgPromptEmpty)
	}
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.StartPractice(ctx, token, prompt)
}

func (s *practiceService) Answer(ctx context.Context, practiceQuizID, answer string) (feedback string, err error) {
	op := s.logger.WithOperation(ctx, "answer_practice", "")
	defer func() { op.LogResult(practiceQuizID, "practice_quiz", err) }()

	if strings.TrimSpace(practiceQuizID) == "" {
		return "", apperrors.Validation(msgPracticeIDMissing)
	}
	if strings.TrimSpace(answer) == "" {
		return "", apperrors.Validation(msgAnswerEmpty)
	}
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return "", err
	}
	return s.api.AnswerPractice(ctx, token, practiceQuizID, answer)
}

func (s *practiceService) Continue(ctx context.Context, practiceQuizID string) (*quizapi.PracticeContinueResponse, error) {
	if strings.TrimSpace(practiceQuizID) == "" {
		return nil, apperrors.Validation(msgPracticeIDMissing)
	}
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.ContinuePractice(ctx, token, practiceQuizID)
}

func (s *practiceService) Get(ctx context.Context, practiceQuizID string) (*quizapi.PracticeStatus, error) {
	if strings.TrimSpace(practiceQuizID) == "" {
		return nil, apperrors.Validation(msgPracticeIDMissing)
	}
	token, err := s.tokens.AuthorizationToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.GetPractice(ctx, token, practiceQuizID)
}
