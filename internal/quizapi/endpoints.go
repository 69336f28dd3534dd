package quizapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/SAP-F-2025/classroom-session/internal/models"
)

// ===== INSTRUCTOR QUIZZES =====

type QuizOptions struct {
	Name          string `json:"name"`
	QuestionLimit int    `json:"questionLimit"`
	Prompt        string `json:"prompt"`
}

type createQuizRequest struct {
	Options QuizOptions `json:"options"`
}

type CreateQuizResponse struct {
	QuizID        string `json:"quizId"`
	FirstQuestion string `json:"firstQuestion"`
}

type quizListResponse struct {
	Quizs []models.QuizSummary `json:"quizs"`
}

type nextQuestionResponse struct {
	Question string `json:"question"`
}

type editQuestionsRequest struct {
	Questions []string `json:"questions"`
}

func (c *Client) CreateQuiz(ctx context.Context, token string, options QuizOptions) (*CreateQuizResponse, error) {
	var res CreateQuizResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/quizs",
		Body:      createQuizRequest{Options: options},
		Token:     token,
		Operation: "create quiz",
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) InstructorCourseQuizzes(ctx context.Context, token string) ([]models.QuizSummary, error) {
	return c.courseQuizzes(ctx, token, "/quizs/course/instructor", "list instructor quizzes")
}

func (c *Client) StudentCourseQuizzes(ctx context.Context, token string) ([]models.QuizSummary, error) {
	return c.courseQuizzes(ctx, token, "/quizs/course/student", "list student quizzes")
}

func (c *Client) courseQuizzes(ctx context.Context, token, path, operation string) ([]models.QuizSummary, error) {
	var res quizListResponse
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Token: token, Operation: operation}, &res)
	if err != nil {
		return nil, err
	}
	if res.Quizs == nil {
		return []models.QuizSummary{}, nil
	}
	return res.Quizs, nil
}

func (c *Client) NextQuestion(ctx context.Context, token, quizID string) (string, error) {
	var res nextQuestionResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/quizs/" + url.PathEscape(quizID) + "/next-question",
		Token:     token,
		Operation: "next question",
	}, &res)
	if err != nil {
		return "", err
	}
	return res.Question, nil
}

func (c *Client) EditQuestions(ctx context.Context, token, quizID string, questions []string) error {
	return c.Do(ctx, Request{
		Method:    http.MethodPut,
		Path:      "/quizs/" + url.PathEscape(quizID) + "/questions",
		Body:      editQuestionsRequest{Questions: questions},
		Token:     token,
		Operation: "edit questions",
	}, nil)
}

func (c *Client) StartQuiz(ctx context.Context, token, quizID string) error {
	return c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/quizs/" + url.PathEscape(quizID) + "/start",
		Token:     token,
		Operation: "start quiz",
	}, nil)
}

func (c *Client) FinishQuiz(ctx context.Context, token, quizID string) error {
	return c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/quizs/" + url.PathEscape(quizID) + "/finish",
		Token:     token,
		Operation: "finish quiz",
	}, nil)
}

// ===== STUDENT ATTEMPTS =====

type CreateAttemptResponse struct {
	QuizAttemptID string   `json:"quizAttemptId"`
	QuizName      string   `json:"quizName"`
	Questions     []string `json:"questions"`
}

type getAttemptResponse struct {
	QuizAttempt models.AttemptDetails `json:"quizAttempt"`
}

type submitAttemptRequest struct {
	Answers []string `json:"answers"`
}

type submitAttemptResponse struct {
	Score int `json:"score"`
}

type weeklySummaryResponse struct {
	WeeklySummary models.WeeklySummary `json:"weeklySummary"`
}

func (c *Client) CreateAttempt(ctx context.Context, token, quizID string) (*CreateAttemptResponse, error) {
	var res CreateAttemptResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/quizs/" + url.PathEscape(quizID) + "/attempts",
		Token:     token,
		Operation: "create attempt",
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetAttempt(ctx context.Context, token, attemptID string) (*models.AttemptDetails, error) {
	var res getAttemptResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodGet,
		Path:      "/quiz-attempts/" + url.PathEscape(attemptID),
		Token:     token,
		Operation: "get attempt",
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res.QuizAttempt, nil
}

func (c *Client) SubmitAttempt(ctx context.Context, token, attemptID string, answers []string) (int, error) {
	var res submitAttemptResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/quiz-attempts/" + url.PathEscape(attemptID) + "/submit",
		Body:      submitAttemptRequest{Answers: answers},
		Token:     token,
		Operation: "submit attempt",
	}, &res)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

func (c *Client) WeeklySummary(ctx context.Context, token string) (*models.WeeklySummary, error) {
	var res weeklySummaryResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodGet,
		Path:      "/users/weekly-summary",
		Token:     token,
		Operation: "weekly summary",
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res.WeeklySummary, nil
}

// ===== PRACTICE QUIZZES =====

type PracticeStartResponse struct {
	Problem        string `json:"problem"`
	PracticeQuizID string `json:"practiceQuizId"`
}

// PracticeStatus carries either a progress message or the final score.
type PracticeStatus struct {
	Message *string `json:"message,omitempty"`
	Score   *int    `json:"score,omitempty"`
}

type practiceAnswerRequest struct {
	Answer string `json:"answer"`
}

type practiceAnswerResponse struct {
	Feedback string `json:"feedback"`
}

// PracticeContinueResponse has a new problem, or the score once no problems are left.
type PracticeContinueResponse struct {
	Problem *string `json:"problem,omitempty"`
	Score   *int    `json:"score,omitempty"`
}

func (c *Client) StartPractice(ctx context.Context, token, prompt string) (*PracticeStartResponse, error) {
	var res PracticeStartResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/practice-quizs",
		Query:     url.Values{"prompt": {prompt}},
		Token:     token,
		Operation: "start practice quiz",
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetPractice(ctx context.Context, token, practiceQuizID string) (*PracticeStatus, error) {
	var res PracticeStatus
	err := c.Do(ctx, Request{
		Method:    http.MethodGet,
		Path:      "/practice-quizs/" + url.PathEscape(practiceQuizID),
		Token:     token,
		Operation: "get practice quiz",
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) AnswerPractice(ctx context.Context, token, practiceQuizID, answer string) (string, error) {
	var res practiceAnswerResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/practice-quizs/" + url.PathEscape(practiceQuizID),
		Body:      practiceAnswerRequest{Answer: answer},
		Token:     token,
		Operation: "answer practice quiz",
	}, &res)
	if err != nil {
		return "", err
	}
	return res.Feedback, nil
}

func (c *Client) ContinuePractice(ctx context.Context, token, practiceQuizID string) (*PracticeContinueResponse, error) {
	var res PracticeContinueResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/practice-quizs/" + url.PathEscape(practiceQuizID) + "/continue",
		Token:     token,
		Operation: "continue practice quiz",
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ===== USERS =====

type profilePictureResponse struct {
	SHA256 string `json:"sha256"`
}

func (c *Client) ProfilePictureHash(ctx context.Context, token string) (string, error) {
	var res profilePictureResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodGet,
		Path:      "/users/profile-picture",
		Token:     token,
		Operation: "profile picture hash",
	}, &res)
	if err != nil {
		return "", err
	}
	return res.SHA256, nil
}
