package quizapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/quizapi/quizapitest"
	"github.com/SAP-F-2025/classroom-session/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *quizapitest.Server) {
	t.Helper()
	server := quizapitest.NewServer()
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, utils.NewNopLogger()), server
}

func TestClient_AttachesBearerAndContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var gotAuth, gotContentType string
	r := gin.New()
	r.GET("/users/profile-picture", func(c *gin.Context) {
		gotAuth = c.GetHeader("Authorization")
		gotContentType = c.GetHeader("Content-Type")
		c.JSON(http.StatusOK, gin.H{"sha256": "abc"})
	})
	server := httptest.NewServer(r)
	defer server.Close()

	client := NewClient(server.URL, time.Second, utils.NewNopLogger())
	hash, err := client.ProfilePictureHash(context.Background(), "token-1")

	require.NoError(t, err)
	assert.Equal(t, "abc", hash)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClient_StructuredErrorBecomesAPIError(t *testing.T) {
	client, server := newTestClient(t)
	server.Fail(http.MethodPost, "/quizs/q-1/start", http.StatusUnprocessableEntity, "quiz cannot be started")

	err := client.StartQuiz(context.Background(), "token", "q-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsAPI(err))
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "quiz cannot be started", appErr.Message)
}

func TestClient_UnstructuredErrorFallsBackToStatusText(t *testing.T) {
	client, server := newTestClient(t)
	server.FailRaw(http.MethodGet, "/users/weekly-summary", http.StatusBadGateway, "<html>bad gateway</html>")

	_, err := client.WeeklySummary(context.Background(), "token")

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindAPI, appErr.Kind)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Equal(t, "Bad Gateway", appErr.Message)
}

func TestClient_UnauthorizedWithoutToken(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.WeeklySummary(context.Background(), "")

	assert.True(t, apperrors.IsAPI(err))
}

func TestClient_MalformedSuccessIsDecodeError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/quiz-attempts/:id/submit", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(`{"score": "ninety"}`))
	})
	server := httptest.NewServer(r)
	defer server.Close()

	client := NewClient(server.URL, time.Second, utils.NewNopLogger())
	_, err := client.SubmitAttempt(context.Background(), "token", "a-1", []string{"x"})

	var decodeErr *apperrors.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "submit attempt", decodeErr.Operation)
	assert.False(t, apperrors.Classified(err))
}

func TestClient_UnreachableIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(server.URL, time.Second, utils.NewNopLogger())
	_, err := client.InstructorCourseQuizzes(context.Background(), "token")

	assert.True(t, apperrors.IsNetwork(err))
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond, utils.NewNopLogger())
	_, err := client.NextQuestion(context.Background(), "token", "q-1")

	assert.True(t, apperrors.IsNetwork(err))
}

func TestClient_CancellationPropagatesUnchanged(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.StudentCourseQuizzes(ctx, "token")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperrors.IsNetwork(err))
}

func TestClient_QuizLifecycle(t *testing.T) {
	ctx := context.Background()
	client, server := newTestClient(t)

	created, err := client.CreateQuiz(ctx, "token", QuizOptions{Name: "Fractions", QuestionLimit: 3, Prompt: "fractions"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.QuizID)
	assert.Equal(t, "Question 1 about fractions", created.FirstQuestion)

	next, err := client.NextQuestion(ctx, "token", created.QuizID)
	require.NoError(t, err)
	assert.Equal(t, "Question 2 about fractions", next)

	require.NoError(t, client.EditQuestions(ctx, "token", created.QuizID, []string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, server.Questions(created.QuizID))

	require.NoError(t, client.StartQuiz(ctx, "token", created.QuizID))

	quizzes, err := client.InstructorCourseQuizzes(ctx, "token")
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.True(t, quizzes[0].Started)

	attempt, err := client.CreateAttempt(ctx, "token", created.QuizID)
	require.NoError(t, err)
	assert.Equal(t, "Fractions", attempt.QuizName)
	assert.Equal(t, []string{"a", "b"}, attempt.Questions)

	score, err := client.SubmitAttempt(ctx, "token", attempt.QuizAttemptID, []string{"1/2", "3/4"})
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	details, err := client.GetAttempt(ctx, "token", attempt.QuizAttemptID)
	require.NoError(t, err)
	require.NotNil(t, details.Score)
	assert.Equal(t, 100, *details.Score)
	assert.Equal(t, []string{"1/2", "3/4"}, details.Answers)

	summary, err := client.WeeklySummary(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.AverageScore)
	assert.Len(t, summary.Attempts, 1)

	require.NoError(t, client.FinishQuiz(ctx, "token", created.QuizID))
}

func TestClient_Practice(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	started, err := client.StartPractice(ctx, "token", "derivatives")
	require.NoError(t, err)
	assert.Equal(t, "Practice problem 1: derivatives", started.Problem)

	feedback, err := client.AnswerPractice(ctx, "token", started.PracticeQuizID, "2x")
	require.NoError(t, err)
	assert.Equal(t, "Feedback on: 2x", feedback)

	status, err := client.GetPractice(ctx, "token", started.PracticeQuizID)
	require.NoError(t, err)
	assert.NotNil(t, status.Message)
	assert.Nil(t, status.Score)

	var last *PracticeContinueResponse
	for i := 0; i < 3; i++ {
		last, err = client.ContinuePractice(ctx, "token", started.PracticeQuizID)
		require.NoError(t, err)
	}
	require.NotNil(t, last.Score)
	assert.Nil(t, last.Problem)
}
