package services

import (
	"context"
	"net/http"
	"testing"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/events"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seededQuestions = []string{"What is 2x = 4?", "What is x + 1 = 3?", "What is 3x = 9?"}

// newStudentAttempt seeds a running quiz and starts an attempt as an enrolled student.
func newStudentAttempt(t *testing.T, env *testEnv) *StudentAttempt {
	t.Helper()
	ctx := context.Background()
	_, course := env.instructorWithCourse(t, "Ana", "Algebra")
	bo := env.register(t, "Bo", models.RoleStudent)
	require.NoError(t, env.courses.JoinCourse(ctx, bo, course))

	quizID := env.api.SeedQuiz("Linear equations", seededQuestions...)
	attempt, err := env.attempts.CreateAttempt(ctx, quizID)
	require.NoError(t, err)
	return attempt
}

func TestAttemptService_NewAttempt(t *testing.T) {
	env := newTestEnv(t)

	attempt := newStudentAttempt(t, env)

	assert.NotEmpty(t, attempt.ID())
	assert.Equal(t, "Linear equations", attempt.QuizName())
	assert.Equal(t, seededQuestions, attempt.Questions())
	assert.Empty(t, attempt.Answers())
	assert.Equal(t, 1, attempt.CurrentQuestionNumber())
	assert.Equal(t, models.AttemptStatusActive, attempt.Status())
	assert.False(t, attempt.IsFinished())

	question, ok := attempt.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, seededQuestions[0], question)

	_, scored := attempt.FinalScore()
	assert.False(t, scored)
}

func TestAttemptService_CreateAttemptValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Bo", models.RoleStudent)

	_, err := env.attempts.CreateAttempt(context.Background(), " ")

	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, msgQuizIDMissing, err.Error())
	assert.Empty(t, env.api.Tokens())
}

func TestAttemptService_CreateAttemptForUnknownQuiz(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Bo", models.RoleStudent)

	_, err := env.attempts.CreateAttempt(context.Background(), "quiz-404")

	var apiErr *apperrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestStudentAttempt_AnswerAndSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	attempt := newStudentAttempt(t, env)

	assert.True(t, attempt.AddAnswer("x = 2"))
	assert.Equal(t, 2, attempt.CurrentQuestionNumber())

	_, err := attempt.Submit(ctx)
	assert.True(t, apperrors.IsValidation(err))
	assert.True(t, apperrors.IsInvalidTransition(err))
	assert.Equal(t, msgAttemptNotFinished, err.Error())

	assert.True(t, attempt.AddAnswer("x = 2"))
	assert.True(t, attempt.AddAnswer("x = 3"))
	assert.True(t, attempt.IsFinished())
	assert.Equal(t, models.AttemptStatusFinished, attempt.Status())
	assert.Equal(t, 3, attempt.CurrentQuestionNumber())

	question, ok := attempt.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, seededQuestions[2], question)

	score, err := attempt.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
	assert.Equal(t, models.AttemptStatusScored, attempt.Status())

	final, ok := attempt.FinalScore()
	require.True(t, ok)
	assert.Equal(t, 100, final)

	submitted := env.publisher.EventsOfType(events.EventAttemptSubmitted)
	require.Len(t, submitted, 1)
	payload := submitted[0].Data.(events.AttemptSubmittedEvent)
	assert.Equal(t, attempt.ID(), payload.AttemptID)
	assert.Equal(t, 100, payload.Score)
}

func TestStudentAttempt_AddAnswerAfterFinishIsNoop(t *testing.T) {
	env := newTestEnv(t)
	attempt := newStudentAttempt(t, env)
	for _, answer := range []string{"a", "b", "c"} {
		require.True(t, attempt.AddAnswer(answer))
	}

	assert.False(t, attempt.AddAnswer("d"))

	assert.Equal(t, []string{"a", "b", "c"}, attempt.Answers())
	assert.Equal(t, 3, attempt.CurrentQuestionNumber())
}

func TestStudentAttempt_SubmitTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.api.Score = func(questions, answers []string) int { return 67 }
	attempt := newStudentAttempt(t, env)
	for _, answer := range []string{"a", "b", "c"} {
		attempt.AddAnswer(answer)
	}
	_, err := attempt.Submit(ctx)
	require.NoError(t, err)
	calls := len(env.api.Tokens())

	_, err = attempt.Submit(ctx)

	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, msgAttemptScored, err.Error())
	assert.Len(t, env.api.Tokens(), calls)
	score, _ := attempt.FinalScore()
	assert.Equal(t, 67, score)
	assert.False(t, attempt.AddAnswer("d"))
}

func TestStudentAttempt_SubmitFailureKeepsAttemptFinished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	attempt := newStudentAttempt(t, env)
	for _, answer := range []string{"a", "b", "c"} {
		attempt.AddAnswer(answer)
	}
	env.api.Fail(http.MethodPost, "/quiz-attempts/"+attempt.ID()+"/submit", http.StatusServiceUnavailable, "scorer unavailable")

	_, err := attempt.Submit(ctx)
	assert.True(t, apperrors.IsAPI(err))
	assert.Equal(t, models.AttemptStatusFinished, attempt.Status())
	_, scored := attempt.FinalScore()
	assert.False(t, scored)

	score, err := attempt.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestAttemptService_GetAttemptAndWeeklySummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	attempt := newStudentAttempt(t, env)
	for _, answer := range []string{"x = 2", "x = 2", ""} {
		attempt.AddAnswer(answer)
	}
	score, err := attempt.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 66, score)

	_, err = env.attempts.GetAttempt(ctx, "")
	assert.True(t, apperrors.IsValidation(err))

	details, err := env.attempts.GetAttempt(ctx, attempt.ID())
	require.NoError(t, err)
	assert.Equal(t, attempt.ID(), details.ID)
	assert.Equal(t, attempt.Answers(), details.Answers)
	require.NotNil(t, details.Score)
	assert.Equal(t, 66, *details.Score)

	summary, err := env.attempts.WeeklySummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Attempts, 1)
	assert.Equal(t, "Linear equations", summary.Attempts[0].QuizName)
	assert.InDelta(t, 66.0, summary.AverageScore, 0.001)

	quizzes, err := env.attempts.ListQuizzesForCourse(ctx)
	require.NoError(t, err)
	assert.Len(t, quizzes, 1)
}

func TestStudentAttempt_EmptyQuiz(t *testing.T) {
	attempt := &StudentAttempt{service: &attemptService{logger: newTestServiceLogger()}}

	assert.Equal(t, 0, attempt.CurrentQuestionNumber())
	_, ok := attempt.CurrentQuestion()
	assert.False(t, ok)
	assert.True(t, attempt.IsFinished())
	assert.False(t, attempt.AddAnswer("a"))
}
