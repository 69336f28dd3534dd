package services

import (
	"context"
	"testing"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPracticeService_Flow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Bo", models.RoleStudent)

	started, err := env.practice.Start(ctx, "fractions")
	require.NoError(t, err)
	assert.Equal(t, "Practice problem 1: fractions", started.Problem)
	id := started.PracticeQuizID

	feedback, err := env.practice.Answer(ctx, id, "1/2")
	require.NoError(t, err)
	assert.Equal(t, "Feedback on: 1/2", feedback)

	status, err := env.practice.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Message)
	assert.Nil(t, status.Score)

	for n := 2; n <= 3; n++ {
		next, err := env.practice.Continue(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, next.Problem)
		assert.Nil(t, next.Score)
	}

	done, err := env.practice.Continue(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, done.Problem)
	require.NotNil(t, done.Score)
	assert.Equal(t, 100, *done.Score)

	status, err = env.practice.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Score)
	assert.Equal(t, 100, *status.Score)
}

func TestPracticeService_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Bo", models.RoleStudent)

	_, err := env.practice.Start(ctx, "")
	assert.Equal(t, msgPromptEmpty, err.Error())

	_, err = env.practice.Answer(ctx, "", "1/2")
	assert.Equal(t, msgPracticeIDMissing, err.Error())

	_, err = env.practice.Answer(ctx, "practice-1", " ")
	assert.Equal(t, msgAnswerEmpty, err.Error())

	_, err = env.practice.Continue(ctx, "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = env.practice.Get(ctx, "")
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, env.api.Tokens())
}

func TestPracticeService_UnknownQuiz(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Bo", models.RoleStudent)

	_, err := env.practice.Get(context.Background(), "practice-404")

	assert.True(t, apperrors.IsAPI(err))
}
