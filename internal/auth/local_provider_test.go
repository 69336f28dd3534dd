package auth

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalProvider(t *testing.T) (*LocalProvider, *store.MemoryStore) {
	t.Helper()
	records := store.NewMemoryStore()
	return NewLocalProvider(records, "test-secret", time.Hour), records
}

func TestLocalProvider_SignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestLocalProvider(t)

	userID, err := p.SignUp(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	current, err := p.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, current)

	require.NoError(t, p.SignOut(ctx))

	signedIn, err := p.SignIn(ctx, "ANA@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, signedIn)
}

func TestLocalProvider_SignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestLocalProvider(t)

	_, err := p.SignUp(ctx, "ana@example.com", "secret")
	require.NoError(t, err)

	_, err = p.SignUp(ctx, "ana@example.com", "other")
	assert.True(t, apperrors.IsAuth(err))
}

func TestLocalProvider_SignInRejected(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestLocalProvider(t)
	_, err := p.SignUp(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	_, err = p.SignIn(ctx, "ana@example.com", "wrong")
	assert.True(t, apperrors.IsAuth(err))

	_, err = p.SignIn(ctx, "nobody@example.com", "secret")
	assert.True(t, apperrors.IsAuth(err))

	_, err = p.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLocalProvider_TokenRefreshesOnExpiry(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestLocalProvider(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	userID, err := p.SignUp(ctx, "ana@example.com", "secret")
	require.NoError(t, err)

	first, err := p.Token(ctx)
	require.NoError(t, err)
	again, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	now = now.Add(2 * time.Hour)
	refreshed, err := p.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, refreshed)

	subject, err := p.Verify(refreshed)
	require.NoError(t, err)
	assert.Equal(t, userID, subject)

	_, err = p.Verify(first)
	assert.True(t, apperrors.IsAuth(err))
}

func TestLocalProvider_TokenWithoutSession(t *testing.T) {
	p, _ := newTestLocalProvider(t)

	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLocalProvider_SignOutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestLocalProvider(t)
	_, err := p.SignUp(ctx, "ana@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignOut(ctx))

	_, err = p.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLocalProvider_SendPasswordReset(t *testing.T) {
	ctx := context.Background()
	p, records := newTestLocalProvider(t)
	userID, err := p.SignUp(ctx, "ana@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, p.SendPasswordReset(ctx, "ana@example.com"))

	var request PasswordResetRequest
	found, err := records.Get(ctx, store.PasswordResetPath("ana@example.com"), &request)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, userID, request.UserID)
	assert.NotEmpty(t, request.Code)

	err = p.SendPasswordReset(ctx, "nobody@example.com")
	assert.True(t, apperrors.IsAuth(err))
}
