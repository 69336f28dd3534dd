// Package auth adapts identity backends to the single Provider contract the services use.
// Providers map their own failures into the error taxonomy before returning.
package auth

import (
	"context"
	"errors"
)

// ErrNoSession is returned by CurrentUser and Token when nobody is signed in,
// or when the stored credential is no longer valid.
var ErrNoSession = errors.New("no active session")

// Provider is the identity backend. It owns the signed-in session; callers hold no token state.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (userID string, err error)
	SignUp(ctx context.Context, email, password string) (userID string, err error)
	// SendPasswordReset returns once the reset request is enqueued.
	SendPasswordReset(ctx context.Context, email string) error
	CurrentUser(ctx context.Context) (userID string, err error)
	// Token returns a bearer token valid as of the call, refreshing it when needed.
	Token(ctx context.Context) (string, error)
	// SignOut is idempotent.
	SignOut(ctx context.Context) error
}
