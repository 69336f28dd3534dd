package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	localIssuer = "classroom-session"
	// refreshSkew re-issues tokens that would expire during an in-flight call.
	refreshSkew = 30 * time.Second
)

// Credential is the login record the local backend keeps per email.
type Credential struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PasswordResetRequest is queued for a mailer to pick up.
type PasswordResetRequest struct {
	Email       string    `json:"email"`
	UserID      string    `json:"userId"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requestedAt"`
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LocalProvider is an offline identity backend: bcrypt credentials in the record store
// and HS256 session tokens.
type LocalProvider struct {
	records store.RecordStore
	secret  []byte
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	session *localSession
}

type localSession struct {
	userID string
	email  string
	token  string
}

func NewLocalProvider(records store.RecordStore, secret string, ttl time.Duration) *LocalProvider {
	return &LocalProvider{
		records: records,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	var cred Credential
	found, err := p.records.Get(ctx, store.CredentialPath(email), &cred)
	if err != nil {
		return "", err
	}
	if !found || bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", apperrors.Auth("invalid email or password")
	}

	if err := p.startSession(cred); err != nil {
		return "", err
	}
	return cred.UserID, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	var existing Credential
	found, err := p.records.Get(ctx, store.CredentialPath(email), &existing)
	if err != nil {
		return "", err
	}
	if found {
		return "", apperrors.Auth("the email address is already in use by another account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.AuthWrap("password cannot be used", err)
	}

	cred := Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.records.Set(ctx, store.CredentialPath(email), cred); err != nil {
		return "", err
	}

	if err := p.startSession(cred); err != nil {
		return "", err
	}
	return cred.UserID, nil
}

func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	var cred Credential
	found, err := p.records.Get(ctx, store.CredentialPath(email), &cred)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.Auth("there is no user record corresponding to this email")
	}
	return p.records.Set(ctx, store.PasswordResetPath(email), PasswordResetRequest{
		Email:       cred.Email,
		UserID:      cred.UserID,
		Code:        uuid.NewString(),
		RequestedAt: p.now().UTC(),
	})
}

// CurrentUser reloads the credential record; a deleted account ends the session.
func (p *LocalProvider) CurrentUser(ctx context.Context) (string, error) {
	p.mu.Lock()
	session := p.session
	p.mu.Unlock()
	if session == nil {
		return "", ErrNoSession
	}

	var cred Credential
	found, err := p.records.Get(ctx, store.CredentialPath(session.email), &cred)
	if err != nil {
		return "", err
	}
	if !found || cred.UserID != session.userID {
		return "", ErrNoSession
	}
	return session.userID, nil
}

func (p *LocalProvider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return "", ErrNoSession
	}

	if _, err := p.parse(p.session.token, p.now().Add(refreshSkew)); err == nil {
		return p.session.token, nil
	}

	token, err := p.issue(p.session.userID, p.session.email)
	if err != nil {
		return "", err
	}
	p.session.token = token
	return token, nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
	return nil
}

// Verify checks a token issued by this provider and returns its subject.
func (p *LocalProvider) Verify(token string) (string, error) {
	claims, err := p.parse(token, p.now())
	if err != nil {
		return "", apperrors.AuthWrap("invalid token", err)
	}
	return claims.Subject, nil
}

func (p *LocalProvider) startSession(cred Credential) error {
	token, err := p.issue(cred.UserID, cred.Email)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.session = &localSession{userID: cred.UserID, email: cred.Email, token: token}
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) issue(userID, email string) (string, error) {
	now := p.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    localIssuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parse validates token as of at.
func (p *LocalProvider) parse(token string, at time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(localIssuer),
		jwt.WithTimeFunc(func() time.Time { return at }),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
