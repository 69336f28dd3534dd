package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/SAP-F-2025/classroom-session/internal/auth"
	"github.com/SAP-F-2025/classroom-session/internal/cache"
	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/SAP-F-2025/classroom-session/internal/store"
	"github.com/SAP-F-2025/classroom-session/internal/validator"
)

// TokenSource hands out a bearer token fresh as of the call.
type TokenSource interface {
	AuthorizationToken(ctx context.Context) (string, error)
}

// IdentityService owns who the user is and which course they belong to.
// It is the only writer of Identity.CourseID.
type IdentityService interface {
	TokenSource

	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Register(ctx context.Context, email, password, displayName string, role models.UserRole) (*models.Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	// CurrentIdentity returns nil without error when nobody is signed in.
	CurrentIdentity(ctx context.Context) (*models.Identity, error)
	Logout(ctx context.Context) error

	ProfilePictureURL(userID, contentHash string) string
	CurrentProfilePictureURL(ctx context.Context) (string, error)

	// membership write path, used by CourseService
	writeMembership(ctx context.Context, identity *models.Identity, courseID string) error
	commitCourse(ctx context.Context, identity *models.Identity, courseID string)
}

// ProfilePictureAPI resolves the current user's avatar hash.
type ProfilePictureAPI interface {
	ProfilePictureHash(ctx context.Context, token string) (string, error)
}

type identityService struct {
	provider    auth.Provider
	records     store.RecordStore
	sink        cache.SessionSink
	pictures    ProfilePictureAPI
	pictureHost string
	validator   *validator.Validator
	retry       RetryPolicy
	logger      *ServiceLogger
}

type IdentityDeps struct {
	Provider           auth.Provider
	Records            store.RecordStore
	Sink               cache.SessionSink
	Pictures           ProfilePictureAPI
	ProfilePictureHost string
	Validator          *validator.Validator
	Retry              RetryPolicy
	Logger             *ServiceLogger
}

func NewIdentityService(deps IdentityDeps) IdentityService {
	return &identityService{
		provider:    deps.Provider,
		records:     deps.Records,
		sink:        deps.Sink,
		pictures:    deps.Pictures,
		pictureHost: strings.TrimSuffix(deps.ProfilePictureHost, "/"),
		validator:   deps.Validator,
		retry:       deps.Retry,
		logger:      deps.Logger,
	}
}

type loginForm struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerForm struct {
	Email       string          `json:"email" validate:"required"`
	Password    string          `json:"password" validate:"required"`
	DisplayName string          `json:"name" validate:"required"`
	Role        models.UserRole `json:"role" validate:"user_role"`
}

// ===== SESSION LIFECYCLE =====

func (s *identityService) Login(ctx context.Context, email, password string) (identity *models.Identity, err error) {
	op := s.logger.WithOperation(ctx, "login", "")
	defer func() { op.LogResult(userIDOf(identity), "identity", err) }()

	if err := s.validator.Check(msgLoginFieldsEmpty, loginForm{Email: email, Password: password}); err != nil {
		return nil, err
	}

	userID, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, backendError("an error occurred when logging in", err)
	}

	identity, err = s.loadIdentity(ctx, userID)
	if err != nil {
		s.signOutQuietly(ctx, "Sign out after failed login")
		return nil, err
	}

	s.publish(ctx, identity)
	return identity, nil
}

func (s *identityService) Register(ctx context.Context, email, password, displayName string, role models.UserRole) (identity *models.Identity, err error) {
	op := s.logger.WithOperation(ctx, "register", "")
	defer func() { op.LogResult(userIDOf(identity), "identity", err) }()

	form := registerForm{Email: email, Password: password, DisplayName: displayName, Role: role}
	if err := s.validator.ValidateStruct(form); err != nil {
		return nil, apperrors.FromValidator(registerMessage(err), err)
	}

	if role == models.RoleInstructor {
		var existing models.InstructorNameCourseIndex
		found, err := s.records.Get(ctx, store.InstructorIndexPath(displayName), &existing)
		if err != nil {
			return nil, err
		}
		if found {
			return nil, apperrors.Conflict(msgInstructorNameTaken)
		}
	}

	userID, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		resumed, ok := s.resumeRegistration(ctx, email, password, displayName, role)
		if !ok {
			return nil, backendError("an error occurred when registering", err)
		}
		userID = resumed
	}

	// users/{id} goes first: the name index is only claimed once the account is loadable.
	err = s.retry.Do(ctx, s.logger, "register records", func(ctx context.Context) error {
		if err := s.records.Set(ctx, store.UserPath(userID), models.UserDetails{Name: displayName, Type: role}); err != nil {
			return err
		}
		if role == models.RoleInstructor {
			return s.records.Set(ctx, store.InstructorIndexPath(displayName), models.InstructorNameCourseIndex{UserID: userID})
		}
		return nil
	})
	if err != nil {
		s.signOutQuietly(ctx, "Sign out after failed registration")
		return nil, err
	}

	identity = &models.Identity{ID: userID, DisplayName: displayName, Role: role}
	s.publish(ctx, identity)
	return identity, nil
}

// resumeRegistration picks up an account whose registration stopped before its records
// were written. It only runs signed out, and a complete account is never resumed.
func (s *identityService) resumeRegistration(ctx context.Context, email, password, displayName string, role models.UserRole) (string, bool) {
	if _, err := s.provider.CurrentUser(ctx); !errors.Is(err, auth.ErrNoSession) {
		return "", false
	}
	userID, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return "", false
	}

	var details models.UserDetails
	found, err := s.records.Get(ctx, store.UserPath(userID), &details)
	// an instructor past this point has no index entry, so a matching users record is half done
	resumable := err == nil && (!found ||
		(role == models.RoleInstructor && details.Type == role && details.Name == displayName && details.CourseID == ""))
	if !resumable {
		s.signOutQuietly(ctx, "Sign out after rejected registration")
		return "", false
	}
	s.logger.LogDebug(ctx, "Resuming registration", "user_id", userID)
	return userID, true
}

// registerMessage picks the user-facing message: a bad role only when every field is present.
func registerMessage(err error) string {
	for _, field := range apperrors.ToValidationErrors(err) {
		if field.Rule != "user_role" {
			return msgRegisterFieldsEmpty
		}
	}
	return msgRoleRequired
}

func (s *identityService) SendPasswordReset(ctx context.Context, email string) (err error) {
	op := s.logger.WithOperation(ctx, "send_password_reset", "")
	defer func() { op.LogResult("", "identity", err) }()

	if strings.TrimSpace(email) == "" {
		return apperrors.Validation(msgEmailEmpty)
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return backendError("an error occurred when sending the reset email", err)
	}
	return nil
}

func (s *identityService) CurrentIdentity(ctx context.Context) (*models.Identity, error) {
	userID, err := s.provider.CurrentUser(ctx)
	if errors.Is(err, auth.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.loadIdentity(ctx, userID)
}

func (s *identityService) AuthorizationToken(ctx context.Context) (string, error) {
	token, err := s.provider.Token(ctx)
	if errors.Is(err, auth.ErrNoSession) {
		return "", apperrors.AuthWrap(msgNotLoggedIn, err)
	}
	if err != nil {
		return "", backendError("an error occurred when fetching the session token", err)
	}
	return token, nil
}

// Logout is idempotent: signing out twice leaves the same cleared state.
func (s *identityService) Logout(ctx context.Context) (err error) {
	op := s.logger.WithOperation(ctx, "logout", "")
	defer func() { op.LogResult("", "identity", err) }()

	if err := s.provider.SignOut(ctx); err != nil {
		return backendError("an error occurred when logging out", err)
	}
	if err := s.sink.Clear(ctx); err != nil {
		s.logger.logger.WarnContext(ctx, "Failed to clear session sink", "error", FormatError(err))
	}
	return nil
}

// ===== PROFILE PICTURES =====

func (s *identityService) ProfilePictureURL(userID, contentHash string) string {
	return fmt.Sprintf("%s/%s/%s", s.pictureHost, url.PathEscape(userID), url.PathEscape(contentHash))
}

func (s *identityService) CurrentProfilePictureURL(ctx context.Context) (string, error) {
	userID, err := s.provider.CurrentUser(ctx)
	if errors.Is(err, auth.ErrNoSession) {
		return "", apperrors.AuthWrap(msgNotLoggedIn, err)
	}
	if err != nil {
		return "", err
	}
	token, err := s.AuthorizationToken(ctx)
	if err != nil {
		return "", err
	}
	hash, err := s.pictures.ProfilePictureHash(ctx, token)
	if err != nil {
		return "", err
	}
	return s.ProfilePictureURL(userID, hash), nil
}

// ContentHash returns the hex SHA-256 of an image, the key profile pictures are stored under.
func ContentHash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ===== MEMBERSHIP WRITE PATH =====

func (s *identityService) writeMembership(ctx context.Context, identity *models.Identity, courseID string) error {
	return s.records.Set(ctx, store.UserPath(identity.ID), models.UserDetails{
		CourseID: courseID,
		Name:     identity.DisplayName,
		Type:     identity.Role,
	})
}

// commitCourse runs after every backend write succeeded.
func (s *identityService) commitCourse(ctx context.Context, identity *models.Identity, courseID string) {
	identity.CourseID = courseID
	s.publish(ctx, identity)
}

// ===== HELPERS =====

func (s *identityService) loadIdentity(ctx context.Context, userID string) (*models.Identity, error) {
	var details models.UserDetails
	found, err := s.records.Get(ctx, store.UserPath(userID), &details)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.Auth(msgUserDetailsNotFound)
	}
	return &models.Identity{
		ID:          userID,
		CourseID:    details.CourseID,
		DisplayName: details.Name,
		Role:        details.Type,
	}, nil
}

func (s *identityService) signOutQuietly(ctx context.Context, message string) {
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.LogDebug(ctx, message, "error", FormatError(err))
	}
}

// publish keeps the session sink in step. The sink is a cache, so a failure is logged, not returned.
func (s *identityService) publish(ctx context.Context, identity *models.Identity) {
	if err := s.sink.Publish(ctx, identity.Session()); err != nil {
		s.logger.logger.WarnContext(ctx, "Failed to publish session",
			"user_id", identity.ID,
			"error", FormatError(err))
	}
}

// backendError labels an unclassified identity backend failure as an auth error.
// Cancellation and already-classified errors pass through.
func backendError(message string, err error) error {
	if apperrors.Classified(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.FromTransport(err)
	}
	return apperrors.AuthWrap(message, err)
}

func userIDOf(identity *models.Identity) string {
	if identity == nil {
		return ""
	}
	return identity.ID
}
