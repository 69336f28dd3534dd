package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/classroom-session/internal/auth"
	"github.com/SAP-F-2025/classroom-session/internal/cache"
	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/events"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/SAP-F-2025/classroom-session/internal/quizapi"
	"github.com/SAP-F-2025/classroom-session/internal/quizapi/quizapitest"
	"github.com/SAP-F-2025/classroom-session/internal/store"
	"github.com/SAP-F-2025/classroom-session/internal/utils"
	"github.com/SAP-F-2025/classroom-session/internal/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPictureHost = "https://images.example.com/profile/picture"

func newTestServiceLogger() *ServiceLogger {
	return NewServiceLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), LogConfig{
		Service:   "classroom-session",
		Component: "test",
	})
}

func testRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
}

// testEnv wires every service against in-memory backends and the fake quiz service.
type testEnv struct {
	records   *store.MemoryStore
	provider  *auth.LocalProvider
	sink      *cache.MemorySessionCache
	publisher *events.MockEventPublisher
	api       *quizapitest.Server

	identity IdentityService
	courses  CourseService
	quizzes  QuizService
	attempts AttemptService
	practice PracticeService
	export   ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, store.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, records store.RecordStore) *testEnv {
	t.Helper()

	memory, _ := records.(*store.MemoryStore)
	env := &testEnv{
		records:   memory,
		provider:  auth.NewLocalProvider(records, "test-secret", time.Hour),
		sink:      cache.NewMemorySessionCache(),
		publisher: events.NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil))),
		api:       quizapitest.NewServer(),
	}
	t.Cleanup(env.api.Close)

	client := quizapi.NewClient(env.api.URL, 5*time.Second, utils.NewNopLogger())
	logger := newTestServiceLogger()
	v := validator.New()

	env.identity = NewIdentityService(IdentityDeps{
		Provider:           env.provider,
		Records:            records,
		Sink:               env.sink,
		Pictures:           client,
		ProfilePictureHost: testPictureHost,
		Validator:          v,
		Retry:              testRetryPolicy(),
		Logger:             logger,
	})
	env.courses = NewCourseService(env.identity, records, env.publisher, v, testRetryPolicy(), logger)
	env.quizzes = NewQuizService(env.identity, client, env.publisher, v, logger)
	env.attempts = NewAttemptService(env.identity, client, env.publisher, logger)
	env.practice = NewPracticeService(env.identity, client, logger)
	env.export = NewExportService(env.attempts, logger)
	return env
}

func (env *testEnv) register(t *testing.T, name string, role models.UserRole) *models.Identity {
	t.Helper()
	email := strings.ToLower(name) + "@example.com"
	identity, err := env.identity.Register(context.Background(), email, "secret-pass", name, role)
	require.NoError(t, err)
	return identity
}

// instructorWithCourse registers an instructor and creates their course.
func (env *testEnv) instructorWithCourse(t *testing.T, name, course string) (*models.Identity, *models.Course) {
	t.Helper()
	instructor := env.register(t, name, models.RoleInstructor)
	created, err := env.courses.CreateCourse(context.Background(), instructor, course, models.EducationUniversity, course+" for beginners")
	require.NoError(t, err)
	return instructor, created
}

// ===== TEST DOUBLES =====

// MockProvider is a mock implementation of auth.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockProvider) CurrentUser(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// flakyStore fails the first failures writes under prefix with a network error.
type flakyStore struct {
	store.RecordStore

	mu       sync.Mutex
	prefix   string
	failures int
	writes   int
}

func (s *flakyStore) Set(ctx context.Context, path string, value interface{}) error {
	s.mu.Lock()
	if strings.HasPrefix(path, s.prefix) {
		s.writes++
		if s.failures > 0 {
			s.failures--
			s.mu.Unlock()
			return apperrors.Network(context.DeadlineExceeded)
		}
	}
	s.mu.Unlock()
	return s.RecordStore.Set(ctx, path, value)
}

func (s *flakyStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
