package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SAP-F-2025/classroom-session/internal/config"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/SAP-F-2025/classroom-session/internal/quizapi/quizapitest"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver config.StoreDriver) *config.Config {
	t.Helper()
	api := quizapitest.NewServer()
	t.Cleanup(api.Close)

	cfg := config.FromEnv()
	cfg.QuizAPIURL = api.URL
	cfg.QuizAPITimeout = 5 * time.Second
	cfg.RecordStore = driver
	cfg.AuthProvider = config.AuthLocal
	cfg.JWTSecret = "test-secret"
	cfg.Events = config.EventConfig{Enabled: true, Publisher: "mock", SessionTopic: "classroom-session"}
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config) *Session {
	t.Helper()
	session, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, session.Close()) })
	return session
}

// runClassroom walks an instructor through course and quiz creation and
// checks the cached session follows along.
func runClassroom(t *testing.T, session *Session) {
	t.Helper()
	ctx := context.Background()

	ana, err := session.Identity.Register(ctx, "ana@example.com", "secret-pass", "Ana", models.RoleInstructor)
	require.NoError(t, err)
	course, err := session.Courses.CreateCourse(ctx, ana, "Algebra", models.EducationUniversity, "Linear equations")
	require.NoError(t, err)

	cached, ok, err := session.Cache.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.SessionDetails{CourseID: course.ID, Role: models.RoleInstructor}, cached)

	require.NoError(t, session.Identity.Logout(ctx))
	again, err := session.Identity.Login(ctx, "ana@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, course.ID, again.CourseID)

	quiz, err := session.Quizzes.CreateQuiz(ctx, "Linear equations", 2, "solving for x")
	require.NoError(t, err)
	require.NoError(t, quiz.Start(ctx))

	found, err := session.Courses.FindCourseByInstructorName(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, course.ID, found.ID)
}

func TestNew_MemoryStore(t *testing.T) {
	session := newTestSession(t, testConfig(t, config.StoreMemory))

	runClassroom(t, session)
}

func TestNew_SQLiteStore(t *testing.T) {
	cfg := testConfig(t, config.StoreSQLite)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "classroom.db")

	session := newTestSession(t, cfg)

	runClassroom(t, session)
}

func TestNew_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.StoreRedis)
	cfg.RedisURL = "redis://" + mr.Addr()

	session := newTestSession(t, cfg)
	runClassroom(t, session)

	assert.True(t, mr.Exists(cfg.SessionCacheKey))
}

func TestNew_RejectsUnknownComponents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig(t, config.StoreDriver("etcd"))
	_, err := New(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, "unknown record store")

	cfg = testConfig(t, config.StoreMemory)
	cfg.AuthProvider = config.AuthProvider("ldap")
	_, err = New(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, "unknown auth provider")
}

func TestNew_UnreachableRedis(t *testing.T) {
	cfg := testConfig(t, config.StoreRedis)
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.ErrorContains(t, err, "redis connection failed")
}

func TestNewFromEnv(t *testing.T) {
	api := quizapitest.NewServer()
	t.Cleanup(api.Close)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("QUIZ_API_URL", api.URL)
	t.Setenv("RECORD_STORE", "memory")
	t.Setenv("AUTH_PROVIDER", "local")
	t.Setenv("EVENTS_ENABLED", "false")

	session, err := NewFromEnv(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	runClassroom(t, session)
}
