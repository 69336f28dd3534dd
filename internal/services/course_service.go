package services

import (
	"context"
	"strings"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/events"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/SAP-F-2025/classroom-session/internal/store"
	"github.com/SAP-F-2025/classroom-session/internal/validator"
	"github.com/google/uuid"
)

// CourseService creates and joins courses. The course record is the source of truth;
// membership records and the instructor index are derived from it.
type CourseService interface {
	CreateCourse(ctx context.Context, identity *models.Identity, name string, level models.EducationLevel, description string) (*models.Course, error)
	JoinCourse(ctx context.Context, identity *models.Identity, course *models.Course) error
	FindCourseByInstructorName(ctx context.Context, name string) (*models.Course, error)
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	// ReconcileMembership rebuilds the derived records of identity's membership in courseID.
	// It is idempotent and repairs a create or join that failed half way.
	ReconcileMembership(ctx context.Context, identity *models.Identity, courseID string) error
}

type courseService struct {
	identity  IdentityService
	records   store.RecordStore
	publisher events.EventPublisher
	validator *validator.Validator
	retry     RetryPolicy
	logger    *ServiceLogger
}

func NewCourseService(identity IdentityService, records store.RecordStore, publisher events.EventPublisher, validator *validator.Validator, retry RetryPolicy, logger *ServiceLogger) CourseService {
	return &courseService{
		identity:  identity,
		records:   records,
		publisher: publisher,
		validator: validator,
		retry:     retry,
		logger:    logger,
	}
}

type createCourseForm struct {
	Name           string                `json:"name" validate:"required"`
	Description    string                `json:"description" validate:"required"`
	EducationLevel models.EducationLevel `json:"educationLevel" validate:"education_level"`
}

// ===== CORE COURSE OPERATIONS =====

func (s *courseService) CreateCourse(ctx context.Context, identity *models.Identity, name string, level models.EducationLevel, description string) (course *models.Course, err error) {
	op := s.logger.WithOperation(ctx, "create_course", userIDOf(identity))
	defer func() { op.LogResult(courseIDOf(course), "course", err) }()

	if identity == nil {
		return nil, apperrors.Auth(msgNotLoggedIn)
	}
	if !identity.IsInstructor() {
		return nil, apperrors.Validation(msgNotInstructor)
	}
	form := createCourseForm{Name: name, Description: description, EducationLevel: level}
	if err := s.validator.Check(msgCourseFieldsEmpty, form); err != nil {
		return nil, err
	}
	if identity.HasCourse() {
		return nil, apperrors.Conflict(msgCourseAlreadyOwned)
	}

	var index models.InstructorNameCourseIndex
	found, err := s.records.Get(ctx, store.InstructorIndexPath(identity.DisplayName), &index)
	if err != nil {
		return nil, err
	}
	if found && index.UserID != identity.ID {
		return nil, apperrors.Conflict(msgInstructorNameTaken)
	}
	if found && index.CourseID != "" {
		// a create that stopped after the index write; finish it instead of starting another
		return s.resumeCreate(ctx, identity, index.CourseID)
	}

	course = &models.Course{
		ID:             uuid.NewString(),
		InstructorID:   identity.ID,
		Name:           name,
		EducationLevel: level,
		Description:    description,
		StudentIDs:     []string{},
		QuizIDs:        []string{},
	}

	err = s.retry.Do(ctx, s.logger, "write course", func(ctx context.Context) error {
		return s.records.Set(ctx, store.CoursePath(course.ID), course)
	})
	if err != nil {
		return nil, err
	}

	return s.finishCreate(ctx, identity, course)
}

// resumeCreate finishes a create whose course and index were written but whose membership was not.
func (s *courseService) resumeCreate(ctx context.Context, identity *models.Identity, courseID string) (*models.Course, error) {
	course, err := s.GetCourse(ctx, courseID)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.Conflict(msgCourseAlreadyOwned)
	}
	if err != nil {
		return nil, err
	}
	if course.InstructorID != identity.ID {
		return nil, apperrors.Conflict(msgCourseAlreadyOwned)
	}

	var details models.UserDetails
	found, err := s.records.Get(ctx, store.UserPath(identity.ID), &details)
	if err != nil {
		return nil, err
	}
	// a committed membership means the caller holds a stale identity
	if found && details.CourseID != "" {
		return nil, apperrors.Conflict(msgCourseAlreadyOwned)
	}
	s.logger.LogDebug(ctx, "Resuming course creation", "course_id", course.ID)
	return s.finishCreate(ctx, identity, course)
}

func (s *courseService) finishCreate(ctx context.Context, identity *models.Identity, course *models.Course) (*models.Course, error) {
	if err := s.converge(ctx, identity, course); err != nil {
		return nil, err
	}

	s.identity.commitCourse(ctx, identity, course.ID)
	s.emit(ctx, events.EventCourseCreated, events.CourseCreatedEvent{
		CourseID:       course.ID,
		InstructorID:   course.InstructorID,
		Name:           course.Name,
		EducationLevel: string(course.EducationLevel),
	})
	return course, nil
}

func (s *courseService) JoinCourse(ctx context.Context, identity *models.Identity, course *models.Course) (err error) {
	op := s.logger.WithOperation(ctx, "join_course", userIDOf(identity))
	defer func() { op.LogResult(courseIDOf(course), "course", err) }()

	if identity == nil {
		return apperrors.Auth(msgNotLoggedIn)
	}
	if identity.HasCourse() {
		return apperrors.Conflict(msgAlreadyEnrolled)
	}
	if !identity.IsStudent() {
		return apperrors.Validation(msgNotStudent)
	}
	if course == nil || strings.TrimSpace(course.ID) == "" {
		return apperrors.Validation(msgCourseIDMissing)
	}

	stored, err := s.GetCourse(ctx, course.ID)
	if err != nil {
		return err
	}

	if !stored.HasStudent(identity.ID) {
		stored.StudentIDs = append(stored.StudentIDs, identity.ID)
		err = s.retry.Do(ctx, s.logger, "write course", func(ctx context.Context) error {
			return s.records.Set(ctx, store.CoursePath(stored.ID), stored)
		})
		if err != nil {
			return err
		}
	}

	if err := s.converge(ctx, identity, stored); err != nil {
		return err
	}

	course.StudentIDs = append([]string(nil), stored.StudentIDs...)
	s.identity.commitCourse(ctx, identity, stored.ID)
	s.emit(ctx, events.EventCourseJoined, events.CourseJoinedEvent{
		CourseID:  stored.ID,
		StudentID: identity.ID,
	})
	return nil
}

func (s *courseService) FindCourseByInstructorName(ctx context.Context, name string) (*models.Course, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.Validation(msgInstructorNameMissing)
	}

	var index models.InstructorNameCourseIndex
	found, err := s.records.Get(ctx, store.InstructorIndexPath(name), &index)
	if err != nil {
		return nil, err
	}
	if !found || index.CourseID == "" {
		return nil, apperrors.NotFound(msgCourseNotFound)
	}
	return s.GetCourse(ctx, index.CourseID)
}

func (s *courseService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, apperrors.Validation(msgCourseIDMissing)
	}

	var course models.Course
	found, err := s.records.Get(ctx, store.CoursePath(courseID), &course)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NotFound(msgCourseNotFound)
	}
	if course.StudentIDs == nil {
		course.StudentIDs = []string{}
	}
	if course.QuizIDs == nil {
		course.QuizIDs = []string{}
	}
	return &course, nil
}

func (s *courseService) ReconcileMembership(ctx context.Context, identity *models.Identity, courseID string) (err error) {
	op := s.logger.WithOperation(ctx, "reconcile_membership", userIDOf(identity))
	defer func() { op.LogResult(courseID, "course", err) }()

	if identity == nil {
		return apperrors.Auth(msgNotLoggedIn)
	}
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}

	member := (identity.IsInstructor() && course.InstructorID == identity.ID) ||
		(identity.IsStudent() && course.HasStudent(identity.ID))
	if !member {
		return apperrors.Validation("user is not a member of this course")
	}
	if identity.HasCourse() && identity.CourseID != course.ID {
		return apperrors.Conflict(msgAlreadyEnrolled)
	}

	if err := s.converge(ctx, identity, course); err != nil {
		return err
	}
	s.identity.commitCourse(ctx, identity, course.ID)
	return nil
}

// ===== HELPERS =====

// converge rewrites every record derived from course for identity. Each write is an
// idempotent overwrite, so the whole step can be retried until it sticks.
func (s *courseService) converge(ctx context.Context, identity *models.Identity, course *models.Course) error {
	return s.retry.Do(ctx, s.logger, "converge membership", func(ctx context.Context) error {
		if identity.IsInstructor() {
			index := models.InstructorNameCourseIndex{UserID: identity.ID, CourseID: course.ID}
			if err := s.records.Set(ctx, store.InstructorIndexPath(identity.DisplayName), index); err != nil {
				return err
			}
		}
		return s.identity.writeMembership(ctx, identity, course.ID)
	})
}

func (s *courseService) emit(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.logger.WarnContext(ctx, "Failed to publish course event",
			"event_type", eventType,
			"error", FormatError(err))
	}
}

func courseIDOf(course *models.Course) string {
	if course == nil {
		return ""
	}
	return course.ID
}
