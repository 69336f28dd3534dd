package services

import (
	"errors"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
)

// ===== USER-FACING MESSAGES =====

const (
	msgLoginFieldsEmpty    = "email and password must not be empty"
	msgRegisterFieldsEmpty = "email, password and name must not be empty"
	msgRoleRequired        = "role must be STUDENT or INSTRUCTOR"
	msgEmailEmpty          = "email must not be empty"
	msgInstructorNameTaken = "name has been taken by another instructor"
	msgUserDetailsNotFound = "user details not found"
	msgNotLoggedIn         = "user is not logged in"

	msgCourseFieldsEmpty     = "course name, description and education level must not be empty"
	msgNotInstructor         = "you do not have the authorization level to create a class"
	msgCourseAlreadyOwned    = "instructor already has a course"
	msgAlreadyEnrolled       = "user already enrolled in course"
	msgNotStudent            = "only students can join a course"
	msgInstructorNameMissing = "no instructor name specified"
	msgCourseNotFound        = "course details not found"
	msgCourseIDMissing       = "course id must not be empty"

	msgQuizFieldsEmpty    = "name and prompt must not be empty"
	msgQuestionLimit      = "question limit must be greater than zero"
	msgQuestionLimitHit   = "question limit reached"
	msgQuizIDMissing      = "quiz id must not be empty"
	msgAttemptIDMissing   = "attempt id must not be empty"
	msgAttemptNotFinished = "all questions must be answered before submitting"
	msgAttemptScored      = "attempt has already been submitted"
	msgPromptEmpty        = "prompt must not be empty"
	msgAnswerEmpty        = "answer must not be empty"
	msgPracticeIDMissing  = "practice quiz id must not be empty"
)

func asValidationErrors(err error, target *apperrors.ValidationErrors) bool {
	return errors.As(err, target)
}

func asError(err error, target **apperrors.Error) bool {
	return errors.As(err, target)
}
