// Package store persists the path-addressed records the classroom core reads and writes:
// membership records, course records and the instructor name index.
package store

import (
	"context"
	"net/url"
	"strings"
)

// RecordStore is the record backend. Get reports found=false with a nil error for a missing path.
type RecordStore interface {
	Get(ctx context.Context, path string, dest interface{}) (bool, error)
	Set(ctx context.Context, path string, value interface{}) error
}

const (
	usersCollection           = "users"
	coursesCollection         = "courses"
	instructorIndexCollection = "instructorsNameCourseIndex"
	credentialsCollection     = "credentials"
	passwordResetsCollection  = "passwordResets"
)

func UserPath(userID string) string {
	return join(usersCollection, userID)
}

func CoursePath(courseID string) string {
	return join(coursesCollection, courseID)
}

func InstructorIndexPath(name string) string {
	return join(instructorIndexCollection, name)
}

// CredentialPath addresses the local identity backend's login records.
func CredentialPath(email string) string {
	return join(credentialsCollection, strings.ToLower(email))
}

// join escapes the key so a display name containing "/" stays one segment.
func join(collection, key string) string {
	return collection + "/" + url.PathEscape(key)
}

// PasswordResetPath addresses the local identity backend's reset outbox.
func PasswordResetPath(email string) string {
	return join(passwordResetsCollection, strings.ToLower(email))
}
