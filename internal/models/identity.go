package models

type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleInstructor UserRole = "INSTRUCTOR"
	// RoleNone is the unset sentinel; it is never a valid registration role.
	RoleNone UserRole = "NONE"
)

func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleInstructor
}

// Identity is the authenticated user as seen by the rest of the core.
// An empty CourseID means the user is not enrolled in or running a course.
type Identity struct {
	ID          string   `json:"id"`
	CourseID    string   `json:"courseId"`
	DisplayName string   `json:"displayName"`
	Role        UserRole `json:"role"`
}

func (i *Identity) HasCourse() bool {
	return i.CourseID != ""
}

func (i *Identity) IsInstructor() bool {
	return i.Role == RoleInstructor
}

func (i *Identity) IsStudent() bool {
	return i.Role == RoleStudent
}

// UserDetails is the membership record stored at users/{userId}.
type UserDetails struct {
	CourseID string   `json:"courseId"`
	Name     string   `json:"name"`
	Type     UserRole `json:"type"`
}

// InstructorNameCourseIndex is stored at instructorsNameCourseIndex/{name}. Instructor
// display names double as the public key students use to find a course.
type InstructorNameCourseIndex struct {
	UserID   string `json:"userId"`
	CourseID string `json:"courseId"`
}

// SessionDetails is what the session sink keeps about the signed-in user.
type SessionDetails struct {
	CourseID string   `json:"courseId"`
	Role     UserRole `json:"role"`
}

func (i *Identity) Session() SessionDetails {
	return SessionDetails{CourseID: i.CourseID, Role: i.Role}
}
