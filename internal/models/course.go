package models

type EducationLevel string

const (
	EducationUniversity EducationLevel = "UNIVERSITY"
	EducationElementary EducationLevel = "ELEMENTARY"
	EducationHighSchool EducationLevel = "HIGH_SCHOOL"
	EducationNone       EducationLevel = "NONE"
)

func (l EducationLevel) Valid() bool {
	switch l {
	case EducationUniversity, EducationElementary, EducationHighSchool:
		return true
	}
	return false
}

// Course is stored at courses/{courseId}. StudentIDs only ever grows.
type Course struct {
	ID             string         `json:"id"`
	InstructorID   string         `json:"instructorId"`
	Name           string         `json:"name"`
	EducationLevel EducationLevel `json:"educationLevel"`
	Description    string         `json:"description"`
	StudentIDs     []string       `json:"studentIds"`
	QuizIDs        []string       `json:"quizIds"`
}

func (c *Course) HasStudent(userID string) bool {
	for _, id := range c.StudentIDs {
		if id == userID {
			return true
		}
	}
	return false
}
