package models

import "time"

type QuizStatus string

const (
	QuizStatusDraft    QuizStatus = "draft"
	QuizStatusRunning  QuizStatus = "running"
	QuizStatusFinished QuizStatus = "finished"
)

type AttemptStatus string

const (
	AttemptStatusActive   AttemptStatus = "active"
	AttemptStatusFinished AttemptStatus = "finished"
	AttemptStatusScored   AttemptStatus = "scored"
)

// QuizSummary is one entry of a course quiz listing.
type QuizSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Started  bool   `json:"started"`
	Finished bool   `json:"finished"`
}

// AttemptDetails is a stored attempt as returned by the quiz service.
type AttemptDetails struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	QuizName    string     `json:"quizName"`
	Questions   []string   `json:"questions"`
	Answers     []string   `json:"answers"`
	Score       *int       `json:"score,omitempty"`
	SubmittedOn *time.Time `json:"submittedOn,omitempty"`
}

type WeeklyAttempt struct {
	QuizName    string    `json:"quizName"`
	Score       int       `json:"score"`
	SubmittedOn time.Time `json:"submittedOn"`
}

type WeeklySummary struct {
	AverageScore float64         `json:"averageScore"`
	Attempts     []WeeklyAttempt `json:"attempts"`
}
