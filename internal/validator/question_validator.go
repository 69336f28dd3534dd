package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
)

// QuestionValidator handles quiz question validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestions checks a full replacement question sequence: at least one
// question, none blank, and no more than limit when limit is positive.
func (v *QuestionValidator) ValidateQuestions(questions []string, limit int) error {
	if len(questions) == 0 {
		return apperrors.Validation("a quiz must have at least one question")
	}

	var fieldErrors apperrors.ValidationErrors
	for i, q := range questions {
		if strings.TrimSpace(q) == "" {
			fieldErrors = append(fieldErrors, *apperrors.NewValidationErrorWithRule(
				fmt.Sprintf("questions[%d]", i), "must not be empty", "required", q))
		}
	}
	if len(fieldErrors) > 0 {
		return apperrors.ValidationWrap("questions must not be empty", fieldErrors)
	}

	if limit > 0 && len(questions) > limit {
		return apperrors.Validation(fmt.Sprintf("a quiz cannot have more than %d questions", limit))
	}
	return nil
}
