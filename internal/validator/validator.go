package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator checks service input forms and quiz question lists.
type Validator struct {
	forms     *validator.Validate
	questions *QuestionValidator
}

func New() *Validator {
	forms := validator.New(validator.WithRequiredStructEnabled())
	forms.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	forms.RegisterValidation("education_level", func(fl validator.FieldLevel) bool {
		return models.EducationLevel(fl.Field().String()).Valid()
	})
	// report fields by their json names
	forms.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		forms:     forms,
		questions: NewQuestionValidator(),
	}
}

// ValidateStruct returns the raw validator.ValidationErrors, for callers that pick
// their message from the failing rules.
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.forms.Struct(s)
}

// Check reports any failure as one validation error carrying message, with the
// per-field details wrapped inside.
func (v *Validator) Check(message string, s interface{}) error {
	return apperrors.FromValidator(message, v.forms.Struct(s))
}

func (v *Validator) Question() *QuestionValidator {
	return v.questions
}
