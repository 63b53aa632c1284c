package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Error categories. Handlers map each one to a status code; specific errors below wrap them.
var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("duplicate record")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrUpstream   = errors.New("upstream failure")
)

var (
	ErrInvalidGrade         = fmt.Errorf("%w: grade must be between 0 and 100", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: date must use the YYYY-MM-DD format", ErrValidation)
	ErrDuplicateSubmission  = fmt.Errorf("%w: assignment already submitted", ErrDuplicate)
	ErrAlreadyEnrolled      = fmt.Errorf("%w: already enrolled in this course", ErrDuplicate)
	ErrProfileNotFound      = fmt.Errorf("%w: profile", ErrNotFound)
	ErrCourseNotFound       = fmt.Errorf("%w: course", ErrNotFound)
	ErrAssignmentNotFound   = fmt.Errorf("%w: assignment", ErrNotFound)
	ErrSubmissionNotFound   = fmt.Errorf("%w: submission", ErrNotFound)
	ErrFileNotFound         = fmt.Errorf("%w: file", ErrNotFound)
	ErrNotCourseOwner       = fmt.Errorf("%w: course belongs to another teacher", ErrForbidden)
	ErrNotEnrolled          = fmt.Errorf("%w: not enrolled in this course", ErrForbidden)
	ErrAssistantUnavailable = fmt.Errorf("%w: assistant is not configured", ErrUpstream)
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err belongs to the validation category, including struct tag failures.
func IsValidation(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.Is(err, ErrValidation) || errors.As(err, &validationErrors)
}
