package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a request payload failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorizedActor indicates the cited staff member is unknown or inactive.
	ErrUnauthorizedActor = errors.New("staff member is not authorized")
	// ErrInvalidTransition indicates the job is not in the state the operation requires.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrJobNotFound indicates the job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrStaffNotFound indicates the staff member does not exist.
	ErrStaffNotFound = errors.New("staff member not found")
	// ErrStaffExists indicates a staff member with that name already exists.
	ErrStaffExists = errors.New("staff member already exists")
	// ErrDuplicateJob indicates an active job already covers the same file and student.
	ErrDuplicateJob = errors.New("duplicate job submission")
	// ErrTokenExpired indicates a correctly signed confirmation token is too old.
	ErrTokenExpired = errors.New("confirmation token expired")
	// ErrTokenInvalid indicates a confirmation token failed verification.
	ErrTokenInvalid = errors.New("confirmation token invalid")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrDeleteNotAllowed indicates the job has progressed past the deletable states.
	ErrDeleteNotAllowed = errors.New("job cannot be deleted in its current status")
	// ErrInvalidCredentials indicates a failed workstation login.
	ErrInvalidCredentials = errors.New("invalid workstation credentials")
)

// ValidationError carries a human readable reason and unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DuplicateJobError reports the id of the active job that blocked a submission.
type DuplicateJobError struct {
	ExistingJobID string
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("%s: existing job %s", ErrDuplicateJob, e.ExistingJobID)
}

// Unwrap allows errors.Is(err, ErrDuplicateJob).
func (e *DuplicateJobError) Unwrap() error {
	return ErrDuplicateJob
}
