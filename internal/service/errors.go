package service

import "errors"

var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUpstream            = errors.New("upstream failure")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAlreadyVerified     = errors.New("email already verified")
	ErrMissingToken        = errors.New("refresh token missing")
	ErrRefreshNotFound     = errors.New("refresh token not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation")

// ValidationError is a client mistake whose Msg is safe to show as-is.
type ValidationError struct {
	Msg string
	// Missing marks the "required field absent" rejection.
	Missing bool
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func missingData() *ValidationError {
	return &ValidationError{Msg: "Missing Data", Missing: true}
}
