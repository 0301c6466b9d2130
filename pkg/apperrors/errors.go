package apperrors

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyQuestion   = errors.New("question is required")
	ErrPlanInvalid     = errors.New("workflow plan is invalid")
)
