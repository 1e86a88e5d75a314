package errorvalues

import "errors"

var (
	ErrWorkoutNotFound  = errors.New("workout doesn't exist")
	ErrTemplateNotFound = errors.New("template doesn't exist")
	ErrSessionNotFound  = errors.New("session doesn't exist")
	ErrExerciseNotFound = errors.New("session exercise doesn't exist")
	ErrEmptyTemplate    = errors.New("template has no exercises")
	ErrInvalidDate      = errors.New("invalid workout date")
	ErrValidation       = errors.New("validation failed")
)
