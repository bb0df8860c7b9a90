package manager

import (
	"errors"

	"task-tracker/pkg/schedule"
)

var (
	// ErrNotFound means an update or delete named an id that is not stored.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference means a subtask names an epic that does not exist
	// or does not own it.
	ErrInvalidReference = errors.New("invalid epic reference")

	// ErrScheduleConflict means the entity's interval overlaps a scheduled one.
	ErrScheduleConflict = schedule.ErrConflict

	// ErrMalformedInput means the entity is missing or carries unusable fields.
	ErrMalformedInput = errors.New("malformed input")
)
