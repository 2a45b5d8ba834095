package service

import "errors"

var (
	// ErrInvalidInput wraps every validation failure of user supplied data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTaskNotFound is returned when the user has no task with the given number.
	ErrTaskNotFound = errors.New("task not found")
	// ErrDestinationUnreachable is returned by a Dispatcher when the recipient can
	// never be reached (blocked bot, deleted chat). Anything else is transient.
	ErrDestinationUnreachable = errors.New("destination permanently unreachable")
	// ErrSweepInProgress is returned when a sweep is requested while one is running.
	ErrSweepInProgress = errors.New("sweep already in progress")
)
