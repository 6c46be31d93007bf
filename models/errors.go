package models

import "errors"

// Pipeline error taxonomy. Callers classify failures with errors.Is; wrap
// these with fmt.Errorf("...: %w", ...) to add context.
var (
	// ErrInvalidInput marks a caller mistake (empty or malformed name).
	// Surfaced immediately, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSearchProvider marks an upstream search failure (transport error,
	// non-2xx, rate limit). Retryable at the pipeline level.
	ErrSearchProvider = errors.New("search provider error")

	// ErrModelUnavailable marks an unreachable model backend or a model
	// that cannot be loaded. Fatal to the run.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrModelTimeout marks a generation call exceeding its deadline.
	ErrModelTimeout = errors.New("model timeout")

	// ErrParseExhausted marks a run whose every generation attempt produced
	// unparsable output.
	ErrParseExhausted = errors.New("parse attempts exhausted")

	// ErrTimeoutExceeded marks a run that hit the global wall-clock budget.
	ErrTimeoutExceeded = errors.New("execution time exceeded")

	// ErrTaskNotFound is returned when a task lookup misses (unknown id or
	// expired result).
	ErrTaskNotFound = errors.New("task not found")
)
