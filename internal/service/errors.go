package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyCompletion is returned when the model answers with no text
var ErrEmptyCompletion = errors.New("empty completion")

// FieldError describes one field that failed validation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports shape or range failures with field-level detail.
// It is used both for caller input and for model payloads; the generation
// pipeline wraps the latter in a ModelError before it leaves this package.
type ValidationError struct {
	Op     string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Op, strings.Join(parts, "; "))
}

// ParseError is returned when model text is not interpretable as JSON
type ParseError struct {
	Op    string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse model response: %v", e.Op, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ModelError is returned when the completion call fails or yields unusable text.
// Error() never includes model output.
type ModelError struct {
	Op    string
	IDs   map[string]string
	Cause error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: meal planning service unavailable", e.Op)
}

func (e *ModelError) Unwrap() error { return e.Cause }

// RateLimitError is returned when a key has exhausted its window quota
type RateLimitError struct {
	Key     string
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit of %d requests exceeded, resets at %s", e.Limit, e.ResetAt.Format(time.RFC3339))
}

// NotFoundError is returned when a referenced plan, meal or profile is absent
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func modelError(op string, cause error, ids ...string) *ModelError {
	e := &ModelError{Op: op, Cause: cause}
	if len(ids) > 1 {
		e.IDs = make(map[string]string, len(ids)/2)
		for i := 0; i+1 < len(ids); i += 2 {
			e.IDs[ids[i]] = ids[i+1]
		}
	}
	return e
}
