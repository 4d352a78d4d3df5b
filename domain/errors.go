package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	errTaskNotFound       error = errors.New("task not found")
	errCommentNotFound    error = errors.New("comment not found")
	errFileNotFound       error = errors.New("file not found")
	errUserNotFound       error = errors.New("user not found")
	errUserAlreadyExists  error = errors.New("User already exists")
	errInvalidCredentials error = errors.New("Invalid credentials")
	errInvalidToken       error = errors.New("token invalid")
	errUnauthorized       error = errors.New("unauthorized")
	errForbidden          error = errors.New("forbidden")
)

func ErrTaskNotFound() error {
	return errTaskNotFound
}

func ErrCommentNotFound() error {
	return errCommentNotFound
}

func ErrFileNotFound() error {
	return errFileNotFound
}

func ErrUserNotFound() error {
	return errUserNotFound
}

func ErrUserAlreadyExists() error {
	return errUserAlreadyExists
}

func ErrInvalidCredentials() error {
	return errInvalidCredentials
}

func ErrInvalidToken() error {
	return errInvalidToken
}

func ErrUnauthorized() error {
	return errUnauthorized
}

func ErrForbidden() error {
	return errForbidden
}

// IsNotFound reports whether err refers to a missing or soft-deleted resource.
func IsNotFound(err error) bool {
	return errors.Is(err, errTaskNotFound) ||
		errors.Is(err, errCommentNotFound) ||
		errors.Is(err, errFileNotFound) ||
		errors.Is(err, errUserNotFound)
}

// ValidationError collects per-field problems found in a request.
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem for field. The first problem reported for a field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Err returns nil when no problems were recorded.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func NewValidationError(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}
