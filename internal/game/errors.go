/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"errors"
	"fmt"
)

// Error kinds as reported to clients.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindState      = "state"
	KindExternal   = "external_service"
	KindInternal   = "internal"
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// NotFoundError reports an unknown session, player or connection.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// StateError reports an operation attempted in a phase that does not permit it.
type StateError struct {
	Op    string
	Phase Phase
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed during %s", e.Op, e.Phase)
}

// ExternalServiceError wraps a failure of a song or narration provider.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func invalid(op, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func wrongPhase(op string, phase Phase) error {
	return &StateError{Op: op, Phase: phase}
}

// Kind maps err onto the kind string sent to clients.
func Kind(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		state      *StateError
		external   *ExternalServiceError
	)

	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &state):
		return KindState
	case errors.As(err, &external):
		return KindExternal
	default:
		return KindInternal
	}
}
