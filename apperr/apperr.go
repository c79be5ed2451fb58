// Package apperr defines the failure kinds shared by every external collaborator.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// KindConfiguration: a required credential or setting is missing.
	KindConfiguration Kind = iota + 1
	// KindService: an external call was attempted and failed.
	KindService
	// KindEmptyOutput: generation returned no usable text.
	KindEmptyOutput
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindService:
		return "service"
	case KindEmptyOutput:
		return "empty output"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrService       = errors.New("service error")
	ErrEmptyOutput   = errors.New("empty output")
)

// Error carries the kind and the collaborator that produced it.
type Error struct {
	Kind    Kind
	Service string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Service != "" {
		b.WriteString(e.Service)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to the error kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrService:
		return e.Kind == KindService
	case ErrEmptyOutput:
		return e.Kind == KindEmptyOutput
	}
	return false
}

// Config reports a missing credential or setting.
func Config(service, format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Service: service, Err: fmt.Errorf(format, args...)}
}

// Service wraps a failed external call. A nil err yields nil.
func Service(service string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: KindService, Service: service, Err: err}
}

// EmptyOutput reports a generation that produced nothing usable.
func EmptyOutput(service, format string, args ...any) error {
	return &Error{Kind: KindEmptyOutput, Service: service, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StatusError is returned when a vendor answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
