package models

import (
	"errors"
	"fmt"
)

// Kind classifies handler failures.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConnection
	KindValidation
	KindPublish
	KindPersistence
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindValidation:
		return "validation"
	case KindPublish:
		return "publish"
	case KindPersistence:
		return "persistence"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the typed outcome returned by message handlers.
type Error struct {
	Kind  Kind
	Model string
	Err   error
}

func NewError(kind Kind, model string, err error) *Error {
	return &Error{Kind: kind, Model: model, Err: err}
}

func (e *Error) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error (%s): %v", e.Kind, e.Model, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
