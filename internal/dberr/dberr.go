// Package dberr defines the error kinds shared by the store, the command
// parser and the persistence adapters.
package dberr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KeyNotFound: the key is absent.
	KeyNotFound Kind = iota + 1
	// KeyExists: the target key is already present.
	KeyExists
	// InvalidCommand: the line does not parse as a command.
	InvalidCommand
	// InvalidTTL: a TTL field is not a usable number of seconds.
	InvalidTTL
	// Persistence: the snapshot could not be saved.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case KeyNotFound:
		return "KeyNotFound"
	case KeyExists:
		return "KeyExists"
	case InvalidCommand:
		return "InvalidCommand"
	case InvalidTTL:
		return "InvalidTTL"
	case Persistence:
		return "Persistence"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a typed failure. Subject is the key, command line or TTL field the
// error refers to; Err is the underlying cause for Persistence errors.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

// Sentinels for errors.Is. They match any Error of the same Kind.
var (
	ErrKeyNotFound    = &Error{Kind: KeyNotFound}
	ErrKeyExists      = &Error{Kind: KeyExists}
	ErrInvalidCommand = &Error{Kind: InvalidCommand}
	ErrInvalidTTL     = &Error{Kind: InvalidTTL}
	ErrPersistence    = &Error{Kind: Persistence}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KeyNotFound:
		return fmt.Sprintf("key '%s' not found", e.Subject)
	case KeyExists:
		return fmt.Sprintf("key '%s' already exists", e.Subject)
	case InvalidCommand:
		return "invalid command: " + e.Subject
	case InvalidTTL:
		return "invalid TTL: " + e.Subject
	case Persistence:
		if e.Err != nil {
			return "persistence error: " + e.Err.Error()
		}
		return "persistence error: " + e.Subject
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NotFound reports that key is absent.
func NotFound(key string) error { return &Error{Kind: KeyNotFound, Subject: key} }

// Exists reports that key is already present.
func Exists(key string) error { return &Error{Kind: KeyExists, Subject: key} }

// BadCommand reports an unparseable command line.
func BadCommand(line string) error { return &Error{Kind: InvalidCommand, Subject: line} }

// BadTTL reports an invalid TTL field.
func BadTTL(field string) error { return &Error{Kind: InvalidTTL, Subject: field} }

// Wrap turns a gateway failure into a Persistence error. A nil err stays nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Persistence, Err: err}
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
