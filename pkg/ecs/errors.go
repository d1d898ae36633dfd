package ecs

import "fmt"

// ErrorCode identifies a class of structural or contract failure raised by
// the core. All ErrorCode failures are fatal: the core panics rather than
// returning them, since they signal misuse of the API rather than an
// expected runtime condition. Warn-only conditions (duplicate registration,
// duplicate attachment, duplicate entity name) never produce an Error; they
// log and no-op.
type ErrorCode int

const (
	// ErrUnregisteredComponentType is raised when attach, detach, or query
	// operations reference a component type that was never registered.
	ErrUnregisteredComponentType ErrorCode = iota
	// ErrInvalidSchema is raised when a component type is registered with
	// a schema that declares a field with no FieldType.
	ErrInvalidSchema
	// ErrInvalidFieldTypeDefinition is raised when NewFieldType is given a
	// definition missing any of {name, default, copy, clone}.
	ErrInvalidFieldTypeDefinition
	// ErrEmptyQuery is raised when a query descriptor has zero included
	// component types.
	ErrEmptyQuery
	// ErrEntityNotInStore is raised when removeEntity is called on an
	// entity the store does not own.
	ErrEntityNotInStore
	// ErrReadOnlyComponent is raised in development mode when a component
	// obtained through an immutable view is written to.
	ErrReadOnlyComponent
)

func (c ErrorCode) String() string {
	switch c {
	case ErrUnregisteredComponentType:
		return "UnregisteredComponentType"
	case ErrInvalidSchema:
		return "InvalidSchema"
	case ErrInvalidFieldTypeDefinition:
		return "InvalidFieldTypeDefinition"
	case ErrEmptyQuery:
		return "EmptyQuery"
	case ErrEntityNotInStore:
		return "EntityNotInStore"
	case ErrReadOnlyComponent:
		return "ReadOnlyComponent"
	default:
		return "Unknown"
	}
}

// Error is the typed, fatal failure raised (via panic) by the core for
// structural and contract violations. Application code is not expected to
// recover from it; it indicates a programming error.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ecs: %s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func raise(code ErrorCode, format string, args ...any) {
	panic(newError(code, format, args...))
}
