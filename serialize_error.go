package vestig

import (
	"errors"
	"fmt"
)

const maxCauseDepth = 10

// SerializedError is the JSON-safe rendering of a Go error and its
// unwrap chain, matching the spec's {name, message, stack?, code?,
// statusCode?, cause?} shape.
type SerializedError struct {
	Name       string           `json:"name"`
	Message    string           `json:"message"`
	Stack      string           `json:"stack,omitempty"`
	Code       string           `json:"code,omitempty"`
	StatusCode int              `json:"statusCode,omitempty"`
	Errno      string           `json:"errno,omitempty"`
	Syscall    string           `json:"syscall,omitempty"`
	Path       string           `json:"path,omitempty"`
	Address    string           `json:"address,omitempty"`
	Port       string           `json:"port,omitempty"`
	Cause      *SerializedError `json:"cause,omitempty"`
}

// codeProvider, statusCodeProvider, and the other well-known-field
// interfaces let callers' own error types surface structured metadata
// without this package needing to import them.
type codeProvider interface{ Code() string }
type statusCodeProvider interface{ StatusCode() int }
type errnoProvider interface{ Errno() string }
type syscallProvider interface{ Syscall() string }
type pathProvider interface{ Path() string }
type addressProvider interface{ Address() string }
type portProvider interface{ Port() string }
type stackProvider interface{ Stack() string }

// SerializeError walks err's Unwrap chain depth-first, up to
// maxCauseDepth levels, breaking cycles via error identity. Returns
// nil for a nil error.
func SerializeError(err error) *SerializedError {
	if err == nil {
		return nil
	}
	visited := map[error]struct{}{}
	return serializeChain(err, 0, visited)
}

func serializeChain(err error, depth int, visited map[error]struct{}) *SerializedError {
	if depth >= maxCauseDepth {
		return &SerializedError{Name: "MaxDepthExceeded", Message: "cause chain truncated"}
	}
	if _, seen := visited[err]; seen {
		return &SerializedError{Name: "CircularReference", Message: "[Circular Reference]"}
	}
	visited[err] = struct{}{}

	se := &SerializedError{
		Name:    errorName(err),
		Message: err.Error(),
	}
	if p, ok := err.(stackProvider); ok {
		se.Stack = p.Stack()
	}
	if p, ok := err.(codeProvider); ok {
		se.Code = p.Code()
	}
	if p, ok := err.(statusCodeProvider); ok {
		se.StatusCode = p.StatusCode()
	}
	if p, ok := err.(errnoProvider); ok {
		se.Errno = p.Errno()
	}
	if p, ok := err.(syscallProvider); ok {
		se.Syscall = p.Syscall()
	}
	if p, ok := err.(pathProvider); ok {
		se.Path = p.Path()
	}
	if p, ok := err.(addressProvider); ok {
		se.Address = p.Address()
	}
	if p, ok := err.(portProvider); ok {
		se.Port = p.Port()
	}

	if cause := errors.Unwrap(err); cause != nil {
		se.Cause = serializeChain(cause, depth+1, visited)
	}
	return se
}

func errorName(err error) string {
	type named interface{ Name() string }
	if n, ok := err.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", err)
}
