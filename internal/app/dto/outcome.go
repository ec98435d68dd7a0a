package dto

// OutcomeKind classifies the result of a product operation independently of
// the transport that renders it.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeCreated
	OutcomeNotFound
	OutcomeUnauthorized
	OutcomeServerError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeCreated:
		return "created"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Outcome carries the kind of result, the body value when there is one, and
// a human readable Message for failures.
type Outcome[T any] struct {
	Kind    OutcomeKind
	Value   T
	Message string
	hasBody bool
}

// HasBody reports whether Value is the response body
func (o Outcome[T]) HasBody() bool {
	return o.hasBody
}

// OK wraps a successful result
func OK[T any](value T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeOK, Value: value, hasBody: true}
}

// Created wraps the result of a successful create
func Created[T any](value T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeCreated, Value: value, hasBody: true}
}

// NotFound reports a missing resource
func NotFound[T any](message string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeNotFound, Message: message}
}

// Unauthorized reports a request rejected by the authorization gate
func Unauthorized[T any](message string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeUnauthorized, Message: message}
}

// ServerError reports an unexpected failure
func ServerError[T any](message string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeServerError, Message: message}
}

// ServerErrorWithBody reports an unexpected failure whose body is value
func ServerErrorWithBody[T any](value T, message string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeServerError, Value: value, Message: message, hasBody: true}
}
