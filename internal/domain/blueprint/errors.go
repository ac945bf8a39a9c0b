package blueprint

import "fmt"

// ErrorKind enumerates the parser's closed set of configuration error
// categories.
type ErrorKind string

const (
	// MalformedConfig is a syntax or shape violation below the domain
	// model's reach — raised by the infrastructure loader when the raw
	// document itself doesn't decode.
	MalformedConfig ErrorKind = "MalformedConfig"
	// DuplicateName means a name that must be unique within its scope
	// (a workflow step id) appears twice.
	DuplicateName ErrorKind = "DuplicateName"
	// MalformedWiringKey means a wiring key or value does not match
	// "<name>.<interface-qualified-name>".
	MalformedWiringKey ErrorKind = "MalformedWiringKey"
	// UnknownReference means a wiring entry or workflow step refers to a
	// component not declared in [components].
	UnknownReference ErrorKind = "UnknownReference"
	// TemplateError means a workflow step's template refers to a step that
	// does not exist, or does not precede it in declared order.
	TemplateError ErrorKind = "TemplateError"
)

// ParseError is the domain's single error type for configuration problems
// detected while building a Blueprint value.
type ParseError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newParseError(kind ErrorKind, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// NewParseError builds a ParseError for use outside the package, by the
// infrastructure loader that decodes the raw document before handing its
// sections to New.
func NewParseError(kind ErrorKind, format string, args ...interface{}) *ParseError {
	return newParseError(kind, format, args...)
}
