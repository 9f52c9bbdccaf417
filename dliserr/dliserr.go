// Package dliserr defines the flat set of error kinds surfaced to callers
// of the framing, record and eflr packages, plus the wrapping type that
// carries a kind alongside its underlying cause.
package dliserr

import "fmt"

// Kind is one of the fixed error categories named in the format's error
// handling design. It is intentionally flat rather than a tree of named
// types: callers switch on Kind, not on concrete Go types.
type Kind string

const (
	Io                 Kind = "io"
	UnexpectedEof      Kind = "unexpected_eof"
	Closed             Kind = "closed"
	BadSUL             Kind = "bad_sul"
	Framing            Kind = "framing"
	ChainMismatch      Kind = "chain_mismatch"
	Encrypted          Kind = "encrypted"
	BadComponent       Kind = "bad_component"
	ExpectedSet        Kind = "expected_set"
	ExpectedAttribute  Kind = "expected_attribute"
	ExpectedObject     Kind = "expected_object"
	TemplateMissLabel  Kind = "template_missing_label"
	TruncatedField     Kind = "truncated_field"
	UnknownReprc       Kind = "unknown_reprc"
)

// Error wraps an underlying cause with one of the fixed Kinds above.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "read_sul", "index_next"
	Err     error
	Session string // session ID of the dlis.File that returned this error, if any
}

func (e *Error) Error() string {
	if e.Session != "" {
		if e.Err == nil {
			return fmt.Sprintf("dlis: %s: %s: session=%s", e.Op, e.Kind, e.Session)
		}
		return fmt.Sprintf("dlis: %s: %s: %v: session=%s", e.Op, e.Kind, e.Err, e.Session)
	}
	if e.Err == nil {
		return fmt.Sprintf("dlis: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("dlis: %s: %s: %v", e.Op, e.Kind, e.Err)
}

// WithSession returns a copy of e tagged with the given session ID. It is a
// no-op when e is nil, so callers can tag the result of a function that may
// or may not return a *Error without a separate nil check.
func (e *Error) WithSession(session string) *Error {
	if e == nil {
		return nil
	}
	tagged := *e
	tagged.Session = session
	return &tagged
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, dliserr.Framing) work directly against a bare
// Kind value, by treating a Kind as its own sentinel.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// Error satisfies the error interface for a bare Kind so that
// errors.Is(err, dliserr.Framing) reads naturally at call sites.
func (k Kind) Error() string { return string(k) }

// New constructs an *Error for op/kind, optionally wrapping cause.
func New(op string, kind Kind, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}
