// Package diag provides the pluggable, non-global warning sink injected
// into the framing, record and eflr packages. Warnings never alter parse
// output beyond what each caller site documents; they exist purely for
// observability.
package diag

// Field is a single structured key/value pair attached to an Event,
// mirroring the field model of go.uber.org/zap without depending on a
// concrete zap type at this layer.
type Field struct {
	Key   string
	Value any
}

// Event is one warning-level occurrence.
type Event struct {
	Code   string
	Msg    string
	Fields []Field
}

// Sink receives warning-level diagnostic events. Implementations must be
// safe to use from a single goroutine at a time; the module never calls a
// Sink concurrently on the same File.
type Sink interface {
	Warn(code string, msg string, fields ...Field)
}

// nopSink discards every event.
type nopSink struct{}

// NopSink is the zero-effort Sink, used whenever a caller does not supply
// one.
var NopSink Sink = nopSink{}

func (nopSink) Warn(string, string, ...Field) {}

// IsNop reports whether s is the NopSink, letting callers skip work (like
// generating a correlation ID) that would only ever feed a discarded event.
func IsNop(s Sink) bool {
	_, ok := s.(nopSink)
	return ok
}

// sliceSink appends every event to a caller-owned slice, for tests that
// want to assert on which warnings fired.
type sliceSink struct {
	events *[]Event
}

// NewSliceSink returns a Sink that records events into the returned
// slice pointer, and the slice pointer itself.
func NewSliceSink() (Sink, *[]Event) {
	events := make([]Event, 0)
	return &sliceSink{events: &events}, &events
}

func (s *sliceSink) Warn(code, msg string, fields ...Field) {
	*s.events = append(*s.events, Event{Code: code, Msg: msg, Fields: fields})
}
