// Package dlis ties the framing, record and eflr layers into the
// caller-facing File type: open a path, walk its logical records with
// IndexNext, and selectively Assemble or ParseEFLR the bookmarks of
// interest.
package dlis

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxanders35/dlisgo/diag"
	"github.com/rxanders35/dlisgo/dliserr"
	"github.com/rxanders35/dlisgo/eflr"
	"github.com/rxanders35/dlisgo/framing"
	"github.com/rxanders35/dlisgo/record"
)

// File is a single open DLIS file: its Storage Unit Label, plus the
// framing position a caller advances with IndexNext. Operations on a
// File are not safe for concurrent use.
type File struct {
	sessionID uuid.UUID

	f    *os.File
	src  framing.ByteSource
	sink diag.Sink

	indexer  *record.Indexer
	asm      *record.Assembler
	residual int64 // last residual IndexNext returned

	sul framing.StorageUnitLabel

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

type openConfig struct {
	sink              diag.Sink
	allowEncrypted    bool
	initialBufferSize int
}

// Option configures Open: a small set of functional options layered onto
// Open's mandatory path argument.
type Option func(*openConfig)

// WithDiagSink routes every warning-level event the file's framing
// reader, assembler and EFLR parser raise to s.
func WithDiagSink(s diag.Sink) Option {
	return func(c *openConfig) { c.sink = s }
}

// WithAllowEncrypted permits Assemble to return the raw bytes of
// encrypted segments instead of failing with dliserr.Encrypted.
func WithAllowEncrypted(allow bool) Option {
	return func(c *openConfig) { c.allowEncrypted = allow }
}

// WithInitialBufferSize overrides the initial capacity reserved for an
// assembled record's backing buffer. The assembler still grows the
// buffer as needed; this only sizes its first allocation.
func WithInitialBufferSize(n int) Option {
	return func(c *openConfig) { c.initialBufferSize = n }
}

// WithLogger is a convenience over WithDiagSink that routes diagnostics
// through a structured zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *openConfig) { c.sink = diag.NewZapSink(l) }
}

// sessionSink tags every event passing through with the owning file's
// session ID, so log lines from concurrently open files can be
// correlated back to the file that produced them.
type sessionSink struct {
	inner     diag.Sink
	sessionID uuid.UUID
}

func (s sessionSink) Warn(code, msg string, fields ...diag.Field) {
	tagged := make([]diag.Field, 0, len(fields)+1)
	tagged = append(tagged, diag.Field{Key: "session_id", Value: s.sessionID})
	tagged = append(tagged, fields...)
	s.inner.Warn(code, msg, tagged...)
}

// tagSession attaches sessionID to err if err is a *dliserr.Error, so a
// caller holding two concurrently open files can tell which file an error
// came from even when both fail with the same Kind. Errors of any other
// type pass through unchanged.
func tagSession(err error, sessionID uuid.UUID) error {
	de, ok := err.(*dliserr.Error)
	if !ok {
		return err
	}
	return de.WithSession(sessionID.String())
}

// Open opens the file at path, reads and validates its Storage Unit
// Label, and returns a File positioned at the start of the first
// Visible Record.
func Open(path string, opts ...Option) (*File, error) {
	cfg := openConfig{
		sink:              diag.NopSink,
		initialBufferSize: 8 * 1024,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sessionID := uuid.New()

	f, err := os.Open(path)
	if err != nil {
		return nil, tagSession(dliserr.New("open", dliserr.Io, err), sessionID)
	}

	sink := sessionSink{inner: cfg.sink, sessionID: sessionID}

	src := framing.NewSource(f)
	sul, err := framing.ReadSUL(src)
	if err != nil {
		f.Close()
		return nil, tagSession(err, sessionID)
	}

	file := &File{
		sessionID: sessionID,
		f:         f,
		src:       src,
		sink:      sink,
		indexer:   record.NewIndexer(src, sink),
		asm:       record.NewAssembler(src, sink, cfg.allowEncrypted, cfg.initialBufferSize),
		sul:       sul,
	}
	return file, nil
}

// SessionID is generated once per Open and attached to every
// diagnostic event this File produces.
func (f *File) SessionID() uuid.UUID {
	return f.sessionID
}

// SUL returns the file's decoded Storage Unit Label.
func (f *File) SUL() framing.StorageUnitLabel {
	return f.sul
}

// EOF reports whether the file's stream position sits at its end with
// no Visible Record currently open, i.e. whether a further IndexNext
// call would have nothing left to index.
func (f *File) EOF() bool {
	if f.closed || f.residual != 0 {
		return false
	}
	pos, err := f.src.Tell()
	if err != nil {
		return false
	}
	size, err := f.f.Stat()
	if err != nil {
		return false
	}
	return pos >= size.Size()
}

// IndexNext advances past the next logical record's successor chain,
// returning a Bookmark for its start. residual must be the value
// returned by the previous call (0 to start at the first record after
// the SUL).
func (f *File) IndexNext(residual int64) (record.Bookmark, int64, error) {
	if f.closed {
		return record.Bookmark{}, 0, tagSession(dliserr.New("index_next", dliserr.Closed, fmt.Errorf("file is closed")), f.sessionID)
	}
	mark, newResidual, err := f.indexer.IndexNext(residual)
	if err != nil {
		return record.Bookmark{}, 0, tagSession(err, f.sessionID)
	}
	f.residual = newResidual
	return mark, newResidual, nil
}

// Assemble concatenates the successor chain starting at b into one
// trailer-stripped payload buffer.
func (f *File) Assemble(b record.Bookmark) (record.AssembledRecord, error) {
	if f.closed {
		return record.AssembledRecord{}, tagSession(dliserr.New("assemble", dliserr.Closed, fmt.Errorf("file is closed")), f.sessionID)
	}
	assembled, err := f.asm.Assemble(b)
	if err != nil {
		return record.AssembledRecord{}, tagSession(err, f.sessionID)
	}
	return assembled, nil
}

// ParseEFLR assembles b and parses it as an Explicitly Formatted
// Logical Record.
func (f *File) ParseEFLR(b record.Bookmark) (eflr.Record, error) {
	if f.closed {
		return eflr.Record{}, tagSession(dliserr.New("parse_eflr", dliserr.Closed, fmt.Errorf("file is closed")), f.sessionID)
	}
	assembled, err := f.Assemble(b)
	if err != nil {
		return eflr.Record{}, err
	}
	rec, err := eflr.Parse(assembled.Payload, f.sink)
	if err != nil {
		return eflr.Record{}, tagSession(err, f.sessionID)
	}
	return rec, nil
}

// Close releases the underlying file descriptor. It is idempotent: a
// second call returns the same error as the first without closing
// twice.
func (f *File) Close() error {
	f.closeOnce.Do(func() {
		f.closed = true
		f.closeErr = f.f.Close()
	})
	return f.closeErr
}
