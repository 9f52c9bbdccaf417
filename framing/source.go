package framing

import (
	"errors"
	"fmt"
	"io"

	"github.com/rxanders35/dlisgo/dliserr"
)

// ByteSource is the seekable byte stream the framing reader, the record
// indexer and the record assembler all read from. NewSource adapts a real
// file, or the in-memory reader the tests use, to it.
type ByteSource interface {
	// ReadExact fills buf completely or returns an error. A short read
	// that hits end-of-file surfaces as dliserr.UnexpectedEof; any other
	// short read surfaces as dliserr.Io.
	ReadExact(buf []byte) error
	// Seek repositions the stream, mirroring io.Seeker.
	Seek(offset int64, whence int) (int64, error)
	// Tell returns the current stream position.
	Tell() (int64, error)
}

// fileSource adapts any io.ReadSeeker (including *os.File) to ByteSource.
type fileSource struct {
	rs io.ReadSeeker
}

// NewSource wraps rs as a ByteSource.
func NewSource(rs io.ReadSeeker) ByteSource {
	return &fileSource{rs: rs}
}

func (s *fileSource) ReadExact(buf []byte) error {
	n, err := io.ReadFull(s.rs, buf)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return dliserr.New("read_exact", dliserr.UnexpectedEof, fmt.Errorf("read %d of %d bytes: %w", n, len(buf), err))
	}
	return dliserr.New("read_exact", dliserr.Io, err)
}

func (s *fileSource) Seek(offset int64, whence int) (int64, error) {
	pos, err := s.rs.Seek(offset, whence)
	if err != nil {
		return 0, dliserr.New("seek", dliserr.Io, err)
	}
	return pos, nil
}

func (s *fileSource) Tell() (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}
