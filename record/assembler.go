package record

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/rxanders35/dlisgo/diag"
	"github.com/rxanders35/dlisgo/dliserr"
	"github.com/rxanders35/dlisgo/framing"
)

// initialBufCap is the default initial capacity reserved for an
// assembled record's backing buffer, used when NewAssembler is given a
// non-positive buffer size.
const initialBufCap = 8 * 1024

// AssembledRecord is the concatenated, trailer-stripped payload of one
// logical record.
type AssembledRecord struct {
	Payload []byte
	IsEFLR  bool

	// TraceID correlates this assembly with any diagnostic events it
	// raised. It is the zero uuid.UUID when the Assembler was built
	// with diag.NopSink, since nothing would ever consume it.
	TraceID uuid.UUID
}

// Assembler concatenates a bookmark's successor chain into one
// contiguous buffer, stripping each segment's padding, trailing-length
// and checksum trailers as it goes.
type Assembler struct {
	src            framing.ByteSource
	sink           diag.Sink
	allowEncrypted bool
	initialBufSize int
}

// NewAssembler builds an Assembler over src. If allowEncrypted is false,
// encountering an encrypted segment fails with dliserr.Encrypted rather
// than returning its raw bytes. initialBufSize sets the initial capacity
// reserved for each assembled record's backing buffer; a non-positive
// value falls back to initialBufCap.
func NewAssembler(src framing.ByteSource, sink diag.Sink, allowEncrypted bool, initialBufSize int) *Assembler {
	if sink == nil {
		sink = diag.NopSink
	}
	if initialBufSize <= 0 {
		initialBufSize = initialBufCap
	}
	return &Assembler{src: src, sink: sink, allowEncrypted: allowEncrypted, initialBufSize: initialBufSize}
}

// traceSink tags every event passing through with a per-assembly trace
// ID, so a caller streaming logs can correlate a warning with the exact
// assembled buffer it came from.
type traceSink struct {
	inner   diag.Sink
	traceID uuid.UUID
}

func (s traceSink) Warn(code, msg string, fields ...diag.Field) {
	tagged := make([]diag.Field, 0, len(fields)+1)
	tagged = append(tagged, diag.Field{Key: "trace_id", Value: s.traceID})
	tagged = append(tagged, fields...)
	s.inner.Warn(code, msg, tagged...)
}

// Assemble concatenates the successor chain starting at b into a single
// buffer.
func (a *Assembler) Assemble(b Bookmark) (AssembledRecord, error) {
	if _, err := a.src.Seek(b.Position, io.SeekStart); err != nil {
		return AssembledRecord{}, err
	}
	residual := b.Residual

	var traceID uuid.UUID
	sink := a.sink
	if !diag.IsNop(a.sink) {
		traceID = uuid.New()
		sink = traceSink{inner: a.sink, traceID: traceID}
	}

	buf := make([]byte, 0, a.initialBufSize)
	first := true
	isEFLR := b.IsEFLR

	for {
		if residual == 0 {
			vrl, err := framing.ReadVRL(a.src, sink)
			if err != nil {
				return AssembledRecord{}, err
			}
			residual = int64(vrl.Length) - 4
			if residual < 0 {
				return AssembledRecord{}, dliserr.New("assemble", dliserr.Framing, fmt.Errorf("visible record length %d smaller than its own header", vrl.Length))
			}
			continue
		}

		seg, err := framing.ReadLRSH(a.src)
		if err != nil {
			return AssembledRecord{}, err
		}
		residual -= int64(seg.Length)
		if residual < 0 {
			return AssembledRecord{}, dliserr.New("assemble", dliserr.Framing, fmt.Errorf("segment length %d overruns visible record residual", seg.Length))
		}

		attrs := framing.DecodeSegmentAttrs(seg.Attrs)
		if first {
			isEFLR = attrs.IsEFLR
			first = false
		} else if attrs.IsEFLR != isEFLR {
			return AssembledRecord{}, dliserr.New("assemble", dliserr.ChainMismatch, fmt.Errorf("successor segment is_eflr=%v disagrees with chain's %v", attrs.IsEFLR, isEFLR))
		}

		if attrs.IsEncrypted && !a.allowEncrypted {
			return AssembledRecord{}, dliserr.New("assemble", dliserr.Encrypted, fmt.Errorf("encrypted segment encountered without opt-in"))
		}

		bodyLen := int(seg.Length) - 4
		body := make([]byte, bodyLen)
		if err := a.src.ReadExact(body); err != nil {
			return AssembledRecord{}, err
		}

		body, err = stripTrailers(body, attrs)
		if err != nil {
			return AssembledRecord{}, err
		}
		buf = append(buf, body...)

		if !attrs.HasSuccessor {
			return AssembledRecord{Payload: buf, IsEFLR: isEFLR, TraceID: traceID}, nil
		}
	}
}

// stripTrailers removes, in order, the trailing-length, checksum and
// padding suffixes a segment's attribute flags say are present.
func stripTrailers(body []byte, attrs framing.SegmentAttributes) ([]byte, error) {
	if attrs.HasTrailingLength {
		if len(body) < 2 {
			return nil, dliserr.New("assemble", dliserr.Framing, fmt.Errorf("segment body too short for trailing-length trailer"))
		}
		body = body[:len(body)-2]
	}
	if attrs.HasChecksum {
		if len(body) < 2 {
			return nil, dliserr.New("assemble", dliserr.Framing, fmt.Errorf("segment body too short for checksum trailer"))
		}
		body = body[:len(body)-2]
	}
	if attrs.HasPadding {
		if len(body) < 1 {
			return nil, dliserr.New("assemble", dliserr.Framing, fmt.Errorf("segment body too short for padding trailer"))
		}
		p := int(body[len(body)-1])
		if len(body) < p {
			return nil, dliserr.New("assemble", dliserr.Framing, fmt.Errorf("padding count %d exceeds segment body length %d", p, len(body)))
		}
		body = body[:len(body)-p]
	}
	return body, nil
}
