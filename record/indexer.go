package record

import (
	"fmt"
	"io"

	"github.com/rxanders35/dlisgo/diag"
	"github.com/rxanders35/dlisgo/dliserr"
	"github.com/rxanders35/dlisgo/framing"
)

// Indexer reads SUL-relative framing structure to produce Bookmarks
// without buffering any logical-record payload. It is side-effect-free
// with respect to data, but it advances the source's stream position.
type Indexer struct {
	src  framing.ByteSource
	sink diag.Sink
}

// NewIndexer builds an Indexer over src, reporting warnings to sink (or
// diag.NopSink if sink is nil).
func NewIndexer(src framing.ByteSource, sink diag.Sink) *Indexer {
	if sink == nil {
		sink = diag.NopSink
	}
	return &Indexer{src: src, sink: sink}
}

// IndexNext scans forward from the source's current position to the end
// of the next logical record's successor chain, returning a Bookmark for
// its start and the VR residual left after the chain.
func (ix *Indexer) IndexNext(residual int64) (Bookmark, int64, error) {
	pos, err := ix.src.Tell()
	if err != nil {
		return Bookmark{}, 0, err
	}
	mark := Bookmark{Position: pos, Residual: residual}

	first := true
	for {
		if residual == 0 {
			vrl, err := framing.ReadVRL(ix.src, ix.sink)
			if err != nil {
				return Bookmark{}, 0, err
			}
			residual = int64(vrl.Length) - 4
			if residual < 0 {
				return Bookmark{}, 0, dliserr.New("index_next", dliserr.Framing, fmt.Errorf("visible record length %d smaller than its own header", vrl.Length))
			}
			continue
		}

		seg, err := framing.ReadLRSH(ix.src)
		if err != nil {
			return Bookmark{}, 0, err
		}
		residual -= int64(seg.Length)
		if residual < 0 {
			return Bookmark{}, 0, dliserr.New("index_next", dliserr.Framing, fmt.Errorf("segment length %d overruns visible record residual", seg.Length))
		}

		attrs := framing.DecodeSegmentAttrs(seg.Attrs)
		if first {
			mark.IsEFLR = attrs.IsEFLR
			first = false
		} else if attrs.IsEFLR != mark.IsEFLR {
			return Bookmark{}, 0, dliserr.New("index_next", dliserr.ChainMismatch, fmt.Errorf("successor segment is_eflr=%v disagrees with chain's %v", attrs.IsEFLR, mark.IsEFLR))
		}

		if _, err := ix.src.Seek(int64(seg.Length)-4, io.SeekCurrent); err != nil {
			return Bookmark{}, 0, err
		}

		if !attrs.HasSuccessor {
			return mark, residual, nil
		}
	}
}
