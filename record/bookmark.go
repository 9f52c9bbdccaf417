// Package record turns the framing layer's VR/LRS stream into addressable
// logical records: the indexer produces Bookmarks without buffering
// payload, and the assembler concatenates a bookmark's successor chain
// into one contiguous buffer.
package record

// Bookmark is a resumable pointer to the start of a logical record. It is
// a plain value: copyable, comparable, and holding no reference to the
// file or stream it came from.
type Bookmark struct {
	// Position is the stream offset of the first byte belonging to this
	// logical record (either a Visible Record label, when Residual == 0,
	// or a Segment header within an already-open VR).
	Position int64
	// Residual is the number of bytes remaining in the currently-open
	// Visible Record at Position. Zero means Position sits exactly on a
	// VR label.
	Residual int64
	// IsEFLR is the is_eflr flag copied from the first segment of the
	// record's chain.
	IsEFLR bool
}
