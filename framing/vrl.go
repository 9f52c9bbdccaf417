package framing

import (
	"fmt"

	"github.com/rxanders35/dlisgo/diag"
	"github.com/rxanders35/dlisgo/dliserr"
)

// VisibleRecordLabel is the decoded 4-byte header of a Visible Record.
type VisibleRecordLabel struct {
	Length  uint16 // total VR length, including this 4-byte label
	Version uint8
}

// ReadVRL reads 4 bytes at the source's current position and decodes a
// Visible Record label. A format version other than 1 is reported through
// sink as a warning; the caller may still rely on the reported length.
func ReadVRL(src ByteSource, sink diag.Sink) (VisibleRecordLabel, error) {
	buf := make([]byte, 4)
	if err := src.ReadExact(buf); err != nil {
		return VisibleRecordLabel{}, err
	}
	length := uint16(buf[0])<<8 | uint16(buf[1])
	version := buf[3]
	// buf[2] is the reserved 0xFF byte; not validated.

	if version != 1 {
		sink.Warn("vrl_version_mismatch", fmt.Sprintf("visible record label reports format version %d, expected 1", version),
			diag.Field{Key: "version", Value: version})
	}

	return VisibleRecordLabel{Length: length, Version: version}, nil
}

// SegmentHeader is the decoded 4-byte Logical Record Segment header.
type SegmentHeader struct {
	Length uint16 // total segment length, including this 4-byte header
	Type   uint8
	Attrs  uint8
}

// ReadLRSH reads 4 bytes at the source's current position and decodes a
// Logical Record Segment header.
func ReadLRSH(src ByteSource) (SegmentHeader, error) {
	buf := make([]byte, 4)
	if err := src.ReadExact(buf); err != nil {
		return SegmentHeader{}, err
	}
	length := uint16(buf[0])<<8 | uint16(buf[1])
	attrs := buf[2]
	typ := buf[3]
	if length < 4 {
		return SegmentHeader{}, dliserr.New("read_lrsh", dliserr.Framing, fmt.Errorf("segment length %d is smaller than the header itself", length))
	}
	return SegmentHeader{Length: length, Type: typ, Attrs: attrs}, nil
}

// SegmentAttributes is the decoded 8 flag bits of a segment header's
// attributes byte, MSB to LSB: is_eflr, has_predecessor, has_successor,
// is_encrypted, has_encryption_packet, has_checksum, has_trailing_length,
// has_padding.
type SegmentAttributes struct {
	IsEFLR               bool
	HasPredecessor       bool
	HasSuccessor         bool
	IsEncrypted          bool
	HasEncryptionPacket  bool
	HasChecksum          bool
	HasTrailingLength    bool
	HasPadding           bool
}

// DecodeSegmentAttrs splits the 8 segment-attribute flag bits.
func DecodeSegmentAttrs(attrs uint8) SegmentAttributes {
	return SegmentAttributes{
		IsEFLR:              attrs&0x80 != 0,
		HasPredecessor:      attrs&0x40 != 0,
		HasSuccessor:        attrs&0x20 != 0,
		IsEncrypted:         attrs&0x10 != 0,
		HasEncryptionPacket: attrs&0x08 != 0,
		HasChecksum:         attrs&0x04 != 0,
		HasTrailingLength:   attrs&0x02 != 0,
		HasPadding:          attrs&0x01 != 0,
	}
}
