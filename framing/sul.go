package framing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rxanders35/dlisgo/dliserr"
)

// sulLen is the fixed on-disk width of the Storage Unit Label.
const sulLen = 80

const (
	sulSeqLen       = 4
	sulVersionLen   = 5
	sulStructureLen = 6
	sulMaxlenLen    = 5
	sulIDLen        = 60
)

// StorageUnitLabel is the decoded 80-byte file prologue.
type StorageUnitLabel struct {
	Sequence int
	Version  string // "major.minor", e.g. "1.0"
	Layout   string // "record" or "unknown"
	MaxLen   int64
	ID       string
}

// ReadSUL reads exactly 80 bytes at the source's current position and
// decodes the Storage Unit Label.
func ReadSUL(src ByteSource) (StorageUnitLabel, error) {
	buf := make([]byte, sulLen)
	if err := src.ReadExact(buf); err != nil {
		return StorageUnitLabel{}, err
	}
	return decodeSUL(buf)
}

func decodeSUL(buf []byte) (StorageUnitLabel, error) {
	seqField := string(buf[0:sulSeqLen])
	versionField := string(buf[sulSeqLen : sulSeqLen+sulVersionLen])
	structField := string(buf[sulSeqLen+sulVersionLen : sulSeqLen+sulVersionLen+sulStructureLen])
	maxlenField := string(buf[sulSeqLen+sulVersionLen+sulStructureLen : sulSeqLen+sulVersionLen+sulStructureLen+sulMaxlenLen])
	idField := string(buf[sulLen-sulIDLen:])

	seq, err := strconv.Atoi(strings.TrimSpace(seqField))
	if err != nil {
		return StorageUnitLabel{}, dliserr.New("read_sul", dliserr.BadSUL, fmt.Errorf("sequence %q: %w", seqField, err))
	}

	var major, minor int
	if _, err := fmt.Sscanf(versionField, "V%d.%d", &major, &minor); err != nil {
		return StorageUnitLabel{}, dliserr.New("read_sul", dliserr.BadSUL, fmt.Errorf("version %q: %w", versionField, err))
	}
	version := fmt.Sprintf("%d.%d", major, minor)

	layout := "unknown"
	if strings.TrimRight(structField, " ") == "RECORD" {
		layout = "record"
	}

	maxlen, err := strconv.ParseInt(strings.TrimSpace(maxlenField), 10, 64)
	if err != nil {
		return StorageUnitLabel{}, dliserr.New("read_sul", dliserr.BadSUL, fmt.Errorf("maxlen %q: %w", maxlenField, err))
	}

	return StorageUnitLabel{
		Sequence: seq,
		Version:  version,
		Layout:   layout,
		MaxLen:   maxlen,
		ID:       strings.TrimRight(idField, " "),
	}, nil
}
