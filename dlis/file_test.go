package dlis

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rxanders35/dlisgo/diag"
	"github.com/rxanders35/dlisgo/dliserr"
)

// sulBytes builds an 80-byte Storage Unit Label matching sulLen/field
// widths: seq(4) + version(5) + structure(6) + maxlen(5) + id(60).
func sulBytes(seq int, version string, structure string, maxlen int, id string) []byte {
	buf := make([]byte, 80)
	copy(buf[0:4], fmt.Sprintf("%4d", seq))
	copy(buf[4:9], fmt.Sprintf("V%-4s", version))
	copy(buf[9:15], fmt.Sprintf("%-6s", structure))
	copy(buf[15:20], fmt.Sprintf("%5d", maxlen))
	copy(buf[20:80], fmt.Sprintf("%-60s", id))
	return buf
}

func vr(length uint16, version uint8) []byte {
	return []byte{byte(length >> 8), byte(length), 0xFF, version}
}

func lrsh(length uint16, attrs, typ uint8) []byte {
	return []byte{byte(length >> 8), byte(length), attrs, typ}
}

func attrsByte(isEFLR, hasPred, hasSucc, isEncrypted, hasEncPacket, hasChecksum, hasTrailingLen, hasPadding bool) uint8 {
	var b uint8
	set := func(bit uint8, v bool) {
		if v {
			b |= bit
		}
	}
	set(0x80, isEFLR)
	set(0x40, hasPred)
	set(0x20, hasSucc)
	set(0x10, isEncrypted)
	set(0x08, hasEncPacket)
	set(0x04, hasChecksum)
	set(0x02, hasTrailingLen)
	set(0x01, hasPadding)
	return b
}

func writeTestFile(t *testing.T, body []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dlis")
	var buf []byte
	buf = append(buf, sulBytes(1, "1.0", "RECORD", 8192, "TESTFILE")...)
	buf = append(buf, body...)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestOpenReadsSUL(t *testing.T) {
	path := writeTestFile(t, nil)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	sul := f.SUL()
	if sul.Sequence != 1 || sul.Version != "1.0" || sul.Layout != "record" || sul.MaxLen != 8192 || sul.ID != "TESTFILE" {
		t.Fatalf("got %+v", sul)
	}
	if f.SessionID().String() == "" {
		t.Fatalf("expected a non-empty session ID")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.dlis")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIndexAssembleRoundTrip(t *testing.T) {
	var body []byte
	body = append(body, vr(12, 1)...)
	attrs := attrsByte(true, false, false, false, false, false, false, false)
	body = append(body, lrsh(8, attrs, 0)...)
	body = append(body, []byte("DATA")...)

	path := writeTestFile(t, body)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	mark, residual, err := f.IndexNext(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mark.IsEFLR || residual != 0 {
		t.Fatalf("got mark=%+v residual=%d", mark, residual)
	}
	if !f.EOF() {
		t.Fatalf("expected EOF after indexing the only record")
	}

	got, err := f.Assemble(mark)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.Payload) != "DATA" {
		t.Fatalf("got %q", got.Payload)
	}
}

func TestCloseIsIdempotentAndBlocksOperations(t *testing.T) {
	path := writeTestFile(t, nil)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("second close returned error: %v", err)
	}

	_, _, err = f.IndexNext(0)
	if !dliserrIsClosed(err) {
		t.Fatalf("got %v, want dliserr.Closed", err)
	}
	de := err.(*dliserr.Error)
	if de.Session != f.SessionID().String() {
		t.Fatalf("got session %q, want %q", de.Session, f.SessionID().String())
	}
}

func dliserrIsClosed(err error) bool {
	de, ok := err.(*dliserr.Error)
	return ok && de.Kind == dliserr.Closed
}

func TestWithDiagSinkReceivesWarnings(t *testing.T) {
	var body []byte
	body = append(body, vr(12, 2)...) // version 2 triggers a warning
	attrs := attrsByte(true, false, false, false, false, false, false, false)
	body = append(body, lrsh(8, attrs, 0)...)
	body = append(body, []byte("DATA")...)

	path := writeTestFile(t, body)
	sink, events := diag.NewSliceSink()
	f, err := Open(path, WithDiagSink(sink))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	if _, _, err := f.IndexNext(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*events) != 1 || (*events)[0].Code != "vrl_version_mismatch" {
		t.Fatalf("got %+v", *events)
	}
}

func TestWithAllowEncrypted(t *testing.T) {
	var body []byte
	body = append(body, vr(12, 1)...)
	attrs := attrsByte(true, false, false, true, false, false, false, false)
	body = append(body, lrsh(8, attrs, 0)...)
	body = append(body, []byte("DATA")...)

	path := writeTestFile(t, body)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	mark, _, err := f.IndexNext(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Assemble(mark); err == nil {
		t.Fatalf("expected encrypted error without opt-in")
	}

	fAllow, err := Open(path, WithAllowEncrypted(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer fAllow.Close()
	markAllow, _, err := fAllow.IndexNext(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := fAllow.Assemble(markAllow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.Payload) != "DATA" {
		t.Fatalf("got %q", got.Payload)
	}
}
