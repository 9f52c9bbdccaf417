package diag

import "testing"

func TestNopSinkDiscards(t *testing.T) {
	NopSink.Warn("code", "msg", Field{Key: "k", Value: 1})
}

func TestSliceSinkRecords(t *testing.T) {
	sink, events := NewSliceSink()
	sink.Warn("vrl_version_mismatch", "bad version", Field{Key: "version", Value: 2})

	if len(*events) != 1 {
		t.Fatalf("got %d events, want 1", len(*events))
	}
	got := (*events)[0]
	if got.Code != "vrl_version_mismatch" || got.Msg != "bad version" {
		t.Fatalf("got %+v", got)
	}
	if len(got.Fields) != 1 || got.Fields[0].Key != "version" || got.Fields[0].Value != 2 {
		t.Fatalf("got fields %+v", got.Fields)
	}
}
