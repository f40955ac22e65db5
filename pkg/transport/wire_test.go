package transport

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := Record{Stream: 7, Payload: []byte("2025-06-01 12:00:00\r\n")}
	n, err := WriteRecord(&buf, want)
	if err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if n != len(want.Payload) {
		t.Fatalf("WriteRecord wrote %d, want %d", n, len(want.Payload))
	}
	got, err := ReadRecord(&buf)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if got.Stream != want.Stream || !bytes.Equal(got.Payload, want.Payload) {
		t.Fatalf("ReadRecord mismatch: %+v", got)
	}
}

func TestRecordBoundary(t *testing.T) {
	// Exactly MaxPayload bytes must survive untouched.
	var buf bytes.Buffer
	exact := []byte(strings.Repeat("a", MaxPayload))
	if _, err := WriteRecord(&buf, Record{Stream: 0, Payload: exact}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	got, err := ReadRecord(&buf)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if len(got.Payload) != MaxPayload {
		t.Fatalf("payload length %d, want %d", len(got.Payload), MaxPayload)
	}

	// One past the bound is truncated, and the following record is still
	// read from a clean boundary.
	buf.Reset()
	over := []byte(strings.Repeat("b", MaxPayload+1))
	if _, err := WriteRecord(&buf, Record{Stream: 1, Payload: over}); err != nil {
		t.Fatalf("WriteRecord oversized: %v", err)
	}
	if _, err := WriteRecord(&buf, Record{Stream: 0, Payload: []byte("next")}); err != nil {
		t.Fatalf("WriteRecord next: %v", err)
	}
	got, err = ReadRecord(&buf)
	if err != nil {
		t.Fatalf("ReadRecord truncated: %v", err)
	}
	if len(got.Payload) != MaxPayload || got.Stream != 1 {
		t.Fatalf("truncated record: stream=%d len=%d", got.Stream, len(got.Payload))
	}
	got, err = ReadRecord(&buf)
	if err != nil || string(got.Payload) != "next" {
		t.Fatalf("record after truncation: %v %q", err, got.Payload)
	}
}

func TestWriteRecordRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteRecord(&buf, Record{Stream: 0, Payload: make([]byte, 1<<16)})
	if err == nil {
		t.Fatalf("expected rejection of payload beyond the length field")
	}
	if n != 0 || buf.Len() != 0 {
		t.Fatalf("oversize write produced output: n=%d buffered=%d", n, buf.Len())
	}
}

func TestRecordEOF(t *testing.T) {
	// Clean close between records is io.EOF.
	if _, err := ReadRecord(bytes.NewReader(nil)); !errors.Is(err, io.EOF) {
		t.Fatalf("empty reader: got %v, want io.EOF", err)
	}
	// Close mid-record is not a clean close.
	var buf bytes.Buffer
	_, _ = WriteRecord(&buf, Record{Stream: 0, Payload: []byte("cut off")})
	trunc := buf.Bytes()[:buf.Len()-3]
	if _, err := ReadRecord(bytes.NewReader(trunc)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("mid-record close: got %v, want io.ErrUnexpectedEOF", err)
	}
}
