package transport

import "testing"

func TestErrorMessages(t *testing.T) {
	ce := &ConnectError{Host: "time.example.org", Port: "13"}
	if got, want := ce.Error(), "socket or connect: failed for time.example.org port 13"; got != want {
		t.Fatalf("ConnectError: %q", got)
	}
	be := &BindError{Port: "13"}
	if got, want := be.Error(), "bind failed for port 13"; got != want {
		t.Fatalf("BindError: %q", got)
	}
	se := &SendError{Stream: 1, Wrote: 10, Want: 21}
	if got, want := se.Error(), "short send on stream 1: wrote 10 of 21 bytes"; got != want {
		t.Fatalf("SendError: %q", got)
	}
}
