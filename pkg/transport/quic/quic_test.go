package quic

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"daytimeq/pkg/transport"
)

func TestRoundTripAndTeardown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tr, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l, err := tr.Listen(ctx, transport.Candidate{
		Family: transport.FamilyIPv4, Host: "127.0.0.1", Port: "0",
	}, 4)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()
	port := strconv.Itoa(l.Addr().(*net.UDPAddr).Port)
	cand := transport.Candidate{Family: transport.FamilyIPv4, Host: "127.0.0.1", Port: port}

	srvDone := make(chan error, 1)
	go func() {
		c, err := l.Accept(ctx)
		if err != nil {
			srvDone <- err
			return
		}
		if err := c.Send(ctx, 0, []byte("2025-06-01 12:00:00\r\n")); err != nil {
			srvDone <- err
			return
		}
		if err := c.Send(ctx, 1, []byte("2025-06-01 10:00:00\r\n")); err != nil {
			srvDone <- err
			return
		}
		// blocks until the client has seen the FIN and closed
		srvDone <- c.Close()
	}()

	c, err := tr.Dial(ctx, cand)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := c.EnableStreamEvents(); err != nil {
		t.Fatalf("EnableStreamEvents: %v", err)
	}

	rec, err := c.Receive(ctx)
	if err != nil || rec.Stream != 0 || string(rec.Payload) != "2025-06-01 12:00:00\r\n" {
		t.Fatalf("first record: %v %d %q", err, rec.Stream, rec.Payload)
	}
	rec, err = c.Receive(ctx)
	if err != nil || rec.Stream != 1 {
		t.Fatalf("second record: %v %d", err, rec.Stream)
	}
	if _, err := c.Receive(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("after peer finished: %v, want io.EOF", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("client Close: %v", err)
	}
	if err := <-srvDone; err != nil {
		t.Fatalf("server side: %v", err)
	}
}

func TestDegradedStreamIDs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tr, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l, err := tr.Listen(ctx, transport.Candidate{
		Family: transport.FamilyIPv4, Host: "127.0.0.1", Port: "0",
	}, 4)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()
	port := strconv.Itoa(l.Addr().(*net.UDPAddr).Port)

	go func() {
		c, err := l.Accept(ctx)
		if err != nil {
			return
		}
		_ = c.Send(ctx, 1, []byte("x"))
		_ = c.Close()
	}()

	c, err := tr.Dial(ctx, transport.Candidate{Family: transport.FamilyIPv4, Host: "127.0.0.1", Port: port})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	// no EnableStreamEvents: the id defaults to 0
	rec, err := c.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if rec.Stream != 0 {
		t.Fatalf("degraded stream id = %d, want 0", rec.Stream)
	}
}
