package daytime

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"daytimeq/pkg/netstack"
	"daytimeq/pkg/transport"
	"daytimeq/pkg/transport/mem"
)

// receiveAll drains a connection until the peer closes it.
func receiveAll(t *testing.T, ctx context.Context, c transport.Conn) []transport.Record {
	t.Helper()
	var recs []transport.Record
	for {
		rec, err := c.Receive(ctx)
		if errors.Is(err, io.EOF) {
			return recs
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
}

func TestServerSendsLocalThenGMT(t *testing.T) {
	tr := mem.New()
	startServer(t, tr, "8013", fixedClock{time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})

	ctx := context.Background()
	c, err := tr.Dial(ctx, memCand("8013"))
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.EnableStreamEvents())

	recs := receiveAll(t, ctx, c)
	require.Len(t, recs, 2)
	require.Equal(t, transport.StreamID(0), recs[0].Stream)
	require.Equal(t, transport.StreamID(1), recs[1].Stream)
	for _, rec := range recs {
		require.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\r\n$`, string(rec.Payload))
	}
}

func TestServerClockFailureSendsEmpty(t *testing.T) {
	tr := mem.New()
	startServer(t, tr, "8014", failingClock{})

	ctx := context.Background()
	c, err := tr.Dial(ctx, memCand("8014"))
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.EnableStreamEvents())

	recs := receiveAll(t, ctx, c)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		require.Empty(t, rec.Payload)
	}
}

func TestServeConnClosesConnectionOnce(t *testing.T) {
	fc := &fakeConn{}
	srv := NewServer(nil, fixedClock{time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}, zap.NewNop(), ServerOptions{})
	srv.serveConn(context.Background(), fc, transport.Peer{Host: "127.0.0.1", Port: "13"})

	require.Equal(t, 1, fc.closed)
	require.Len(t, fc.sent, 2)
	require.Equal(t, transport.StreamID(0), fc.sent[0].Stream)
	require.Equal(t, transport.StreamID(1), fc.sent[1].Stream)
}

func TestServeConnContinuesPastSendFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	fc := &fakeConn{sendErrs: map[transport.StreamID]error{
		0: &transport.SendError{Stream: 0, Wrote: 3, Want: 21},
	}}
	srv := NewServer(nil, fixedClock{time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}, zap.New(core), ServerOptions{})
	srv.serveConn(context.Background(), fc, transport.Peer{Host: "127.0.0.1", Port: "13"})

	// the failed local-time send is logged and the gmt send still happens
	require.Len(t, fc.sent, 2)
	require.Equal(t, transport.StreamID(1), fc.sent[1].Stream)
	require.Equal(t, 1, fc.closed)
	require.Equal(t, 1, logs.FilterMessage("send failed").Len())
}

func TestServeStopsOnContextCancel(t *testing.T) {
	tr := mem.New()
	ctx, cancel := context.WithCancel(context.Background())
	acc, err := netstack.Bind(ctx, tr, "8015", []transport.Candidate{memCand("8015")}, 4, zap.NewNop())
	require.NoError(t, err)
	defer acc.Close()
	srv := NewServer(acc, SystemClock(), zap.NewNop(), ServerOptions{Concurrent: true})

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
