package daytime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"daytimeq/pkg/netstack"
	"daytimeq/pkg/transport"
)

// ServerOptions tune the serving loop.
type ServerOptions struct {
	// Concurrent serves each accepted connection in its own goroutine
	// instead of strictly one peer at a time. Connections stay
	// independently owned either way; there is no state shared between
	// them.
	Concurrent bool
}

// ServerSession accepts connections and answers each with exactly two time
// messages: local time on stream 0, then UTC on stream 1, then close. The
// listening endpoint itself stays open for the lifetime of the session.
type ServerSession struct {
	acc   *netstack.Acceptor
	codec Codec
	clock Clock
	log   *zap.Logger
	opts  ServerOptions
}

// NewServer builds a server session around a bound acceptor. clock defaults
// to the system clock and log to the global logger when nil.
func NewServer(acc *netstack.Acceptor, clock Clock, log *zap.Logger, opts ServerOptions) *ServerSession {
	if clock == nil {
		clock = SystemClock()
	}
	if log == nil {
		log = zap.L()
	}
	return &ServerSession{acc: acc, clock: clock, log: log, opts: opts}
}

// Serve accepts and answers peers until ctx is cancelled or the listener is
// closed.
func (s *ServerSession) Serve(ctx context.Context) error {
	for {
		if err := s.ServeOne(ctx); err != nil {
			return err
		}
	}
}

// ServeOne runs a single accept-send-close iteration. A failed accept
// produces nothing; the caller just tries again. The returned error is
// non-nil only when the acceptor is finished for good.
func (s *ServerSession) ServeOne(ctx context.Context) error {
	conn, peer, err := s.acc.Accept(ctx)
	if err != nil {
		return err
	}
	if conn == nil {
		return nil
	}
	if s.opts.Concurrent {
		go s.serveConn(ctx, conn, peer)
		return nil
	}
	s.serveConn(ctx, conn, peer)
	return nil
}

func (s *ServerSession) serveConn(ctx context.Context, conn transport.Conn, peer transport.Peer) {
	defer conn.Close()
	s.sendTime(ctx, conn, StreamLocal, time.Local)
	s.sendTime(ctx, conn, StreamGMT, time.UTC)
	s.log.Debug("served peer", zap.String("host", peer.Host), zap.String("port", peer.Port))
}

// sendTime formats the current time in loc and sends it on st. A clock
// failure degrades to an empty message; a send failure is logged. Neither
// stops the session.
func (s *ServerSession) sendTime(ctx context.Context, conn transport.Conn, st Stream, loc *time.Location) {
	var text string
	now, err := s.clock.Now()
	if err != nil {
		s.log.Error("time conversion failed", zap.Error(err))
	} else {
		text = formatDaytime(now, loc)
	}
	if err := s.codec.Send(ctx, conn, st, text); err != nil {
		s.log.Error("send failed", zap.String("stream", st.String()), zap.Error(err))
	}
}
