package netstack

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"

	"daytimeq/pkg/transport"
)

// DefaultBacklog bounds pending accepted connections when the
// configuration does not say otherwise.
const DefaultBacklog = 42

// Acceptor owns one bound listening endpoint and yields inbound
// connections one at a time. The acceptor never limits how often Accept is
// called; the surrounding server loop decides whether to serve forever.
type Acceptor struct {
	l   transport.Listener
	log *zap.Logger
}

// Bind walks the passive candidates in order and binds the first one that
// takes. Per-candidate bind failures are logged and skipped; if no
// candidate binds the server has no listening endpoint and Bind returns
// *transport.BindError.
func Bind(ctx context.Context, tr transport.Transport, port string, cands []transport.Candidate, backlog int, log *zap.Logger) (*Acceptor, error) {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	for _, cand := range cands {
		l, err := tr.Listen(ctx, cand, backlog)
		if err != nil {
			log.Warn("bind candidate failed",
				zap.String("kind", tr.Kind().String()),
				zap.String("addr", cand.Addr()),
				zap.Error(err))
			continue
		}
		log.Info("listening",
			zap.String("kind", tr.Kind().String()),
			zap.String("addr", l.Addr().String()))
		return &Acceptor{l: l, log: log}, nil
	}
	return nil, &transport.BindError{Port: port}
}

// Accept blocks until a peer connects and returns the connection together
// with the peer's numeric identity. A transport-level accept failure is
// logged and reported as a nil connection with a nil error; the caller
// retries by calling Accept again. A non-nil error means the acceptor is
// done for good (context cancelled or listener closed).
func (a *Acceptor) Accept(ctx context.Context) (transport.Conn, transport.Peer, error) {
	conn, err := a.l.Accept(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, transport.Peer{}, ctx.Err()
		}
		if errors.Is(err, transport.ErrListenerClosed) {
			return nil, transport.Peer{}, err
		}
		a.log.Error("accept failed", zap.Error(err))
		return nil, transport.Peer{}, nil
	}
	peer := transport.PeerFromAddr(conn.RemoteAddr())
	a.log.Debug("connection from", zap.String("host", peer.Host), zap.String("port", peer.Port))
	return conn, peer, nil
}

// Addr returns the bound listening address.
func (a *Acceptor) Addr() net.Addr { return a.l.Addr() }

// Close shuts the listening endpoint down.
func (a *Acceptor) Close() error { return a.l.Close() }
