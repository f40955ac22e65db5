// Package tcp carries daytime records over a single TCP byte stream. TCP has
// no native stream multiplexing, so the logical stream id travels in the
// record header framing from the transport package.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"daytimeq/pkg/transport"
)

// Transport implements transport.Transport over plain TCP.
type Transport struct{}

func New() *Transport { return &Transport{} }

func (t *Transport) Kind() transport.Kind { return transport.KindTCP }

func network(c transport.Candidate) string {
	if c.Family == transport.FamilyIPv6 {
		if c.Wildcard() {
			return "tcp"
		}
		return "tcp6"
	}
	return "tcp4"
}

func (t *Transport) Listen(ctx context.Context, cand transport.Candidate, backlog int) (transport.Listener, error) {
	l, err := net.Listen(network(cand), cand.Addr())
	if err != nil {
		return nil, err
	}
	if backlog <= 0 {
		backlog = 1
	}
	tl := &listener{l: l, newCh: make(chan *conn, backlog), closeCh: make(chan struct{})}
	go tl.acceptLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = tl.Close()
		case <-tl.closeCh:
		}
	}()
	return tl, nil
}

func (t *Transport) Dial(ctx context.Context, cand transport.Candidate) (transport.Conn, error) {
	d := &net.Dialer{}
	c, err := d.DialContext(ctx, network(cand), cand.Addr())
	if err != nil {
		return nil, err
	}
	return newConn(c), nil
}

type listener struct {
	l       net.Listener
	newCh   chan *conn
	closeCh chan struct{}
}

func (l *listener) Addr() net.Addr { return l.l.Addr() }

func (l *listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closeCh:
		return nil, transport.ErrListenerClosed
	case c := <-l.newCh:
		return c, nil
	}
}

func (l *listener) Close() error {
	select {
	case <-l.closeCh:
	default:
		close(l.closeCh)
	}
	return l.l.Close()
}

func (l *listener) acceptLoop() {
	for {
		c, err := l.l.Accept()
		if err != nil {
			return
		}
		nc := newConn(c)
		select {
		case l.newCh <- nc:
		default:
			_ = nc.Close()
		}
	}
}

type conn struct {
	mu     sync.Mutex
	c      net.Conn
	br     *bufio.Reader
	events bool
}

func newConn(c net.Conn) *conn {
	return &conn{c: c, br: bufio.NewReader(c)}
}

func (c *conn) LocalAddr() net.Addr  { return c.c.LocalAddr() }
func (c *conn) RemoteAddr() net.Addr { return c.c.RemoteAddr() }

func (c *conn) EnableStreamEvents() error {
	c.events = true
	return nil
}

func (c *conn) Send(ctx context.Context, id transport.StreamID, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	wrote, err := transport.WriteRecord(c.c, transport.Record{Stream: id, Payload: payload})
	if err != nil {
		return err
	}
	if wrote != len(payload) {
		return &transport.SendError{Stream: id, Wrote: wrote, Want: len(payload)}
	}
	return nil
}

func (c *conn) Receive(ctx context.Context) (transport.Record, error) {
	if err := ctx.Err(); err != nil {
		return transport.Record{}, err
	}
	rec, err := transport.ReadRecord(c.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return transport.Record{}, io.EOF
		}
		return transport.Record{}, err
	}
	if !c.events {
		rec.Stream = 0
	}
	return rec, nil
}

func (c *conn) Close() error { return c.c.Close() }
