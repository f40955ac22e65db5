// Package mem is an in-process transport over net.Pipe, used by tests to
// wire a client and a server without touching the network. Records use the
// same header framing as the tcp transport.
package mem

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"

	"daytimeq/pkg/transport"
)

// Transport keeps a registry of named in-process listeners. Dial and Listen
// must share the same Transport instance to see each other.
type Transport struct {
	mu        sync.Mutex
	listeners map[string]*listener
}

func New() *Transport { return &Transport{listeners: make(map[string]*listener)} }

func (t *Transport) Kind() transport.Kind { return transport.KindMem }

func (t *Transport) Listen(ctx context.Context, cand transport.Candidate, backlog int) (transport.Listener, error) {
	name := cand.Addr()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.listeners[name]; ok {
		return nil, errors.New("mem: listener already exists for " + name)
	}
	if backlog <= 0 {
		backlog = 1
	}
	l := &listener{name: name, newCh: make(chan *conn, backlog), closeCh: make(chan struct{})}
	l.unregister = func() {
		t.mu.Lock()
		delete(t.listeners, name)
		t.mu.Unlock()
	}
	t.listeners[name] = l
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-l.closeCh:
		}
	}()
	return l, nil
}

func (t *Transport) Dial(ctx context.Context, cand transport.Candidate) (transport.Conn, error) {
	name := cand.Addr()
	t.mu.Lock()
	l := t.listeners[name]
	t.mu.Unlock()
	if l == nil {
		return nil, errors.New("mem: no such listener " + name)
	}
	p1, p2 := net.Pipe()
	srv := newConn(p1, memAddr(name), memAddr(name+"/peer"))
	cli := newConn(p2, memAddr(name+"/peer"), memAddr(name))
	select {
	case l.newCh <- srv:
	case <-l.closeCh:
		_ = srv.Close()
		_ = cli.Close()
		return nil, errors.New("mem: listener closed")
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = cli.Close()
		case <-cli.done:
		}
	}()
	return cli, nil
}

type listener struct {
	name       string
	newCh      chan *conn
	closeCh    chan struct{}
	unregister func()
}

func (l *listener) Addr() net.Addr { return memAddr(l.name) }

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
		l.unregister()
	}
	return nil
}

type memAddr string

func (a memAddr) Network() string { return "mem" }
func (a memAddr) String() string  { return string(a) }

type conn struct {
	mu     sync.Mutex
	c      net.Conn
	br     *bufio.Reader
	laddr  net.Addr
	raddr  net.Addr
	events bool

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(c net.Conn, laddr, raddr net.Addr) *conn {
	return &conn{c: c, br: bufio.NewReader(c), laddr: laddr, raddr: raddr, done: make(chan struct{})}
}

func (c *conn) LocalAddr() net.Addr  { return c.laddr }
func (c *conn) RemoteAddr() net.Addr { return c.raddr }

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
		return transport.Record{}, err
	}
	if !c.events {
		rec.Stream = 0
	}
	return rec, nil
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.c.Close()
}
