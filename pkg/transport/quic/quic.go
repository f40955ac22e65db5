// Package quic carries daytime records over QUIC. Records travel on one
// bidirectional stream per connection using the record-header framing from
// the transport package, the sending side opening the stream lazily on the
// first Send. quic-go offers no graceful connection close that flushes
// in-flight stream data, so teardown leans on stream FINs instead: the
// sender closes its stream (reliably delivered), then waits for the peer to
// close the connection before sending its own CONNECTION_CLOSE.
package quic

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"sync"
	"time"

	quicgo "github.com/quic-go/quic-go"

	"daytimeq/pkg/transport"
)

const alpn = "daytimeq"

// peerCloseWait bounds how long a closing sender waits for the peer's
// CONNECTION_CLOSE after finishing its stream.
const peerCloseWait = 10 * time.Second

// Transport implements transport.Transport over QUIC.
type Transport struct {
	tlsConf  *tls.Config
	quicConf *quicgo.Config
}

// New builds a QUIC transport with an ephemeral self-signed certificate for
// the listening side. Dials skip verification; the daytime protocol carries
// no identity of its own.
func New() (*Transport, error) {
	cert, err := selfSignedCert()
	if err != nil {
		return nil, fmt.Errorf("generate listener certificate: %w", err)
	}
	return &Transport{
		tlsConf: &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{alpn},
			MinVersion:   tls.VersionTLS13,
		},
		quicConf: &quicgo.Config{},
	}, nil
}

func (t *Transport) Kind() transport.Kind { return transport.KindQUIC }

func network(c transport.Candidate) string {
	if c.Family == transport.FamilyIPv6 {
		if c.Wildcard() {
			return "udp"
		}
		return "udp6"
	}
	return "udp4"
}

func (t *Transport) Listen(ctx context.Context, cand transport.Candidate, backlog int) (transport.Listener, error) {
	ua, err := net.ResolveUDPAddr(network(cand), cand.Addr())
	if err != nil {
		return nil, err
	}
	pc, err := net.ListenUDP(network(cand), ua)
	if err != nil {
		return nil, err
	}
	qt := &quicgo.Transport{Conn: pc}
	ql, err := qt.Listen(t.tlsConf, t.quicConf)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	if backlog <= 0 {
		backlog = 1
	}
	l := &listener{ql: ql, qt: qt, pc: pc, newCh: make(chan *conn, backlog), closeCh: make(chan struct{})}
	go l.acceptLoop(ctx)
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
	tlsClient := &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{alpn},
		MinVersion:         tls.VersionTLS13,
	}
	qc, err := quicgo.DialAddr(ctx, cand.Addr(), tlsClient, t.quicConf)
	if err != nil {
		return nil, err
	}
	return &conn{qc: qc}, nil
}

type listener struct {
	ql      *quicgo.Listener
	qt      *quicgo.Transport
	pc      net.PacketConn
	newCh   chan *conn
	closeCh chan struct{}
}

func (l *listener) Addr() net.Addr { return l.ql.Addr() }

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
	err := l.ql.Close()
	_ = l.qt.Close()
	_ = l.pc.Close()
	return err
}

func (l *listener) acceptLoop(ctx context.Context) {
	for {
		qc, err := l.ql.Accept(ctx)
		if err != nil {
			return
		}
		c := &conn{qc: qc}
		select {
		case l.newCh <- c:
		default:
			_ = c.Close()
		}
	}
}

type conn struct {
	qc     quicgo.Connection
	events bool

	sendMu sync.Mutex
	ws     quicgo.Stream // opened on first Send

	recvMu sync.Mutex
	rs     quicgo.Stream // accepted on first Receive
	br     *bufio.Reader
}

func (c *conn) LocalAddr() net.Addr  { return c.qc.LocalAddr() }
func (c *conn) RemoteAddr() net.Addr { return c.qc.RemoteAddr() }

func (c *conn) EnableStreamEvents() error {
	c.events = true
	return nil
}

func (c *conn) Send(ctx context.Context, id transport.StreamID, payload []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.ws == nil {
		s, err := c.qc.OpenStreamSync(ctx)
		if err != nil {
			return err
		}
		c.ws = s
	}
	wrote, err := transport.WriteRecord(c.ws, transport.Record{Stream: id, Payload: payload})
	if err != nil {
		return err
	}
	if wrote != len(payload) {
		return &transport.SendError{Stream: id, Wrote: wrote, Want: len(payload)}
	}
	return nil
}

func (c *conn) Receive(ctx context.Context) (transport.Record, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()
	if c.rs == nil {
		s, err := c.qc.AcceptStream(ctx)
		if err != nil {
			return transport.Record{}, mapClosed(err)
		}
		c.rs = s
		c.br = bufio.NewReader(s)
	}
	rec, err := transport.ReadRecord(c.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return transport.Record{}, io.EOF
		}
		return transport.Record{}, mapClosed(err)
	}
	if !c.events {
		rec.Stream = 0
	}
	return rec, nil
}

// Close tears the connection down. A side that has sent data closes its
// stream first (the FIN is retransmitted until acknowledged) and then waits
// for the peer to close the connection, so records already framed are never
// lost to an early CONNECTION_CLOSE.
func (c *conn) Close() error {
	c.sendMu.Lock()
	ws := c.ws
	c.sendMu.Unlock()
	if ws != nil {
		if err := ws.Close(); err == nil {
			t := time.NewTimer(peerCloseWait)
			select {
			case <-c.qc.Context().Done():
			case <-t.C:
			}
			t.Stop()
		}
	}
	return c.qc.CloseWithError(0, "")
}

// mapClosed normalizes a graceful peer close (application error code 0)
// onto io.EOF.
func mapClosed(err error) error {
	var appErr *quicgo.ApplicationError
	if errors.As(err, &appErr) && appErr.ErrorCode == 0 {
		return io.EOF
	}
	return err
}

// selfSignedCert builds a short-lived ECDSA certificate for the listener.
func selfSignedCert() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}
	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		DNSNames:              []string{"localhost"},
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, nil
}
