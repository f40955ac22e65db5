package transport

import (
	"context"
	"errors"
	"net"
)

// ErrListenerClosed is returned by Listener.Accept once the listener has
// been shut down.
var ErrListenerClosed = errors.New("listener closed")

// Kind identifies the underlying transport implementation.
type Kind int

const (
	KindUnknown Kind = iota
	KindQUIC
	KindTCP
	KindMem
)

func (k Kind) String() string {
	switch k {
	case KindQUIC:
		return "quic"
	case KindTCP:
		return "tcp"
	case KindMem:
		return "mem"
	default:
		return "unknown"
	}
}

// StreamID numbers a logical substream within one connection. The stream id
// is the multiplexing key of the daytime protocol; payload content never
// encodes stream identity.
type StreamID uint16

// MaxPayload bounds one record's payload on receipt. Longer records are
// truncated by the receiving transport; records are never reassembled
// across Receive calls.
const MaxPayload = 127

// Record is one framed message delivered on one logical stream.
type Record struct {
	Stream  StreamID
	Payload []byte
}

// Peer is the numeric identity of the remote endpoint, used only for
// display and logging, never for protocol decisions.
type Peer struct {
	Host string
	Port string
}

func (p Peer) String() string { return p.Host + ":" + p.Port }

// PeerFromAddr derives a numeric peer identity from a transport address.
// Addresses that do not split into host and port keep the whole string as
// the host with an empty port.
func PeerFromAddr(addr net.Addr) Peer {
	if addr == nil {
		return Peer{}
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return Peer{Host: addr.String()}
	}
	return Peer{Host: host, Port: port}
}

// Conn is an open multi-stream connection. It is exclusively owned by the
// session that created it and must not be used after Close.
type Conn interface {
	// Send frames one record on the given logical stream. The payload must
	// be written in full; a short write surfaces as *SendError.
	Send(ctx context.Context, id StreamID, payload []byte) error

	// Receive blocks until the next record arrives on any stream. It
	// returns io.EOF once the peer has closed the connection.
	Receive(ctx context.Context) (Record, error)

	// EnableStreamEvents arms per-record stream ids on the receive path.
	// Without it the connection still delivers records but reports stream
	// id 0 for all of them.
	EnableStreamEvents() error

	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	// Close tears the connection down. The Conn is invalid afterwards.
	Close() error
}

// Listener accepts inbound connections.
type Listener interface {
	// Accept blocks until an inbound connection is available or ctx is done.
	Accept(ctx context.Context) (Conn, error)
	// Addr returns the local listening address.
	Addr() net.Addr
	// Close stops the listener and unblocks Accept.
	Close() error
}

// Transport provides dialing and listening for a specific link kind.
// Address candidates come from the resolver; each candidate is consumed by
// exactly one dial or bind attempt.
type Transport interface {
	Kind() Kind
	// Listen binds a listening endpoint on the candidate address. backlog
	// bounds the number of accepted-but-unclaimed connections.
	Listen(ctx context.Context, cand Candidate, backlog int) (Listener, error)
	// Dial establishes an outbound connection to the candidate address.
	Dial(ctx context.Context, cand Candidate) (Conn, error)
}
