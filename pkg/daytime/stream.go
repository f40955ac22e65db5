// Package daytime implements the time-of-day exchange protocol: the two
// well-known streams, the message codec and the client and server sessions
// that drive them over a multi-stream transport.
package daytime

import (
	"fmt"

	"daytimeq/pkg/transport"
)

// Stream is the closed set of protocol streams. The stream id is the only
// tag a message carries; anything outside the two well-known ids is an
// unknown stream, logged and discarded on receipt.
type Stream transport.StreamID

const (
	// StreamLocal carries the server's local time.
	StreamLocal Stream = 0
	// StreamGMT carries the server's time in UTC.
	StreamGMT Stream = 1
)

// Known reports whether s is one of the reserved protocol streams.
func (s Stream) Known() bool { return s == StreamLocal || s == StreamGMT }

// Label is the display suffix the client prints after a received time.
func (s Stream) Label() string {
	switch s {
	case StreamLocal:
		return "local time"
	case StreamGMT:
		return "gmt time"
	default:
		return ""
	}
}

func (s Stream) String() string {
	switch s {
	case StreamLocal:
		return "local"
	case StreamGMT:
		return "gmt"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(s))
	}
}

// ID is the transport-level stream id.
func (s Stream) ID() transport.StreamID { return transport.StreamID(s) }
