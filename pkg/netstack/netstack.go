// Package netstack connects resolved address candidates to concrete
// transports: first-success candidate iteration for dialing and binding,
// plus a transport factory keyed by the configured kind.
package netstack

import (
	"fmt"

	"daytimeq/pkg/transport"
	"daytimeq/pkg/transport/mem"
	"daytimeq/pkg/transport/quic"
	"daytimeq/pkg/transport/tcp"
)

// sharedMem backs every "mem" transport in the process so that a dialer
// and a listener constructed independently still find each other.
var sharedMem = mem.New()

// NewByKind builds the transport named by kind: quic (default), tcp or mem.
func NewByKind(kind string) (transport.Transport, error) {
	switch kind {
	case "", "quic":
		return quic.New()
	case "tcp":
		return tcp.New(), nil
	case "mem":
		return sharedMem, nil
	default:
		return nil, fmt.Errorf("unknown transport kind %q", kind)
	}
}
