package daytime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"daytimeq/pkg/netstack"
	"daytimeq/pkg/transport"
)

// ClientSession connects to a daytime server and prints every received time
// message until the peer closes. Lifecycle: resolve, connect, enable
// stream-tagged receive, receive loop, close. The connection is released on
// every path, error or not.
type ClientSession struct {
	tr    transport.Transport
	res   *transport.Resolver
	codec Codec
	out   io.Writer
	log   *zap.Logger
}

// NewClient builds a client session. out defaults to stdout and log to the
// global logger when nil.
func NewClient(tr transport.Transport, res *transport.Resolver, out io.Writer, log *zap.Logger) *ClientSession {
	if res == nil {
		res = transport.NewResolver()
	}
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = zap.L()
	}
	return &ClientSession{tr: tr, res: res, out: out, log: log}
}

// Run resolves host:port, connects to the first reachable candidate and
// receives time messages until the peer closes. Resolution failure and
// connect exhaustion are returned as-is; they are fatal for the process.
func (s *ClientSession) Run(ctx context.Context, host, port string) error {
	cands, err := s.res.Resolve(ctx, host, port, false)
	if err != nil {
		return err
	}
	conn, err := netstack.DialFirst(ctx, s.tr, host, port, cands, s.log)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Without stream events the transport reports stream id 0 for every
	// record; the session still runs, degraded.
	if err := conn.EnableStreamEvents(); err != nil {
		s.log.Warn("enabling stream events failed, receiving degraded", zap.Error(err))
	}

	peer := transport.PeerFromAddr(conn.RemoteAddr())
	for {
		st, text, _, err := s.codec.Receive(ctx, conn)
		if errors.Is(err, ErrConnClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if !st.Known() {
			s.log.Warn(fmt.Sprintf("ignoring message from unknown stream %d", uint16(st)))
			continue
		}
		fmt.Fprintf(s.out, "%s:%s\t %s (%s)\n", peer.Host, peer.Port, text, st.Label())
	}
}
