package netstack

import (
	"context"

	"go.uber.org/zap"

	"daytimeq/pkg/transport"
)

// DialFirst attempts the candidates in order and returns the first
// connection that establishes. A per-candidate failure is logged and the
// iteration moves on; only exhaustion of the whole sequence is an error,
// reported as *transport.ConnectError for host and port.
func DialFirst(ctx context.Context, tr transport.Transport, host, port string, cands []transport.Candidate, log *zap.Logger) (transport.Conn, error) {
	for _, cand := range cands {
		conn, err := tr.Dial(ctx, cand)
		if err != nil {
			log.Debug("dial candidate failed",
				zap.String("kind", tr.Kind().String()),
				zap.String("addr", cand.Addr()),
				zap.Error(err))
			continue
		}
		return conn, nil
	}
	return nil, &transport.ConnectError{Host: host, Port: port}
}
