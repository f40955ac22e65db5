package daytime

import (
	"context"
	"errors"
	"io"
	"strings"

	"daytimeq/pkg/transport"
)

// ErrConnClosed signals that the peer ended the connection; the receive
// loop treats it as a normal termination, not a failure.
var ErrConnClosed = errors.New("connection closed by peer")

// Codec frames daytime messages on numbered streams of one connection.
type Codec struct{}

// Send transmits text on the given stream. A partial write surfaces as
// *transport.SendError; the caller logs it and proceeds, per the server's
// send-and-continue policy.
func (Codec) Send(ctx context.Context, conn transport.Conn, s Stream, text string) error {
	return conn.Send(ctx, s.ID(), []byte(text))
}

// Receive blocks until one framed record arrives on any stream and returns
// its stream, the text with a single trailing line-end marker stripped, and
// the raw byte count as received. Peer close maps to ErrConnClosed; any
// other failure wraps into *transport.ReceiveError. Records longer than the
// transport's receive bound arrive already truncated; nothing is reassembled
// across calls.
func (Codec) Receive(ctx context.Context, conn transport.Conn) (Stream, string, int, error) {
	rec, err := conn.Receive(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, "", 0, ErrConnClosed
		}
		return 0, "", 0, &transport.ReceiveError{Err: err}
	}
	n := len(rec.Payload)
	text := string(rec.Payload)
	if i := strings.Index(text, lineEnd); i >= 0 {
		text = text[:i]
	} else {
		text = strings.TrimSuffix(text, "\n")
	}
	return Stream(rec.Stream), text, n, nil
}
