package transport

import "fmt"

// ResolutionError reports a name that could not be resolved at all. It is
// fatal for the process that needed the candidates.
type ResolutionError struct {
	Host string
	Port string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("resolve port %s: %v", e.Port, e.Err)
	}
	return fmt.Sprintf("resolve %s port %s: %v", e.Host, e.Port, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ConnectError reports that every dial candidate for host:port was
// attempted without success. Fatal for the client process.
type ConnectError struct {
	Host string
	Port string
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("socket or connect: failed for %s port %s", e.Host, e.Port)
}

// BindError reports that no passive candidate could be bound. Fatal for the
// server process: no listening endpoint exists.
type BindError struct {
	Port string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind failed for port %s", e.Port)
}

// SendError reports a partial record write. Non-fatal: the owning session
// logs it and proceeds.
type SendError struct {
	Stream StreamID
	Wrote  int
	Want   int
}

func (e *SendError) Error() string {
	return fmt.Sprintf("short send on stream %d: wrote %d of %d bytes", e.Stream, e.Wrote, e.Want)
}

// ReceiveError wraps an I/O failure on the receive path that is not a
// normal peer close.
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string { return fmt.Sprintf("receive: %v", e.Err) }

func (e *ReceiveError) Unwrap() error { return e.Err }
