package transport

import (
	"encoding/binary"
	"errors"
	"io"
)

// Record framing for transports without native stream multiplexing (tcp,
// mem). Each record is prefixed by a 4-byte header carrying the logical
// stream id and the payload length, both u16 little-endian. The stream id
// lives in the record header, mirroring how SCTP tags DATA chunks; it is
// never part of the payload.
const recordHeaderSize = 4

// maxRecordBytes is the largest payload the u16 length field can describe.
const maxRecordBytes = 1<<16 - 1

var errRecordTooLarge = errors.New("record payload exceeds framing bound")

// WriteRecord frames rec onto w and reports the number of payload bytes
// written. A short write returns the partial payload count together with
// the write error. Payloads beyond what the length field can carry are
// rejected rather than silently wrapped.
func WriteRecord(w io.Writer, rec Record) (int, error) {
	if len(rec.Payload) > maxRecordBytes {
		return 0, errRecordTooLarge
	}
	buf := make([]byte, recordHeaderSize+len(rec.Payload))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(rec.Stream))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(rec.Payload)))
	copy(buf[recordHeaderSize:], rec.Payload)
	n, err := w.Write(buf)
	wrote := n - recordHeaderSize
	if wrote < 0 {
		wrote = 0
	}
	if wrote > len(rec.Payload) {
		wrote = len(rec.Payload)
	}
	return wrote, err
}

// ReadRecord reads the next record from r. Payloads longer than MaxPayload
// are truncated to the bound; the excess is consumed and discarded so the
// next call starts at a record boundary. Peer close between records is
// io.EOF; close mid-record is io.ErrUnexpectedEOF.
func ReadRecord(r io.Reader) (Record, error) {
	var hdr [recordHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, io.ErrUnexpectedEOF
		}
		return Record{}, err
	}
	id := StreamID(binary.LittleEndian.Uint16(hdr[0:2]))
	n := int(binary.LittleEndian.Uint16(hdr[2:4]))
	keep := n
	if keep > MaxPayload {
		keep = MaxPayload
	}
	payload := make([]byte, keep)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Record{}, io.ErrUnexpectedEOF
	}
	if n > keep {
		if _, err := io.CopyN(io.Discard, r, int64(n-keep)); err != nil {
			return Record{}, io.ErrUnexpectedEOF
		}
	}
	return Record{Stream: id, Payload: payload}, nil
}
