package server

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"redislite/internal/protocol"
)

// ErrClosedMidFrame is returned by ReadNext when the peer closes the
// connection after sending a partial frame — a fatal condition, distinct
// from a clean close between frames (which ReadNext reports as a nil value
// with a nil error).
var ErrClosedMidFrame = errors.New("server: connection closed mid-frame")

const initialBufCap = 4096

// Conn wraps a net.Conn with a growable read buffer and a buffered writer.
// It keeps no replication offset; per-replica offsets are tracked by
// internal/replication once PSYNC promotes the connection. ID is a
// per-connection correlation id, logged from accept through to whatever
// replica-set entry the connection may later become.
type Conn struct {
	net.Conn
	ID     string
	buf    []byte
	w      *bufio.Writer
	closed bool
}

// ConnID reports this connection's correlation id, letting a promoted
// replica connection keep the same id it was accepted under.
func (c *Conn) ConnID() string { return c.ID }

func NewConn(nc net.Conn) *Conn {
	return &Conn{
		Conn: nc,
		ID:   uuid.NewString(),
		buf:  make([]byte, 0, initialBufCap),
		w:    bufio.NewWriter(nc),
	}
}

// ReadNext pulls one RESP frame off the wire, growing the internal buffer
// as needed. It returns (nil, 0, nil) on a clean close with no partial
// frame buffered, mirroring read_next's Option<...> return in the spec
// this implements.
func (c *Conn) ReadNext() (*protocol.RESP, int, error) {
	tmp := make([]byte, initialBufCap)
	for {
		status, length := protocol.Check(c.buf, 0, false)
		switch status {
		case protocol.StatusOK:
			v, _ := protocol.Parse(c.buf, 0, false)
			c.buf = append([]byte(nil), c.buf[length:]...)
			return &v, length, nil
		case protocol.StatusInvalid:
			return nil, 0, errors.New("server: malformed RESP frame")
		}

		n, err := c.Conn.Read(tmp)
		if n > 0 {
			c.buf = append(c.buf, tmp[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(c.buf) == 0 {
					return nil, 0, nil
				}
				return nil, 0, ErrClosedMidFrame
			}
			return nil, 0, err
		}
	}
}

// Write encodes and flushes v immediately — no batching, per this
// server's one-flush-per-reply wire contract.
func (c *Conn) Write(v protocol.RESP) error {
	if err := c.WriteRaw(v); err != nil {
		return err
	}
	return c.w.Flush()
}

// WriteRaw encodes and flushes v, same as Write. It exists as a separate
// method so PSYNC — the one command that writes directly to the
// connection instead of returning a reply for the handler to send — can
// depend on the narrower command.RawWriter interface instead of the full
// Conn type.
func (c *Conn) WriteRaw(v protocol.RESP) error {
	_, err := c.w.Write(protocol.Encode(v))
	if err != nil {
		return err
	}
	return c.w.Flush()
}
