package replication

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"redislite/internal/command"
	"redislite/internal/protocol"
	"redislite/internal/storage"
)

// Client runs the replica side of the handshake and applies commands
// streamed from a primary silently against the local keyspace, per this
// server's reference implementation's replica startup sequence and
// original_source/src/replication.rs's role model.
type Client struct {
	store  *storage.Store
	config command.ConfigView
	log    *logrus.Entry
	offset atomic.Uint64
}

func NewClient(store *storage.Store, config command.ConfigView, log *logrus.Entry) *Client {
	return &Client{store: store, config: config, log: log}
}

// Offset reports the cumulative byte length of every command this client
// has applied, used to answer REPLCONF ACK.
func (c *Client) Offset() uint64 { return c.offset.Load() }

// Run connects to primaryAddr, completes the handshake, and then applies
// the replication stream until ctx is cancelled or the connection drops.
// There is no reconnect loop — a dropped link leaves the replica stale
// until the process restarts, matching this server's stated scope.
func (c *Client) Run(ctx context.Context, primaryAddr string, listeningPort int) error {
	conn, err := net.DialTimeout("tcp", primaryAddr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("replication: dial primary: %w", err)
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	r := bufio.NewReader(conn)

	if err := c.handshake(w, r, listeningPort); err != nil {
		return fmt.Errorf("replication: handshake: %w", err)
	}
	if c.log != nil {
		c.log.Info("replication handshake complete, applying stream")
	}

	return c.applyLoop(ctx, conn, w, r)
}

func (c *Client) handshake(w *bufio.Writer, r *bufio.Reader, listeningPort int) error {
	steps := []protocol.RESP{
		arrayOf("PING"),
		arrayOf("REPLCONF", "listening-port", strconv.Itoa(listeningPort)),
		arrayOf("REPLCONF", "capa", "eof", "capa", "psync2"),
		arrayOf("PSYNC", "?", "-1"),
	}
	for _, step := range steps {
		if _, err := w.Write(protocol.Encode(step)); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if err := readReply(r); err != nil {
			return err
		}
	}
	// The FULLRESYNC line has already been consumed by readReply above as a
	// Simple reply; the RDB payload follows as a single File-framed value,
	// which this server discards — only the on-disk RDB seeds the keyspace.
	if err := readRDBPayload(r); err != nil {
		return err
	}
	return nil
}

func readReply(r *bufio.Reader) error {
	buf := make([]byte, 0, 512)
	tmp := make([]byte, 512)
	for {
		status, _ := protocol.Check(buf, 0, false)
		if status == protocol.StatusOK {
			return nil
		}
		n, err := r.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			return err
		}
	}
}

func readRDBPayload(r *bufio.Reader) error {
	buf := make([]byte, 0, 256)
	tmp := make([]byte, 256)
	for {
		// The RDB payload is File-framed: a bulk header with no trailing
		// CRLF, per the FULLRESYNC wire format this handshake step reads.
		status, length := protocol.Check(buf, 0, true)
		if status == protocol.StatusOK {
			_, _ = protocol.Parse(buf, 0, true)
			_ = length
			return nil
		}
		n, err := r.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			return err
		}
	}
}

func arrayOf(parts ...string) protocol.RESP {
	elems := make([]protocol.RESP, len(parts))
	for i, p := range parts {
		elems[i] = protocol.BulkStringFrom(p)
	}
	return protocol.ArrayReply(elems)
}

// applyLoop reads RESP frames from the primary one at a time, applies
// each as a Command against the local store, and tracks the cumulative
// byte offset. REPLCONF GETACK is answered with REPLCONF ACK <offset>;
// every other command is applied silently with no reply.
func (c *Client) applyLoop(ctx context.Context, conn net.Conn, w *bufio.Writer, r *bufio.Reader) error {
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)

	applyCtx := &command.ApplyContext{
		Ctx:    ctx,
		Store:  c.store,
		Config: c.config,
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		status, length := protocol.Check(buf, 0, false)
		for status == protocol.StatusIncomplete {
			n, err := conn.Read(tmp)
			if n > 0 {
				buf = append(buf, tmp[:n]...)
			}
			if err != nil {
				return err
			}
			status, length = protocol.Check(buf, 0, false)
		}
		if status == protocol.StatusInvalid {
			return fmt.Errorf("replication: malformed frame from primary")
		}

		v, _ := protocol.Parse(buf, 0, false)
		buf = append([]byte(nil), buf[length:]...)
		c.offset.Add(uint64(length))

		if err := c.applyFromPrimary(applyCtx, v, w); err != nil && c.log != nil {
			c.log.WithError(err).Warn("error applying replicated command")
		}
	}
}

func (c *Client) applyFromPrimary(ctx *command.ApplyContext, v protocol.RESP, w *bufio.Writer) error {
	if v.Type != protocol.Array || len(v.Elems) == 0 {
		return nil
	}
	name, err := elemString(v.Elems[0])
	if err != nil {
		return err
	}

	if strings.EqualFold(name, "REPLCONF") && len(v.Elems) >= 2 {
		if sub, _ := elemString(v.Elems[1]); strings.EqualFold(sub, "GETACK") {
			ack := protocol.ArrayReply([]protocol.RESP{
				protocol.BulkStringFrom("REPLCONF"),
				protocol.BulkStringFrom("ACK"),
				protocol.BulkStringFrom(strconv.FormatUint(c.offset.Load(), 10)),
			})
			if _, err := w.Write(protocol.Encode(ack)); err != nil {
				return err
			}
			return w.Flush()
		}
	}

	args, err := protocol.NewArgReader(v, 1)
	if err != nil {
		return err
	}
	cmd, err := command.Parse(name, args)
	if err != nil {
		return err
	}
	_, err = cmd.Apply(ctx)
	return err
}
