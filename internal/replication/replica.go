// Package replication implements the primary side of the replication
// protocol described in this server's command set: fanning out writes to
// attached replica connections and collecting WAIT acknowledgements.
//
// Grounded on the teacher's internal/replication/replication.go for
// the replica-bookkeeping shape (replica struct, add/remove under a mutex,
// per-replica offset) and on original_source/src/command/wait.rs for WAIT's
// exact two-task timer/ack-collector protocol.
package replication

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"redislite/internal/protocol"
)

// getackWireLen is the fixed byte length of "REPLCONF GETACK *" on the
// wire, used to bump a replica's tracked offset the moment WAIT sends it —
// the ACK reply, once it arrives, is what actually proves the replica has
// caught up, but the offset bump itself is unconditional per this
// project's reference implementation.
const getackWireLen = 37

// Replica is one attached replica connection, from the primary's view. id
// is a uuid rather than the teacher's connection-address string, so two
// replicas reconnecting from the same NAT'd address never collide.
type Replica struct {
	id     string
	conn   net.Conn
	w      *bufio.Writer
	r      *bufio.Reader
	offset uint64
	mu     sync.Mutex
}

func (r *Replica) writeRaw(b []byte, timeout time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn.SetWriteDeadline(time.Now().Add(timeout))
	defer r.conn.SetWriteDeadline(time.Time{})
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	return r.w.Flush()
}

// readAck reads one RESP frame with a short deadline and reports the
// acknowledged offset if it parses as REPLCONF ACK <n>.
func (r *Replica) readAck(timeout time.Duration) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn.SetReadDeadline(time.Now().Add(timeout))
	defer r.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 0, 256)
	tmp := make([]byte, 256)
	for {
		n, err := r.r.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			if status, length := protocol.Check(buf, 0, false); status == protocol.StatusOK {
				v, _ := protocol.Parse(buf, 0, false)
				_ = length
				return parseReplconfAck(v)
			}
		}
		if err != nil {
			return 0, false
		}
	}
}

func parseReplconfAck(v protocol.RESP) (uint64, bool) {
	if v.Type != protocol.Array || len(v.Elems) != 3 {
		return 0, false
	}
	name, err := elemString(v.Elems[0])
	if err != nil || !equalFold(name, "REPLCONF") {
		return 0, false
	}
	sub, err := elemString(v.Elems[1])
	if err != nil || !equalFold(sub, "ACK") {
		return 0, false
	}
	offStr, err := elemString(v.Elems[2])
	if err != nil {
		return 0, false
	}
	n, ok := parseUintLoose(offStr)
	return n, ok
}

func elemString(v protocol.RESP) (string, error) {
	switch v.Type {
	case protocol.Bulk:
		return string(v.Bytes), nil
	case protocol.Simple:
		return v.Str, nil
	default:
		return "", protocol.ErrTypeMismatch
	}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func parseUintLoose(s string) (uint64, bool) {
	var n uint64
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + uint64(s[i]-'0')
	}
	return n, true
}

// OffsetSource reports the primary's current write offset, so Wait knows
// what a replica must catch up to. *storage.Store implements this via its
// Offset method.
type OffsetSource interface {
	Offset() uint64
}

// Set tracks every attached replica and implements command.ReplicaSet.
type Set struct {
	mu       sync.RWMutex
	replicas map[string]*Replica
	offset   OffsetSource
	log      *logrus.Entry
}

func NewSet(offset OffsetSource, log *logrus.Entry) *Set {
	return &Set{replicas: make(map[string]*Replica), offset: offset, log: log}
}

// identified is satisfied by server.Conn, letting Add reuse the same
// correlation id a connection was accepted under instead of minting an
// unrelated second uuid for the same socket.
type identified interface {
	ConnID() string
}

// Add registers conn as a newly promoted replica connection.
func (s *Set) Add(conn net.Conn) *Replica {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	if c, ok := conn.(identified); ok {
		id = c.ConnID()
	}
	r := &Replica{
		id:   id,
		conn: conn,
		w:    bufio.NewWriter(conn),
		r:    bufio.NewReader(conn),
	}
	s.replicas[r.id] = r
	if s.log != nil {
		s.log.WithField("replica", r.id).Info("replica attached")
	}
	return r
}

func (s *Set) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.replicas[id]; ok {
		r.conn.Close()
		delete(s.replicas, id)
	}
}

// Count reports the number of currently attached replicas.
func (s *Set) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.replicas)
}

func (s *Set) snapshot() []*Replica {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Replica, 0, len(s.replicas))
	for _, r := range s.replicas {
		out = append(out, r)
	}
	return out
}

// Propagate fans a write's raw encoded bytes out to every attached
// replica, evicting any that fail to accept it, then bumps the primary
// offset and every surviving replica's tracked offset by len(raw).
func (s *Set) Propagate(raw []byte) {
	for _, r := range s.snapshot() {
		if err := r.writeRaw(raw, time.Second); err != nil {
			if s.log != nil {
				s.log.WithField("replica", r.id).WithError(err).Warn("dropping unresponsive replica")
			}
			s.remove(r.id)
			continue
		}
		r.mu.Lock()
		r.offset += uint64(len(raw))
		r.mu.Unlock()
	}
}

// Wait blocks until n replicas have acknowledged the primary's write
// offset at the time WAIT was invoked, or timeoutMs elapses, whichever
// comes first, and reports how many had.
func (s *Set) Wait(ctx context.Context, n int, timeoutMs int) int {
	replicas := s.snapshot()
	target := n
	if target > len(replicas) {
		target = len(replicas)
	}

	masterOffset := s.offset.Offset()
	if masterOffset == 0 {
		return len(replicas)
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	synced := 0
	g, gctx := errgroup.WithContext(waitCtx)
	g.Go(func() error {
		synced = collectAcks(gctx, replicas, masterOffset, target)
		cancel()
		return nil
	})
	g.Go(func() error {
		<-waitCtx.Done()
		return nil
	})
	g.Wait()
	return synced
}

func collectAcks(ctx context.Context, replicas []*Replica, masterOffset uint64, target int) int {
	getack := protocol.Encode(protocol.ArrayReply([]protocol.RESP{
		protocol.BulkStringFrom("REPLCONF"),
		protocol.BulkStringFrom("GETACK"),
		protocol.BulkStringFrom("*"),
	}))

	for _, r := range replicas {
		if err := r.writeRaw(getack, 5*time.Millisecond); err != nil {
			continue
		}
		r.mu.Lock()
		r.offset += getackWireLen
		r.mu.Unlock()
	}

	acked := make(map[string]bool, len(replicas))
	for {
		for _, r := range replicas {
			if acked[r.id] {
				continue
			}
			n, ok := r.readAck(2 * time.Millisecond)
			if ok && n >= masterOffset {
				acked[r.id] = true
			}
		}
		if len(acked) >= target {
			return len(acked)
		}
		select {
		case <-ctx.Done():
			return len(acked)
		default:
		}
	}
}
