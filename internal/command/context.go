// Package command implements the 20 RESP commands this server understands
// plus a small set of supplemented string-keyspace companions (DEL, EXISTS,
// TTL). Each command type exposes Parse/Encode/Apply the way the teacher's
// processor.Command enum did, generalized into one Go type per command.
package command

import (
	"context"
	"time"

	"redislite/internal/protocol"
	"redislite/internal/storage"
)

// ConfigView exposes the subset of server configuration commands need,
// kept as an interface so this package never imports internal/server.
type ConfigView interface {
	Role() string // "master" or "slave"
	Dir() string
	DBFilename() string
}

// ReplicaSet is the primary-side fan-out and WAIT coordinator. Implemented
// by internal/replication; declared here as an interface to avoid a import
// cycle (replication decodes propagated bytes back into Command values).
type ReplicaSet interface {
	// Count returns the number of currently attached replica connections.
	Count() int
	// Wait blocks until at least n replicas have acknowledged the
	// replication offset captured at call time, or the deadline elapses,
	// returning the number that had. See spec §4.H.
	Wait(ctx context.Context, n int, timeoutMs int) int
}

// ReplicaPromoter lets PSYNC hand its connection off to the replica set
// once it has written the FULLRESYNC reply and RDB payload itself.
type ReplicaPromoter interface {
	PromoteToReplica()
}

// RawWriter lets a command (PSYNC) write RESP values directly to its own
// connection when its Apply contract returns nil (“already handled”).
type RawWriter interface {
	WriteRaw(v protocol.RESP) error
}

// ApplyContext bundles everything a command's Apply needs: the keyspace,
// server identity, replication collaborators, and the requesting
// connection's raw I/O escape hatch.
type ApplyContext struct {
	Ctx    context.Context
	Store  *storage.Store
	Config ConfigView

	Replicas ReplicaSet
	Promoter ReplicaPromoter
	Conn     RawWriter
	Clock    func() time.Time
}

func (c *ApplyContext) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}
