package command

import (
	"fmt"

	"redislite/internal/protocol"
	"redislite/internal/rdb"
)

// Psync starts a full resync: the connection replies +FULLRESYNC, ships the
// canned empty RDB file, then hands itself off to the replica set. It is
// the one command whose Apply writes its own reply and returns (nil, nil)
// — the uniform reply path in the handler does not apply here.
type Psync struct{}

func parsePsync(args *protocol.ArgReader) (Command, error) {
	// The two arguments ("?" and "-1") are fixed by the protocol and carry
	// no information this server's full-resync-only implementation needs.
	if args.Remaining() > 0 {
		if _, err := args.NextString(); err != nil {
			return nil, err
		}
	}
	if args.Remaining() > 0 {
		if _, err := args.NextString(); err != nil {
			return nil, err
		}
	}
	return &Psync{}, args.Finish()
}

func (p *Psync) Encode() protocol.RESP { return bulkArray("PSYNC", "?", "-1") }

func (p *Psync) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	replID, _ := ctx.Store.ReplInfo()

	if err := ctx.Conn.WriteRaw(protocol.SimpleString(fmt.Sprintf("FULLRESYNC %s 0", replID))); err != nil {
		return nil, err
	}
	if err := ctx.Conn.WriteRaw(protocol.FileReply(rdb.EmptyDBFile())); err != nil {
		return nil, err
	}

	ctx.Promoter.PromoteToReplica()
	return nil, nil
}
