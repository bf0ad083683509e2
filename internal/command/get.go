package command

import (
	"redislite/internal/protocol"
	"redislite/internal/storage"
)

// Get returns the bulk string at key, or Null if absent, expired, or
// stream-valued (a stream has no scalar representation to return).
type Get struct {
	Key string
}

func parseGet(args *protocol.ArgReader) (Command, error) {
	key, err := args.NextString()
	if err != nil {
		return nil, err
	}
	return &Get{Key: key}, args.Finish()
}

func (g *Get) Encode() protocol.RESP { return bulkArray("GET", g.Key) }

func (g *Get) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	v, ok := ctx.Store.Get(g.Key)
	var resp protocol.RESP
	if !ok || v.Kind != storage.KindString {
		resp = protocol.NullReply()
	} else {
		resp = protocol.BulkString(v.Str)
	}
	return &resp, nil
}
