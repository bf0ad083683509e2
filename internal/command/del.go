package command

import "redislite/internal/protocol"

// Del removes zero or more keys, replying with how many actually existed.
// Supplemented beyond spec.md's 20 commands (see SPEC_FULL.md §5), it
// mutates the keyspace the same way SET does but is not fanned out to
// replicas — only SET is replicated in this implementation.
type Del struct {
	Keys []string
}

func parseDel(args *protocol.ArgReader) (Command, error) {
	var keys []string
	for args.Remaining() > 0 {
		k, err := args.NextString()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, ErrSyntax
	}
	return &Del{Keys: keys}, nil
}

func (d *Del) Encode() protocol.RESP { return bulkArray("DEL", d.Keys...) }

func (d *Del) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	var n int64
	for _, k := range d.Keys {
		if ctx.Store.Delete(k) {
			n++
		}
	}
	resp := protocol.IntegerReply(n)
	return &resp, nil
}
