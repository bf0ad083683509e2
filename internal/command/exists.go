package command

import "redislite/internal/protocol"

// Exists counts how many of the given keys are present and unexpired,
// counting the same key twice if named twice (matching Redis semantics).
type Exists struct {
	Keys []string
}

func parseExists(args *protocol.ArgReader) (Command, error) {
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
	return &Exists{Keys: keys}, nil
}

func (e *Exists) Encode() protocol.RESP { return bulkArray("EXISTS", e.Keys...) }

func (e *Exists) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	var n int64
	for _, k := range e.Keys {
		if _, ok := ctx.Store.Get(k); ok {
			n++
		}
	}
	resp := protocol.IntegerReply(n)
	return &resp, nil
}
