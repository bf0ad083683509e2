package command

import (
	"errors"

	"redislite/internal/protocol"
)

// ErrUnsupportedPattern is returned by KEYS for any pattern other than "*",
// the Open Question this server resolves by rejecting rather than
// implementing glob matching (see DESIGN.md).
var ErrUnsupportedPattern = errors.New("ERR KEYS only supports the '*' pattern")

// Keys lists every live key name. Only the "*" pattern is supported.
type Keys struct {
	Pattern string
}

func parseKeys(args *protocol.ArgReader) (Command, error) {
	pattern, err := args.NextString()
	if err != nil {
		return nil, err
	}
	return &Keys{Pattern: pattern}, args.Finish()
}

func (k *Keys) Encode() protocol.RESP { return bulkArray("KEYS", k.Pattern) }

func (k *Keys) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	if k.Pattern != "*" {
		return nil, ErrUnsupportedPattern
	}
	keys := ctx.Store.Keys()
	elems := make([]protocol.RESP, len(keys))
	for i, key := range keys {
		elems[i] = protocol.BulkStringFrom(key)
	}
	resp := protocol.ArrayReply(elems)
	return &resp, nil
}
