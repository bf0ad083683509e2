package command

import "redislite/internal/protocol"

// TypeCmd reports "string", "stream", or "none" for a key. Expired keys
// always report "none", never their former kind (spec §9 Open Question ii).
type TypeCmd struct {
	Key string
}

func parseType(args *protocol.ArgReader) (Command, error) {
	key, err := args.NextString()
	if err != nil {
		return nil, err
	}
	return &TypeCmd{Key: key}, args.Finish()
}

func (t *TypeCmd) Encode() protocol.RESP { return bulkArray("TYPE", t.Key) }

func (t *TypeCmd) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	resp := protocol.SimpleString(ctx.Store.Type(t.Key))
	return &resp, nil
}
