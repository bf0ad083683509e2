package command

import "redislite/internal/protocol"

// TTL reports the seconds remaining before key expires, -1 if it exists
// with no expiry, or -2 if it does not exist.
type TTL struct {
	Key string
}

func parseTTL(args *protocol.ArgReader) (Command, error) {
	key, err := args.NextString()
	if err != nil {
		return nil, err
	}
	return &TTL{Key: key}, args.Finish()
}

func (t *TTL) Encode() protocol.RESP { return bulkArray("TTL", t.Key) }

func (t *TTL) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	resp := protocol.IntegerReply(ctx.Store.TTL(t.Key))
	return &resp, nil
}
