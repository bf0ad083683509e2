package command

import (
	"strconv"

	"redislite/internal/protocol"
	"redislite/internal/storage"
)

// Incr parses the string at key as an unsigned decimal integer, adds one,
// stores the result, and replies with the new value. A missing key starts
// at "1". A stream-valued key or an unparseable string is a domain error.
type Incr struct {
	Key string
}

func parseIncr(args *protocol.ArgReader) (Command, error) {
	key, err := args.NextString()
	if err != nil {
		return nil, err
	}
	return &Incr{Key: key}, args.Finish()
}

func (i *Incr) Encode() protocol.RESP { return bulkArray("INCR", i.Key) }

func (i *Incr) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	var result uint64

	err := ctx.Store.Mutate(i.Key, func() *storage.Value {
		return storage.NewStringValue([]byte("0"), nil)
	}, func(v *storage.Value) error {
		if v.Kind != storage.KindString {
			return storage.ErrWrongType
		}
		n, err := strconv.ParseUint(string(v.Str), 10, 64)
		if err != nil {
			return storage.ErrNotInteger
		}
		result = n + 1
		v.Str = []byte(strconv.FormatUint(result, 10))
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := protocol.IntegerReply(int64(result))
	return &resp, nil
}
