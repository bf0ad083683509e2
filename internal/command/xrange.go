package command

import (
	"strconv"
	"strings"

	"redislite/internal/protocol"
	"redislite/internal/storage"
)

// XRange lists stream entries whose id falls within [start, end]. Either
// bound may be the open form: "-" for start (beginning of stream) or "+"
// for end (end of stream). A bound given without an explicit sequence
// defaults to sequence 0, matching this server's reference implementation.
type XRange struct {
	Key        string
	Start, End storage.StreamID
	OpenStart  bool
	OpenEnd    bool
}

func parseXRange(args *protocol.ArgReader) (Command, error) {
	key, err := args.NextString()
	if err != nil {
		return nil, err
	}
	startTok, err := args.NextString()
	if err != nil {
		return nil, err
	}
	endTok, err := args.NextString()
	if err != nil {
		return nil, err
	}

	x := &XRange{Key: key}
	if startTok == "-" {
		x.OpenStart = true
	} else {
		x.Start, err = parseRangeBound(startTok)
		if err != nil {
			return nil, err
		}
	}
	if endTok == "+" {
		x.OpenEnd = true
	} else {
		x.End, err = parseRangeBound(endTok)
		if err != nil {
			return nil, err
		}
	}
	return x, args.Finish()
}

func parseRangeBound(s string) (storage.StreamID, error) {
	dash := strings.IndexByte(s, '-')
	if dash == -1 {
		ms, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return storage.StreamID{}, storage.ErrInvalidStreamID
		}
		return storage.StreamID{Ms: ms}, nil
	}
	ms, err := strconv.ParseUint(s[:dash], 10, 64)
	if err != nil {
		return storage.StreamID{}, storage.ErrInvalidStreamID
	}
	seq, err := strconv.ParseUint(s[dash+1:], 10, 64)
	if err != nil {
		return storage.StreamID{}, storage.ErrInvalidStreamID
	}
	return storage.StreamID{Ms: ms, Seq: seq}, nil
}

func (x *XRange) Encode() protocol.RESP {
	start, end := "-", "+"
	if !x.OpenStart {
		start = x.Start.String()
	}
	if !x.OpenEnd {
		end = x.End.String()
	}
	return bulkArray("XRANGE", x.Key, start, end)
}

func (x *XRange) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	v, ok := ctx.Store.Get(x.Key)
	var entries []storage.StreamEntry
	if ok {
		if v.Kind != storage.KindStream {
			return nil, storage.ErrWrongType
		}
		entries = v.Stream
	}

	elems := make([]protocol.RESP, 0, len(entries))
	for _, e := range entries {
		if !x.OpenStart && e.ID.Less(x.Start) {
			continue
		}
		if !x.OpenEnd && x.End.Less(e.ID) {
			continue
		}
		elems = append(elems, encodeStreamEntry(e))
	}
	resp := protocol.ArrayReply(elems)
	return &resp, nil
}

func encodeStreamEntry(e storage.StreamEntry) protocol.RESP {
	fields := make([]protocol.RESP, 0, len(e.Fields)*2)
	for _, f := range e.Fields {
		fields = append(fields, protocol.BulkStringFrom(f.Name), protocol.BulkStringFrom(f.Value))
	}
	return protocol.ArrayReply([]protocol.RESP{
		protocol.BulkStringFrom(e.ID.String()),
		protocol.ArrayReply(fields),
	})
}
