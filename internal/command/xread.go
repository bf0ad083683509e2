package command

import (
	"strconv"
	"strings"
	"time"

	"redislite/internal/protocol"
	"redislite/internal/storage"
)

// xreadFilter pairs one requested stream key with the id after which new
// entries should be returned, or a "$" marker meaning "entries appended
// after this XREAD call began".
type xreadFilter struct {
	key        string
	after      storage.StreamID
	sinceStart bool
	start      time.Time
}

// XRead reads new entries from one or more streams, optionally blocking
// until at least one exists (BLOCK 0) or for a fixed duration (BLOCK t).
type XRead struct {
	Filters []xreadFilter
	Block   bool
	BlockMs uint64
}

func parseXRead(args *protocol.ArgReader) (Command, error) {
	x := &XRead{}
	var keys, ids []string

	for args.Remaining() > 0 {
		tok, err := args.NextString()
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(tok) {
		case "BLOCK":
			ms, err := args.NextUint()
			if err != nil {
				return nil, err
			}
			x.Block, x.BlockMs = true, ms
		case "STREAMS":
			// Everything remaining splits into a first half of keys and a
			// second half of ids, one id per key, in declared order.
			rest := args.Remaining()
			half := rest / 2
			for i := 0; i < half; i++ {
				k, err := args.NextString()
				if err != nil {
					return nil, err
				}
				keys = append(keys, k)
			}
			for i := 0; i < half; i++ {
				id, err := args.NextString()
				if err != nil {
					return nil, err
				}
				ids = append(ids, id)
			}
		default:
			return nil, ErrSyntax
		}
	}

	for i, key := range keys {
		id := ids[i]
		if id == "$" {
			x.Filters = append(x.Filters, xreadFilter{key: key, sinceStart: true})
			continue
		}
		sid, err := parseRangeBound(id)
		if err != nil {
			return nil, err
		}
		x.Filters = append(x.Filters, xreadFilter{key: key, after: sid})
	}
	return x, nil
}

func (x *XRead) Encode() protocol.RESP {
	elems := []protocol.RESP{protocol.BulkStringFrom("XREAD")}
	if x.Block {
		elems = append(elems, protocol.BulkStringFrom("BLOCK"), protocol.BulkStringFrom(strconv.FormatUint(x.BlockMs, 10)))
	}
	elems = append(elems, protocol.BulkStringFrom("STREAMS"))
	for _, f := range x.Filters {
		elems = append(elems, protocol.BulkStringFrom(f.key))
	}
	for _, f := range x.Filters {
		if f.sinceStart {
			elems = append(elems, protocol.BulkStringFrom("$"))
		} else {
			elems = append(elems, protocol.BulkStringFrom(f.after.String()))
		}
	}
	return protocol.ArrayReply(elems)
}

// collect runs one non-blocking pass over every filtered stream, returning
// the RESP array elements for streams that have at least one new entry.
func (x *XRead) collect(ctx *ApplyContext) []protocol.RESP {
	var out []protocol.RESP
	for _, f := range x.Filters {
		v, ok := ctx.Store.Get(f.key)
		if !ok || v.Kind != storage.KindStream {
			continue
		}

		var entries []protocol.RESP
		for _, e := range v.Stream {
			var match bool
			if f.sinceStart {
				match = e.CreatedAt.After(f.start)
			} else {
				match = f.after.Less(e.ID)
			}
			if match {
				entries = append(entries, encodeStreamEntry(e))
			}
		}
		if len(entries) == 0 {
			continue
		}
		out = append(out, protocol.ArrayReply([]protocol.RESP{
			protocol.BulkStringFrom(f.key),
			protocol.ArrayReply(entries),
		}))
	}
	return out
}

func (x *XRead) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	now := ctx.now()
	for i := range x.Filters {
		if x.Filters[i].sinceStart {
			x.Filters[i].start = now
		}
	}

	var elems []protocol.RESP
	switch {
	case x.Block && x.BlockMs == 0:
		for {
			elems = x.collect(ctx)
			if len(elems) > 0 {
				break
			}
			select {
			case <-ctx.Ctx.Done():
				resp := protocol.NullReply()
				return &resp, nil
			case <-time.After(100 * time.Millisecond):
			}
		}
	case x.Block:
		select {
		case <-ctx.Ctx.Done():
		case <-time.After(time.Duration(x.BlockMs) * time.Millisecond):
		}
		elems = x.collect(ctx)
	default:
		elems = x.collect(ctx)
	}

	var resp protocol.RESP
	if len(elems) == 0 {
		resp = protocol.NullReply()
	} else {
		resp = protocol.ArrayReply(elems)
	}
	return &resp, nil
}
