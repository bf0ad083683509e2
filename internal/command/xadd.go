package command

import (
	"strconv"
	"strings"

	"redislite/internal/protocol"
	"redislite/internal/storage"
)

// XAdd appends an entry to a stream, resolving its id against the `*`,
// `ms-*`, `ms-seq`, and bare-`ms` forms spec.md §4.E describes.
type XAdd struct {
	Key    string
	Form   storage.StreamIDRequest
	Fields []storage.Field
}

func parseXAdd(args *protocol.ArgReader) (Command, error) {
	key, err := args.NextString()
	if err != nil {
		return nil, err
	}
	idStr, err := args.NextString()
	if err != nil {
		return nil, err
	}
	form, err := parseStreamIDRequest(idStr)
	if err != nil {
		return nil, err
	}

	var fields []storage.Field
	for args.Remaining() > 0 {
		name, err := args.NextString()
		if err != nil {
			return nil, err
		}
		value, err := args.NextString()
		if err != nil {
			return nil, err
		}
		fields = append(fields, storage.Field{Name: name, Value: value})
	}

	return &XAdd{Key: key, Form: form, Fields: fields}, nil
}

// parseStreamIDRequest decodes the four accepted XADD id shapes: "*"
// (auto ms and seq), "ms-*" (auto seq), "ms-seq" (fully explicit), and a
// bare "ms" (auto seq, same as "ms-*").
func parseStreamIDRequest(s string) (storage.StreamIDRequest, error) {
	if s == "*" {
		return storage.StreamIDRequest{AutoMs: true, AutoSeq: true}, nil
	}

	dash := strings.IndexByte(s, '-')
	if dash == -1 {
		ms, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return storage.StreamIDRequest{}, storage.ErrInvalidStreamID
		}
		return storage.StreamIDRequest{Ms: ms, AutoSeq: true}, nil
	}

	ms, err := strconv.ParseUint(s[:dash], 10, 64)
	if err != nil {
		return storage.StreamIDRequest{}, storage.ErrInvalidStreamID
	}
	seqPart := s[dash+1:]
	if seqPart == "*" {
		return storage.StreamIDRequest{Ms: ms, AutoSeq: true}, nil
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return storage.StreamIDRequest{}, storage.ErrInvalidStreamID
	}
	return storage.StreamIDRequest{Ms: ms, Seq: seq}, nil
}

func (x *XAdd) Encode() protocol.RESP {
	elems := []protocol.RESP{protocol.BulkStringFrom("XADD"), protocol.BulkStringFrom(x.Key), protocol.BulkStringFrom(streamIDRequestString(x.Form))}
	for _, f := range x.Fields {
		elems = append(elems, protocol.BulkStringFrom(f.Name), protocol.BulkStringFrom(f.Value))
	}
	return protocol.ArrayReply(elems)
}

func streamIDRequestString(f storage.StreamIDRequest) string {
	if f.AutoMs {
		return "*"
	}
	if f.AutoSeq {
		return strconv.FormatUint(f.Ms, 10) + "-*"
	}
	return strconv.FormatUint(f.Ms, 10) + "-" + strconv.FormatUint(f.Seq, 10)
}

func (x *XAdd) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	var id storage.StreamID

	err := ctx.Store.Mutate(x.Key, storage.NewStreamValue, func(v *storage.Value) error {
		if v.Kind != storage.KindStream {
			return storage.ErrWrongType
		}
		nowMs := uint64(ctx.now().UnixMilli())
		resolved, err := storage.NextStreamID(v.Stream, x.Form, nowMs)
		if err != nil {
			return err
		}
		id = resolved
		v.Stream = append(v.Stream, storage.StreamEntry{ID: id, Fields: x.Fields, CreatedAt: ctx.now()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := protocol.BulkStringFrom(id.String())
	return &resp, nil
}
