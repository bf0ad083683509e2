package command

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"redislite/internal/protocol"
	"redislite/internal/storage"
)

// ErrSyntax is returned for a SET option this server does not recognize.
var ErrSyntax = errors.New("ERR syntax error")

// Set stores a string value, optionally with a PX (milliseconds) or EX
// (seconds) expiry. It is the only command this server replicates to
// attached replicas (see Writer / DESIGN.md).
type Set struct {
	Key    string
	Value  []byte
	TTL    time.Duration
	HasTTL bool
}

func parseSet(args *protocol.ArgReader) (Command, error) {
	key, err := args.NextString()
	if err != nil {
		return nil, err
	}
	val, err := args.NextBytes()
	if err != nil {
		return nil, err
	}

	s := &Set{Key: key, Value: val}
	if args.Remaining() > 0 {
		opt, err := args.NextString()
		if err != nil {
			return nil, err
		}
		n, err := args.NextUint()
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(opt) {
		case "PX":
			s.TTL, s.HasTTL = time.Duration(n)*time.Millisecond, true
		case "EX":
			s.TTL, s.HasTTL = time.Duration(n)*time.Second, true
		default:
			return nil, ErrSyntax
		}
	}
	return s, args.Finish()
}

func (s *Set) Encode() protocol.RESP {
	elems := []protocol.RESP{
		protocol.BulkStringFrom("SET"),
		protocol.BulkStringFrom(s.Key),
		protocol.BulkString(s.Value),
	}
	if s.HasTTL {
		elems = append(elems,
			protocol.BulkStringFrom("PX"),
			protocol.BulkStringFrom(strconv.FormatInt(s.TTL.Milliseconds(), 10)))
	}
	return protocol.ArrayReply(elems)
}

func (s *Set) IsWrite() bool { return true }

func (s *Set) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	var expiresAt *time.Time
	if s.HasTTL {
		t := ctx.now().Add(s.TTL)
		expiresAt = &t
	}
	ctx.Store.Set(s.Key, storage.NewStringValue(s.Value, expiresAt))
	resp := protocol.SimpleString("OK")
	return &resp, nil
}
