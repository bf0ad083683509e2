package command

import (
	"strconv"
	"strings"

	"redislite/internal/protocol"
)

// Replconf carries the variadic key/value pairs exchanged during the
// replication handshake (listening-port, capa) and the GETACK probe used
// to collect WAIT acknowledgements.
type Replconf struct {
	Args []string
}

func parseReplconf(args *protocol.ArgReader) (Command, error) {
	var vals []string
	for args.Remaining() > 0 {
		s, err := args.NextString()
		if err != nil {
			return nil, err
		}
		vals = append(vals, s)
	}
	return &Replconf{Args: vals}, nil
}

func (r *Replconf) Encode() protocol.RESP {
	return bulkArray("REPLCONF", r.Args...)
}

func (r *Replconf) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	if len(r.Args) == 2 && strings.EqualFold(r.Args[0], "GETACK") && r.Args[1] == "*" {
		_, offset := ctx.Store.ReplInfo()
		resp := protocol.ArrayReply([]protocol.RESP{
			protocol.BulkStringFrom("REPLCONF"),
			protocol.BulkStringFrom("ACK"),
			protocol.BulkStringFrom(strconv.FormatUint(offset, 10)),
		})
		return &resp, nil
	}
	resp := protocol.SimpleString("OK")
	return &resp, nil
}
