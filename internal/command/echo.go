package command

import "redislite/internal/protocol"

// Echo replies with the bulk string it was given, or an empty simple
// string if called with no argument.
type Echo struct {
	Msg []byte
	has bool
}

func parseEcho(args *protocol.ArgReader) (Command, error) {
	e := &Echo{}
	if args.Remaining() > 0 {
		msg, err := args.NextBytes()
		if err != nil {
			return nil, err
		}
		e.Msg, e.has = msg, true
	}
	return e, args.Finish()
}

func (e *Echo) Encode() protocol.RESP {
	if e.has {
		return protocol.ArrayReply([]protocol.RESP{protocol.BulkStringFrom("ECHO"), protocol.BulkString(e.Msg)})
	}
	return bulkArray("ECHO")
}

func (e *Echo) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	var resp protocol.RESP
	if e.has {
		resp = protocol.BulkString(e.Msg)
	} else {
		resp = protocol.SimpleString("")
	}
	return &resp, nil
}
