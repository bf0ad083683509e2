package command

import "redislite/internal/protocol"

// Ping replies +PONG regardless of any argument given, per spec.
type Ping struct {
	Msg string
	has bool
}

func parsePing(args *protocol.ArgReader) (Command, error) {
	p := &Ping{}
	if args.Remaining() > 0 {
		msg, err := args.NextString()
		if err != nil {
			return nil, err
		}
		p.Msg, p.has = msg, true
	}
	return p, args.Finish()
}

func (p *Ping) Encode() protocol.RESP {
	if p.has {
		return bulkArray("PING", p.Msg)
	}
	return bulkArray("PING")
}

func (p *Ping) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	resp := protocol.SimpleString("PONG")
	return &resp, nil
}
