package command

import "redislite/internal/protocol"

// Multi, Exec, and Discard exist here for a uniform Command contract, but
// the transaction state machine they name (in_multi / queued) is owned by
// the per-connection handler, per spec §4.I — it intercepts these three
// command names before generic dispatch. Their Apply methods run only
// outside that interception: a MULTI queued inside a transaction and run
// by EXEC, or a command applied by internal/replication.Client.

type Multi struct{}

func parseMulti(args *protocol.ArgReader) (Command, error) { return &Multi{}, args.Finish() }
func (m *Multi) Encode() protocol.RESP                     { return bulkArray("MULTI") }
func (m *Multi) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	resp := protocol.SimpleString("OK")
	return &resp, nil
}

type Exec struct{}

func parseExec(args *protocol.ArgReader) (Command, error) { return &Exec{}, args.Finish() }
func (e *Exec) Encode() protocol.RESP                      { return bulkArray("EXEC") }
func (e *Exec) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	resp := protocol.ArrayReply(nil)
	return &resp, nil
}

type Discard struct{}

func parseDiscard(args *protocol.ArgReader) (Command, error) { return &Discard{}, args.Finish() }
func (d *Discard) Encode() protocol.RESP                     { return bulkArray("DISCARD") }
func (d *Discard) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	resp := protocol.SimpleString("OK")
	return &resp, nil
}
