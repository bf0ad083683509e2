package command

import (
	"strconv"

	"redislite/internal/protocol"
)

// Wait blocks until N replicas have acknowledged the write offset captured
// when it started, or timeoutMs elapses, replying with however many had.
type Wait struct {
	NumReplicas int
	TimeoutMs   int
}

func parseWait(args *protocol.ArgReader) (Command, error) {
	n, err := args.NextUint()
	if err != nil {
		return nil, err
	}
	t, err := args.NextUint()
	if err != nil {
		return nil, err
	}
	return &Wait{NumReplicas: int(n), TimeoutMs: int(t)}, args.Finish()
}

func (w *Wait) Encode() protocol.RESP {
	return bulkArray("WAIT", strconv.Itoa(w.NumReplicas), strconv.Itoa(w.TimeoutMs))
}

func (w *Wait) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	synced := ctx.Replicas.Wait(ctx.Ctx, w.NumReplicas, w.TimeoutMs)
	resp := protocol.IntegerReply(int64(synced))
	return &resp, nil
}
