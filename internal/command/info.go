package command

import (
	"errors"
	"fmt"
	"strings"

	"redislite/internal/protocol"
)

// ErrUnsupportedInfoSection is returned for any INFO section besides
// "replication", the only one this server exposes.
var ErrUnsupportedInfoSection = errors.New("ERR unsupported INFO section")

// Info reports role, replication id, and replication offset as a single
// bulk string with CRLF-separated "key:value" lines, matching the wire
// shape a real Redis client's INFO parser expects.
type Info struct {
	Section string
}

func parseInfo(args *protocol.ArgReader) (Command, error) {
	section, err := args.NextString()
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(section, "replication") {
		return nil, ErrUnsupportedInfoSection
	}
	return &Info{Section: section}, args.Finish()
}

func (i *Info) Encode() protocol.RESP { return bulkArray("INFO", i.Section) }

func (i *Info) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	replID, offset := ctx.Store.ReplInfo()
	text := fmt.Sprintf("role:%s\r\nmaster_replid:%s\r\nmaster_repl_offset:%d\r\n",
		ctx.Config.Role(), replID, offset)
	resp := protocol.BulkStringFrom(text)
	return &resp, nil
}
