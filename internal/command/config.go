package command

import (
	"errors"
	"strings"

	"redislite/internal/protocol"
)

// ErrUnsupportedConfigKey is returned for any CONFIG GET parameter besides
// dir and dbfilename, the only two this server tracks.
var ErrUnsupportedConfigKey = errors.New("ERR unsupported CONFIG GET parameter")

// ConfigGet replies with the [name, value] pair for "dir" or "dbfilename".
type ConfigGet struct {
	Param string
}

func parseConfig(args *protocol.ArgReader) (Command, error) {
	sub, err := args.NextString()
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(sub, "GET") {
		return nil, ErrUnsupportedConfigKey
	}
	param, err := args.NextString()
	if err != nil {
		return nil, err
	}
	return &ConfigGet{Param: param}, args.Finish()
}

func (c *ConfigGet) Encode() protocol.RESP { return bulkArray("CONFIG", "GET", c.Param) }

func (c *ConfigGet) Apply(ctx *ApplyContext) (*protocol.RESP, error) {
	var value string
	switch strings.ToLower(c.Param) {
	case "dir":
		value = ctx.Config.Dir()
	case "dbfilename":
		value = ctx.Config.DBFilename()
	default:
		return nil, ErrUnsupportedConfigKey
	}
	resp := protocol.ArrayReply([]protocol.RESP{
		protocol.BulkStringFrom(strings.ToLower(c.Param)),
		protocol.BulkStringFrom(value),
	})
	return &resp, nil
}
