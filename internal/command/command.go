package command

import (
	"fmt"
	"strings"

	"redislite/internal/protocol"
)

// Command is the contract every one of the 20 (plus 3 supplemented)
// commands implements: parse the remainder of a RESP array, encode itself
// back into one, and apply itself against server state.
//
// Apply returning (nil, nil) means the command already wrote its own reply
// directly to the connection (only PSYNC does this); every other command
// returns a non-nil RESP for the handler to write uniformly.
type Command interface {
	Encode() protocol.RESP
	Apply(ctx *ApplyContext) (*protocol.RESP, error)
}

// Writer reports whether a command is replicated to attached replicas.
// Per spec, SET is the only replicated write; see DESIGN.md for why this
// narrow set was kept instead of generalizing to every mutating command.
type Writer interface {
	IsWrite() bool
}

// Parse decodes a command name plus its argument reader into a typed
// Command. name is matched case-insensitively.
func Parse(name string, args *protocol.ArgReader) (Command, error) {
	switch strings.ToUpper(name) {
	case "PING":
		return parsePing(args)
	case "ECHO":
		return parseEcho(args)
	case "SET":
		return parseSet(args)
	case "GET":
		return parseGet(args)
	case "INCR":
		return parseIncr(args)
	case "KEYS":
		return parseKeys(args)
	case "TYPE":
		return parseType(args)
	case "CONFIG":
		return parseConfig(args)
	case "INFO":
		return parseInfo(args)
	case "REPLCONF":
		return parseReplconf(args)
	case "PSYNC":
		return parsePsync(args)
	case "WAIT":
		return parseWait(args)
	case "XADD":
		return parseXAdd(args)
	case "XRANGE":
		return parseXRange(args)
	case "XREAD":
		return parseXRead(args)
	case "MULTI":
		return parseMulti(args)
	case "EXEC":
		return parseExec(args)
	case "DISCARD":
		return parseDiscard(args)
	case "DEL":
		return parseDel(args)
	case "EXISTS":
		return parseExists(args)
	case "TTL":
		return parseTTL(args)
	default:
		return nil, fmt.Errorf("ERR unknown command '%s'", name)
	}
}

// bulkArray is a small helper every command's Encode uses to build its
// equivalent `*N\r\n$…` array, name first.
func bulkArray(name string, parts ...string) protocol.RESP {
	elems := make([]protocol.RESP, 0, len(parts)+1)
	elems = append(elems, protocol.BulkStringFrom(name))
	for _, p := range parts {
		elems = append(elems, protocol.BulkStringFrom(p))
	}
	return protocol.ArrayReply(elems)
}
