package storage

import "errors"

// Domain errors surfaced by the keyspace. Command handlers translate these
// into the canonical RESP error text the protocol expects; the store itself
// never encodes RESP.
var (
	// ErrWrongType is returned when a command expects one value kind
	// (string vs. stream) and finds the other.
	ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

	// ErrNotInteger is returned by INCR when the current string value does
	// not parse as a decimal integer.
	ErrNotInteger = errors.New("ERR value is not an integer or out of range")

	// ErrInvalidStreamID is returned when an XADD id is malformed or
	// resolves to 0-0.
	ErrInvalidStreamID = errors.New("ERR The ID specified in XADD must be greater than 0-0")

	// ErrStreamIDTooSmall is returned when an XADD id does not strictly
	// exceed the stream's current last entry.
	ErrStreamIDTooSmall = errors.New("ERR The ID specified in XADD is equal or smaller than the target stream top item")
)
