// Package rdb provides the minimal slice of the RDB persistence format this
// server needs: decoding the canned empty-database payload sent as the
// bulk-transfer half of a PSYNC full resync, and loading string keys out of
// an on-disk dump file at startup.
package rdb

import (
	"encoding/hex"
)

// emptyDBHex is the hex encoding of a version-11 RDB file containing no
// keys, byte-for-byte identical to what a real Redis server sends a freshly
// connecting replica. This server never generates its own RDB bytes for
// PSYNC — it always hands the replica this canned empty file and relies on
// command propagation (not a real snapshot) to bring the replica's keyspace
// up to date, per this server's full-resync-only replication model.
const emptyDBHex = "524544495330303131fa0972656469732d76657205372e322e30fa0a72656469732d62697473c040fa056374696d65c26d08bc65fa08757365642d6d656dc2b0c41000fa08616f662d62617365c000fff06e3bfec0ff5aa2"

// EmptyDBFile returns a fresh copy of the canned empty RDB payload.
func EmptyDBFile() []byte {
	b, err := hex.DecodeString(emptyDBHex)
	if err != nil {
		// emptyDBHex is a compile-time constant; a decode failure here
		// would mean the constant itself was corrupted.
		panic("rdb: malformed embedded empty database file: " + err.Error())
	}
	return b
}
