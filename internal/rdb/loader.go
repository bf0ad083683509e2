package rdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// RDB opcodes this loader understands. Only enough of the real format is
// implemented to walk past every entry in a file written by a standard
// Redis server and pull out the string-valued keys this server's value
// domain supports; every other value type is read far enough to skip its
// bytes and then discarded.
const (
	opAux          = 0xFA
	opResizeDB     = 0xFB
	opExpireTimeMs = 0xFC
	opExpireTime   = 0xFD
	opSelectDB     = 0xFE
	opEOF          = 0xFF

	typeString = 0x00
	typeList   = 0x01
	typeSet    = 0x02
	typeHash   = 0x04
)

// Entry is one key this loader recovered from an on-disk RDB file. Only
// string values are surfaced; keys holding any other encoding are walked
// past (to keep the file cursor in sync) and reported via SkippedEntries
// instead.
type Entry struct {
	Key       string
	Value     []byte
	ExpiresMs int64 // 0 means no expiry
}

// Load reads path and returns the string-valued entries it contains plus a
// count of entries it recognized but could not represent (lists, hashes,
// sets). A missing file is not an error: a fresh server has nothing to
// seed from.
func Load(path string) (entries []Entry, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("rdb: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, 9)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, 0, fmt.Errorf("rdb: read header: %w", err)
	}
	if string(magic[:5]) != "REDIS" {
		return nil, 0, fmt.Errorf("rdb: %s is not an RDB file", path)
	}

	var pendingExpireMs int64

	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, 0, fmt.Errorf("rdb: unexpected end of file before EOF opcode: %w", err)
		}

		switch op {
		case opEOF:
			// An 8-byte trailing CRC64 checksum follows real Redis
			// files; this loader has no way to recompute it without
			// re-reading the whole stream, so it is read and ignored.
			io.CopyN(io.Discard, r, 8)
			return entries, skipped, nil

		case opSelectDB:
			if _, err := readLength(r); err != nil {
				return nil, 0, fmt.Errorf("rdb: read SELECTDB: %w", err)
			}

		case opResizeDB:
			if _, err := readLength(r); err != nil {
				return nil, 0, fmt.Errorf("rdb: read RESIZEDB hash size: %w", err)
			}
			if _, err := readLength(r); err != nil {
				return nil, 0, fmt.Errorf("rdb: read RESIZEDB expire size: %w", err)
			}

		case opAux:
			if _, err := readString(r); err != nil {
				return nil, 0, fmt.Errorf("rdb: read AUX key: %w", err)
			}
			if _, err := readString(r); err != nil {
				return nil, 0, fmt.Errorf("rdb: read AUX value: %w", err)
			}

		case opExpireTime:
			var secs uint32
			if err := binary.Read(r, binary.LittleEndian, &secs); err != nil {
				return nil, 0, fmt.Errorf("rdb: read EXPIRETIME: %w", err)
			}
			pendingExpireMs = int64(secs) * 1000

		case opExpireTimeMs:
			var ms uint64
			if err := binary.Read(r, binary.LittleEndian, &ms); err != nil {
				return nil, 0, fmt.Errorf("rdb: read EXPIRETIME_MS: %w", err)
			}
			pendingExpireMs = int64(ms)

		case typeString:
			key, err := readString(r)
			if err != nil {
				return nil, 0, fmt.Errorf("rdb: read string key: %w", err)
			}
			val, err := readString(r)
			if err != nil {
				return nil, 0, fmt.Errorf("rdb: read string value for key %q: %w", key, err)
			}
			entries = append(entries, Entry{Key: key, Value: []byte(val), ExpiresMs: pendingExpireMs})
			pendingExpireMs = 0

		case typeList, typeSet, typeHash:
			if _, err := readString(r); err != nil {
				return nil, 0, fmt.Errorf("rdb: read key for skipped entry: %w", err)
			}
			if err := skipCollection(r, op); err != nil {
				return nil, 0, fmt.Errorf("rdb: skip entry: %w", err)
			}
			skipped++
			pendingExpireMs = 0

		default:
			return nil, 0, fmt.Errorf("rdb: unsupported opcode 0x%02x", op)
		}
	}
}

// skipCollection reads past a list, set, or hash value without retaining
// its contents.
func skipCollection(r *bufio.Reader, typeByte byte) error {
	n, err := readLength(r)
	if err != nil {
		return err
	}
	fieldsPerElem := 1
	if typeByte == typeHash {
		fieldsPerElem = 2
	}
	for i := uint64(0); i < n*uint64(fieldsPerElem); i++ {
		if _, err := readString(r); err != nil {
			return err
		}
	}
	return nil
}

// readLength decodes the RDB variable-length integer encoding: the top two
// bits of the first byte select a 6-bit, 14-bit, or 32-bit representation.
func readLength(r *bufio.Reader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch first & 0xC0 {
	case 0x00:
		return uint64(first & 0x3F), nil
	case 0x40:
		second, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		return uint64(first&0x3F)<<8 | uint64(second), nil
	case 0x80:
		var v uint32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return 0, err
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("special string-encoded length (0x%02x) is not a collection size", first)
	}
}

// readString decodes a length-prefixed string. Special encodings (integer
// or LZF-compressed strings) are not supported; a file relying on them
// fails the load rather than silently corrupting a value.
func readString(r *bufio.Reader) (string, error) {
	n, err := readLength(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
