package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndParseRoundTrip(t *testing.T) {
	cases := []RESP{
		SimpleString("OK"),
		ErrorReply("ERR oops"),
		IntegerReply(42),
		BulkStringFrom("hello"),
		NullReply(),
		ArrayReply([]RESP{BulkStringFrom("SET"), BulkStringFrom("k"), BulkStringFrom("v")}),
	}

	for _, want := range cases {
		encoded := Encode(want)

		st, n := Check(encoded, 0, false)
		require.Equal(t, StatusOK, st)
		assert.Equal(t, len(encoded), n)

		got, consumed := Parse(encoded, 0, false)
		assert.Equal(t, len(encoded), consumed)
		assert.True(t, Equal(want, got))
	}
}

func TestCheckIncompleteOnShortRead(t *testing.T) {
	full := Encode(BulkStringFrom("hello world"))
	for i := 0; i < len(full); i++ {
		st, _ := Check(full[:i], 0, false)
		assert.Equal(t, StatusIncomplete, st, "prefix length %d", i)
	}
	st, _ := Check(full, 0, false)
	assert.Equal(t, StatusOK, st)
}

// TestCheckIncompleteWhenPayloadArrivesButCRLFHasNot exercises the exact
// short-read shape a TCP split produces for any ordinary bulk argument: the
// declared payload is fully buffered but its trailing CRLF has not arrived
// yet. This must stay Incomplete, never be mistaken for a terminator-less
// File payload — only an explicit expectFile=true call site gets that
// reading.
func TestCheckIncompleteWhenPayloadArrivesButCRLFHasNot(t *testing.T) {
	full := []byte("$11\r\nhello world\r\n")
	prefix := full[:16] // "$11\r\nhello world", missing only "\r\n"

	st, _ := Check(prefix, 0, false)
	assert.Equal(t, StatusIncomplete, st)
}

func TestCheckInvalidLeadingByte(t *testing.T) {
	st, _ := Check([]byte("!bogus\r\n"), 0, false)
	assert.Equal(t, StatusInvalid, st)
}

func TestBulkExpectFileParsesPayloadWithNoTerminator(t *testing.T) {
	payload := []byte("abcdefgh")
	raw := append([]byte("$8\r\n"), payload...)

	st, n := Check(raw, 0, true)
	require.Equal(t, StatusOK, st)
	require.Equal(t, len(raw), n)

	v, consumed := Parse(raw, 0, true)
	assert.Equal(t, File, v.Type)
	assert.Equal(t, payload, v.Bytes)
	assert.Equal(t, len(raw), consumed)
}

func TestBulkWithTrailingCRLFParsesAsBulk(t *testing.T) {
	raw := []byte("$5\r\nhello\r\n")

	v, consumed := Parse(raw, 0, false)
	assert.Equal(t, Bulk, v.Type)
	assert.Equal(t, []byte("hello"), v.Bytes)
	assert.Equal(t, len(raw), consumed)
}

func TestNestedArray(t *testing.T) {
	inner := ArrayReply([]RESP{IntegerReply(1), BulkStringFrom("a")})
	outer := ArrayReply([]RESP{inner, NullReply()})

	encoded := Encode(outer)
	st, n := Check(encoded, 0, false)
	require.Equal(t, StatusOK, st)
	require.Equal(t, len(encoded), n)

	got, _ := Parse(encoded, 0, false)
	assert.True(t, Equal(outer, got))
}

func TestCheckConsumesOnlyOneFrameFromTrailingGarbage(t *testing.T) {
	first := Encode(SimpleString("PONG"))
	buf := append(append([]byte{}, first...), Encode(IntegerReply(7))...)

	st, n := Check(buf, 0, false)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, len(first), n)
}
