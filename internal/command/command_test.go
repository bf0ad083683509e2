package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redislite/internal/protocol"
	"redislite/internal/storage"
)

func parseArgs(t *testing.T, parts ...string) *protocol.ArgReader {
	t.Helper()
	elems := make([]protocol.RESP, len(parts))
	for i, p := range parts {
		elems[i] = protocol.BulkStringFrom(p)
	}
	r, err := protocol.NewArgReader(protocol.ArrayReply(elems), 0)
	require.NoError(t, err)
	return r
}

func TestParseDispatchesKnownCommands(t *testing.T) {
	_, err := Parse("SET", parseArgs(t, "k", "v"))
	require.NoError(t, err)

	_, err = Parse("set", parseArgs(t, "k", "v"))
	require.NoError(t, err, "command names are case-insensitive")

	_, err = Parse("NOPE", parseArgs(t))
	assert.Error(t, err)
}

func TestSetThenGetRoundtrip(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	setCmd, err := Parse("SET", parseArgs(t, "foo", "bar"))
	require.NoError(t, err)
	resp, err := setCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.Simple, resp.Type)
	assert.Equal(t, "OK", resp.Str)
	assert.True(t, setCmd.(Writer).IsWrite())

	getCmd, err := Parse("GET", parseArgs(t, "foo"))
	require.NoError(t, err)
	resp, err = getCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.Bulk, resp.Type)
	assert.Equal(t, "bar", string(resp.Bytes))
}

func TestGetMissingKeyIsNull(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	getCmd, err := Parse("GET", parseArgs(t, "missing"))
	require.NoError(t, err)
	resp, err := getCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.Null, resp.Type)
}

func TestIncrFromMissingThenAgain(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	incrCmd, err := Parse("INCR", parseArgs(t, "cnt"))
	require.NoError(t, err)

	resp, err := incrCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Int)

	resp, err = incrCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Int)
}

func TestIncrOnNonIntegerIsError(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	setCmd, _ := Parse("SET", parseArgs(t, "s", "abc"))
	_, err := setCmd.Apply(ctx)
	require.NoError(t, err)

	incrCmd, _ := Parse("INCR", parseArgs(t, "s"))
	_, err = incrCmd.Apply(ctx)
	assert.ErrorIs(t, err, storage.ErrNotInteger)
}

func TestKeysOnlySupportsStar(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	setCmd, _ := Parse("SET", parseArgs(t, "a", "1"))
	setCmd.Apply(ctx)

	keysCmd, _ := Parse("KEYS", parseArgs(t, "*"))
	resp, err := keysCmd.Apply(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Elems, 1)
	assert.Equal(t, "a", string(resp.Elems[0].Bytes))

	badCmd, _ := Parse("KEYS", parseArgs(t, "a*"))
	_, err = badCmd.Apply(ctx)
	assert.ErrorIs(t, err, ErrUnsupportedPattern)
}

func TestTypeReportsStringStreamNone(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	Apply := func(name string, parts ...string) *protocol.RESP {
		cmd, err := Parse(name, parseArgs(t, parts...))
		require.NoError(t, err)
		resp, err := cmd.Apply(ctx)
		require.NoError(t, err)
		return resp
	}

	Apply("SET", "str", "v")
	Apply("XADD", "strm", "1-1", "k", "v")

	assert.Equal(t, "string", Apply("TYPE", "str").Str)
	assert.Equal(t, "stream", Apply("TYPE", "strm").Str)
	assert.Equal(t, "none", Apply("TYPE", "absent").Str)
}

func TestXAddValidatesMonotonicityAndAutoSequence(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	add := func(id string) (*protocol.RESP, error) {
		cmd, err := Parse("XADD", parseArgs(t, "s", id, "k", "v"))
		require.NoError(t, err)
		return cmd.Apply(ctx)
	}

	resp, err := add("1-1")
	require.NoError(t, err)
	assert.Equal(t, "1-1", string(resp.Bytes))

	_, err = add("1-0")
	assert.ErrorIs(t, err, storage.ErrStreamIDTooSmall)

	resp, err = add("2-*")
	require.NoError(t, err)
	assert.Equal(t, "2-0", string(resp.Bytes))

	resp, err = add("2-*")
	require.NoError(t, err)
	assert.Equal(t, "2-1", string(resp.Bytes))
}

func TestXRangeReturnsEntriesInOrder(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	for _, id := range []string{"1-1", "2-1", "3-1"} {
		cmd, _ := Parse("XADD", parseArgs(t, "s", id, "k", "v"))
		_, err := cmd.Apply(ctx)
		require.NoError(t, err)
	}

	rangeCmd, err := Parse("XRANGE", parseArgs(t, "s", "-", "+"))
	require.NoError(t, err)
	resp, err := rangeCmd.Apply(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Elems, 3)
	assert.Equal(t, "1-1", string(resp.Elems[0].Elems[0].Bytes))
	assert.Equal(t, "3-1", string(resp.Elems[2].Elems[0].Bytes))
}

func TestDelAndExists(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	setCmd, _ := Parse("SET", parseArgs(t, "a", "1"))
	setCmd.Apply(ctx)

	existsCmd, _ := Parse("EXISTS", parseArgs(t, "a", "a", "missing"))
	resp, err := existsCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Int)

	delCmd, _ := Parse("DEL", parseArgs(t, "a", "missing"))
	resp, err = delCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Int)
}

func TestTTLStates(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	ttlCmd, _ := Parse("TTL", parseArgs(t, "missing"))
	resp, err := ttlCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), resp.Int)

	setCmd, _ := Parse("SET", parseArgs(t, "k", "v"))
	setCmd.Apply(ctx)

	ttlCmd, _ = Parse("TTL", parseArgs(t, "k"))
	resp, err = ttlCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), resp.Int)
}

func TestWaitDelegatesToReplicaSet(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)
	ctx.Replicas = &fakeReplicas{count: 3}

	waitCmd, err := Parse("WAIT", parseArgs(t, "2", "100"))
	require.NoError(t, err)
	resp, err := waitCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Int)
}

func TestPsyncWritesFullresyncAndPromotes(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	store.SetReplID("abc123")
	ctx, conn, promoter := newTestContext(store)

	psyncCmd, err := Parse("PSYNC", parseArgs(t, "?", "-1"))
	require.NoError(t, err)
	resp, err := psyncCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Nil(t, resp)

	require.Len(t, conn.writes, 2)
	assert.Equal(t, protocol.Simple, conn.writes[0].Type)
	assert.Equal(t, "FULLRESYNC abc123 0", conn.writes[0].Str)
	assert.Equal(t, protocol.File, conn.writes[1].Type)
	assert.Len(t, conn.writes[1].Bytes, 88)
	assert.True(t, promoter.promoted)
}

func TestPingIgnoresMessageContent(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	ctx, _, _ := newTestContext(store)

	pingCmd, err := Parse("PING", parseArgs(t, "hello"))
	require.NoError(t, err)
	resp, err := pingCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PONG", resp.Str)
}

func TestInfoReplicationFields(t *testing.T) {
	store := storage.NewStore()
	defer store.Close()
	store.SetReplID("myid")
	store.AddOffset(10)
	ctx, _, _ := newTestContext(store)

	infoCmd, err := Parse("INFO", parseArgs(t, "replication"))
	require.NoError(t, err)
	resp, err := infoCmd.Apply(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(resp.Bytes), "role:master")
	assert.Contains(t, string(resp.Bytes), "master_replid:myid")
	assert.Contains(t, string(resp.Bytes), "master_repl_offset:10")
}
