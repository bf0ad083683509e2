package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetGet(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.Set("k", NewStringValue([]byte("v"), nil))

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v.Str)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStoreGetReturnsCloneNotLiveValue(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.Set("k", NewStringValue([]byte("v"), nil))
	got, _ := s.Get("k")
	got.Str[0] = 'X'

	again, _ := s.Get("k")
	assert.Equal(t, byte('v'), again.Str[0])
}

func TestStoreTTL(t *testing.T) {
	s := NewStore()
	defer s.Close()

	assert.Equal(t, int64(-2), s.TTL("missing"))

	s.Set("no-expiry", NewStringValue([]byte("v"), nil))
	assert.Equal(t, int64(-1), s.TTL("no-expiry"))

	future := time.Now().Add(5 * time.Second)
	s.Set("expiring", NewStringValue([]byte("v"), &future))
	ttl := s.TTL("expiring")
	assert.True(t, ttl == 4 || ttl == 5, "expected ttl near 5s, got %d", ttl)
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.Set("k", NewStringValue([]byte("v"), nil))
	assert.True(t, s.Delete("k"))
	assert.False(t, s.Delete("k"))

	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestStoreKeysExcludesExpired(t *testing.T) {
	s := NewStore()
	defer s.Close()

	past := time.Now().Add(-time.Hour)
	s.Set("expired", NewStringValue([]byte("v"), &past))
	s.Set("live", NewStringValue([]byte("v"), nil))

	keys := s.Keys()
	assert.ElementsMatch(t, []string{"live"}, keys)
}

func TestStoreTypeReportsNoneForExpired(t *testing.T) {
	s := NewStore()
	defer s.Close()

	past := time.Now().Add(-time.Hour)
	s.Set("k", NewStringValue([]byte("v"), &past))

	assert.Equal(t, "none", s.Type("k"))
	assert.Equal(t, "none", s.Type("never-existed"))
}

func TestStoreBackgroundPurgerEvictsWithinBound(t *testing.T) {
	s := NewStore()
	defer s.Close()

	soon := time.Now().Add(20 * time.Millisecond)
	s.Set("k", NewStringValue([]byte("v"), &soon))

	assert.Eventually(t, func() bool {
		_, ok := s.Get("k")
		return !ok
	}, 200*time.Millisecond, 5*time.Millisecond)
}

func TestStorePurgerTreatsStaleIndexEntryAsHarmlessMiss(t *testing.T) {
	s := NewStore()
	defer s.Close()

	soon := time.Now().Add(10 * time.Millisecond)
	s.Set("k", NewStringValue([]byte("first"), &soon))

	// Overwrite with no expiry before the stale index entry comes due; the
	// purger must not evict the new value when it pops the old instant.
	s.Set("k", NewStringValue([]byte("second"), nil))

	time.Sleep(60 * time.Millisecond)

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), v.Str)
}

func TestStoreMutateCreatesAndUpdates(t *testing.T) {
	s := NewStore()
	defer s.Close()

	err := s.Mutate("stream", NewStreamValue, func(v *Value) error {
		v.Stream = append(v.Stream, StreamEntry{ID: StreamID{Ms: 1, Seq: 0}})
		return nil
	})
	require.NoError(t, err)

	v, ok := s.Get("stream")
	require.True(t, ok)
	assert.Len(t, v.Stream, 1)

	err = s.Mutate("stream", NewStreamValue, func(v *Value) error {
		v.Stream = append(v.Stream, StreamEntry{ID: StreamID{Ms: 2, Seq: 0}})
		return nil
	})
	require.NoError(t, err)

	v, _ = s.Get("stream")
	assert.Len(t, v.Stream, 2)
}

func TestStoreReplInfoAndOffset(t *testing.T) {
	s := NewStore()
	defer s.Close()

	s.SetReplID("abc123")
	s.AddOffset(37)
	s.AddOffset(14)

	id, off := s.ReplInfo()
	assert.Equal(t, "abc123", id)
	assert.Equal(t, uint64(51), off)
	assert.Equal(t, uint64(51), s.Offset())
}
