package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/swipekit/core"
)

var _ core.KeyValueStore = (*RedisStore)(nil)

func TestMemoryStoreKV(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	val := []byte("v1")
	require.NoError(t, s.Set(ctx, "k1", val))
	val[0] = 'x'
	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))
	batch, err := s.BatchGet(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, batch)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrStoreNotFound)
	assert.Equal(t, "memory", s.Name())
}

func TestMemoryStoreTTL(t *testing.T) {
	e := &entry{expire: expireAt([]int{60})}
	assert.False(t, e.expired(e.expire.Add(-1)))
	assert.True(t, e.expired(e.expire.Add(1)))
	assert.True(t, expireAt(nil).IsZero())
	assert.True(t, expireAt([]int{0}).IsZero())
}

func TestMemoryStoreSortedSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.ZAdd(ctx, "z", 3, "c"))
	require.NoError(t, s.ZAdd(ctx, "z", 1, "a"))
	require.NoError(t, s.ZAdd(ctx, "z", 2, "b"))
	require.NoError(t, s.ZAdd(ctx, "z", 2, "a2"))
	require.NoError(t, s.ZAdd(ctx, "z", 5, "c"))

	all, err := s.ZRangeByScore(ctx, "z", math.Inf(-1), math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a2", "b", "c"}, all)

	mid, err := s.ZRangeByScore(ctx, "z", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b"}, mid)

	score, err := s.ZScore(ctx, "z", "c")
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)
	_, err = s.ZScore(ctx, "z", "nope")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.ZRemRangeByScore(ctx, "z", math.Inf(-1), 2))
	rest, err := s.ZRangeByScore(ctx, "z", math.Inf(-1), math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, rest)

	empty, err := s.ZRangeByScore(ctx, "none", 0, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStoreCloseTwice(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
