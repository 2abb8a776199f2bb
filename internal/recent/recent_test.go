package recent

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushMovesExistingToFront(t *testing.T) {
	list := []Item{{ID: 1, Type: "student"}, {ID: 2, Type: "student"}, {ID: 1, Type: "teacher"}}
	got := Push(list, Item{ID: 2, Type: "student", Name: "new name"})
	assert.Equal(t, []Item{
		{ID: 2, Type: "student", Name: "new name"},
		{ID: 1, Type: "student"},
		{ID: 1, Type: "teacher"},
	}, got)
}

func TestPushCapsLength(t *testing.T) {
	var list []Item
	for i := int64(1); i <= 8; i++ {
		list = Push(list, Item{ID: i, Type: "student"})
		assert.LessOrEqual(t, len(list), Limit)
	}
	assert.EqualValues(t, 8, list[0].ID)
	assert.EqualValues(t, 4, list[Limit-1].ID)
}

func testCache(t *testing.T, c Cache) {
	ctx := context.Background()
	list, err := c.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, id := range []int64{1, 2, 3, 1} {
		_, err = c.Add(ctx, "s1", Item{ID: id, Type: "student"})
		require.NoError(t, err)
	}
	list, err = c.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.EqualValues(t, 1, list[0].ID)

	other, err := c.List(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, c.Clear(ctx, "s1"))
	list, err = c.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryCache(t *testing.T) {
	testCache(t, NewMemory())
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	testCache(t, NewRedis(client))
}

func TestCorruptEntryReadsAsEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("recent:s1", "{not json"))
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	list, err := NewRedis(client).List(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
