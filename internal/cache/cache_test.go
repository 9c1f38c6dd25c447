package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(capacity int) (*Cache, *time.Time) {
	c := New(capacity)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestKeyJoinsDimensions(t *testing.T) {
	assert.Equal(t, "alphavantage:AAPL:D:compact", Key("alphavantage", "AAPL", "D", "compact"))
	assert.Equal(t, "mock:AAPL:quote", Key("mock", "AAPL", "quote"))
}

func TestGetRespectsTTL(t *testing.T) {
	c, now := newTestCache(16)
	c.Set("k", "v", time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	// 正好到达 TTL 边界即过期
	*now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestGetJustBeforeExpiry(t *testing.T) {
	c, now := newTestCache(16)
	c.Set("k", 42, time.Minute)
	*now = now.Add(time.Minute - time.Nanosecond)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestEvictionIsInsertionOrdered(t *testing.T) {
	c, _ := newTestCache(2)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Set("c", 3, time.Minute)

	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"))
	assert.True(t, c.Has("c"))
	assert.Equal(t, 2, c.Len())
}

func TestReSetMovesKeyToBackOfOrder(t *testing.T) {
	c, _ := newTestCache(2)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Set("a", 10, time.Minute) // 重写后 a 变为最新插入
	c.Set("c", 3, time.Minute)  // 驱逐的应是 b

	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("b"))
	assert.True(t, c.Has("c"))

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(16)
	c.Set("k", 1, time.Minute)
	c.Invalidate("k")
	assert.False(t, c.Has("k"))
	// 删除不存在的键不报错
	c.Invalidate("missing")
}

func TestClearExpired(t *testing.T) {
	c, now := newTestCache(16)
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)

	*now = now.Add(time.Minute)
	removed := c.ClearExpired()
	assert.Equal(t, 1, removed)
	assert.False(t, c.Has("short"))
	assert.True(t, c.Has("long"))
}

func TestZeroCapacityUsesDefault(t *testing.T) {
	c := New(0)
	for i := 0; i < defaultCapacity; i++ {
		c.Set(Key("src", "sym", string(rune('a'+i%26)), string(rune('a'+i/26))), i, time.Minute)
	}
	assert.Equal(t, defaultCapacity, c.Len())
}
