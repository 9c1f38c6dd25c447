// Package cache implements the in-process TTL response cache for normalized
// provider results.
package cache

import (
	"strings"
	"sync"
	"time"
)

const defaultCapacity = 256

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// Cache 按请求指纹缓存归一化结果。条目在 now-storedAt < ttl 时有效，
// 过期条目按缺失处理并惰性剔除。容量满时先驱逐最早插入的一条（按插入
// 时间，非访问时间）。
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]entry
	order    []string

	now func() time.Time
}

// New 构建容量受限的缓存。capacity<=0 时取默认值。
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[string]entry),
		now:      time.Now,
	}
}

// Key 拼接缓存键。键必须折叠所有影响负载身份的维度，数据源是其中之一：
// 两个源对相同 (symbol, interval) 可能返回不同数据，缺少 source 维度是
// 已确认的缺陷类别。
func Key(source, symbol string, dims ...string) string {
	parts := append([]string{source, symbol}, dims...)
	return strings.Join(parts, ":")
}

// Get 返回键对应的有效值；过期视为缺失并剔除。
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.expired(e) {
		c.removeLocked(key)
		return nil, false
	}
	return e.value, true
}

// Set 写入键值。已在容量上限且键为新键时，先驱逐最早插入的条目。
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.capacity {
		c.evictOldestLocked()
	}
	if _, exists := c.items[key]; exists {
		c.removeFromOrderLocked(key)
	}
	c.items[key] = entry{value: value, storedAt: c.now(), ttl: ttl}
	c.order = append(c.order, key)
}

// Has 等价于 Get 的存在性判断。
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Invalidate 删除指定键。
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// ClearExpired 剔除全部过期条目，返回剔除数量。
func (c *Cache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.items {
		if c.expired(e) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Len 返回当前条目数（含未剔除的过期条目）。
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) expired(e entry) bool {
	return c.now().Sub(e.storedAt) >= e.ttl
}

func (c *Cache) evictOldestLocked() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.items, oldest)
}

func (c *Cache) removeLocked(key string) {
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	c.removeFromOrderLocked(key)
}

func (c *Cache) removeFromOrderLocked(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
