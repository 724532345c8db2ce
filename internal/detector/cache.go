package detector

import (
	"sync"
	"time"

	"wellness-monitor/internal/models"
)

// cacheEntry 单个家庭的基线缓存项
// baseline 为 nil 表示"已确认无基线"，同样缓存以避免反复查库
type cacheEntry struct {
	baseline  *models.Baseline
	fetchedAt time.Time
}

// baselineCache 进程内基线缓存
// 基线每日重算一次，过期前的陈旧读取可以接受；条目整体替换，读路径无锁竞争放大
type baselineCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	nowFn   func() time.Time
}

func newBaselineCache(ttl time.Duration) *baselineCache {
	return &baselineCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		nowFn:   time.Now,
	}
}

// get 返回缓存的基线；第二个返回值表示缓存是否命中且未过期
func (c *baselineCache) get(householdID string) (*models.Baseline, bool) {
	c.mu.RLock()
	entry, ok := c.entries[householdID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.nowFn().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.baseline, true
}

// put 写入缓存（nil 基线同样写入）
func (c *baselineCache) put(householdID string, baseline *models.Baseline) {
	c.mu.Lock()
	c.entries[householdID] = cacheEntry{
		baseline:  baseline,
		fetchedAt: c.nowFn(),
	}
	c.mu.Unlock()
}

// invalidate 移除家庭缓存（基线重算后调用，下次评估读取新快照）
func (c *baselineCache) invalidate(householdID string) {
	c.mu.Lock()
	delete(c.entries, householdID)
	c.mu.Unlock()
}

// invalidateAll 清空全部缓存（每日基线批量重算后调用）
func (c *baselineCache) invalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
