// Package catalog 提供内存目录：既是 CandidateSource（候选查询），也是 ItemLookup（按 ID 读取）。
package catalog

import (
	"context"
	"sync"

	"github.com/rushteam/swipekit/core"
)

// Memory 是按插入顺序保存物品的内存目录。
// 目录顺序即扫描顺序：Filters.After 表示从该 ID 之后继续扫描。
type Memory struct {
	mu    sync.RWMutex
	items []*core.Item
	index map[string]int
}

// NewMemory 创建内存目录。
func NewMemory(items ...*core.Item) *Memory {
	m := &Memory{index: make(map[string]int)}
	m.Put(items...)
	return m
}

// Put 写入物品；已存在的 ID 原地替换，保持目录顺序。
func (m *Memory) Put(items ...*core.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if it == nil || it.ID == "" {
			continue
		}
		if i, ok := m.index[it.ID]; ok {
			m.items[i] = it
			continue
		}
		m.index[it.ID] = len(m.items)
		m.items = append(m.items, it)
	}
}

// Get 返回单个物品（包括已下架物品）。
func (m *Memory) Get(id string) (*core.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return m.items[i], true
}

// Len 返回物品总数。
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) Query(ctx context.Context, filters core.Filters, exclude core.IDSet, limit int) ([]*core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if filters.After != "" {
		// 未知游标从头扫描
		if i, ok := m.index[filters.After]; ok {
			start = i + 1
		}
	}

	var out []*core.Item
	for _, it := range m.items[start:] {
		if limit > 0 && len(out) >= limit {
			break
		}
		if !it.Active || exclude.Has(it.ID) || !filters.Match(it) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *Memory) GetItems(ctx context.Context, ids []string) (map[string]*core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*core.Item, len(ids))
	for _, id := range ids {
		if i, ok := m.index[id]; ok {
			out[id] = m.items[i]
		}
	}
	return out, nil
}

var _ core.Catalog = (*Memory)(nil)
