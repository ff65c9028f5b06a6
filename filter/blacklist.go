package filter

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rushteam/swipekit/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的物品（例如下架审核中的商品）。
// 内存列表与 Store 中的列表取并集。Store 列表按 Refresh 间隔缓存，避免逐个候选访问存储。
//
// Store 读取失败时沿用上一次成功读取的列表；从未读取成功则返回 ErrBlacklistUnavailable，
// 宁可整页失败也不放出被拉黑的物品。
type BlacklistFilter struct {
	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string

	// Refresh 是 Store 列表的缓存时间，默认 1 分钟
	Refresh time.Duration

	ids core.IDSet

	mu       sync.Mutex
	cached   core.IDSet
	stale    core.IDSet // 最近一次成功读取的列表，Invalidate 不清除
	loadedAt time.Time
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单物品 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &BlacklistFilter{
		Store: store,
		Key:   key,
		ids:   core.NewIDSet(itemIDs...),
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil || c.Item == nil {
		return true, nil
	}
	id := c.ID()
	if f.ids.Has(id) {
		return true, nil
	}
	if f.Store == nil || f.Key == "" {
		return false, nil
	}

	stored, err := f.stored(ctx)
	if err != nil {
		return false, err
	}
	return stored.Has(id), nil
}

// Invalidate 丢弃缓存的 Store 列表，下次过滤时重新读取。
func (f *BlacklistFilter) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = nil
}

func (f *BlacklistFilter) stored(ctx context.Context) (core.IDSet, error) {
	refresh := f.Refresh
	if refresh <= 0 {
		refresh = time.Minute
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil && time.Since(f.loadedAt) < refresh {
		return f.cached, nil
	}

	ids, err := f.Store.GetBlacklist(ctx, f.Key)
	if err != nil && !core.IsStoreNotFound(err) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if f.stale == nil {
			return nil, core.ErrBlacklistUnavailable.Wrap(err)
		}
		// 沿用旧列表，Refresh 之后再重试
		f.cached = f.stale
		f.loadedAt = time.Now()
		return f.cached, nil
	}
	f.cached = core.NewIDSet(ids...)
	f.stale = f.cached
	f.loadedAt = time.Now()
	return f.cached, nil
}

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 黑名单以 JSON 字符串数组保存在单个 key 下。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetBlacklist 把黑名单写入 Store。
func (a *StoreAdapter) SetBlacklist(ctx context.Context, key string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}
