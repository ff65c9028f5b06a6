package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pkg/logging"
	"github.com/rushteam/swipekit/pkg/metrics"
)

// 存储 key 前缀。
const (
	KeyPrefix      = "profile:"
	ResetKeyPrefix = "profile:reset:"
)

// Model 是有状态的偏好模型。
//
// 交互日志是唯一事实来源，缓存画像只是日志的物化：
//   - Record 在同一把用户锁内完成追加日志与更新缓存，缓存与重放结果一致
//   - 缓存缺失时从日志重建（singleflight 合并并发重建）
//   - Reset 写入重置水位线，水位线及之前的交互不再计入画像
//
// Cache=false 时为无状态模式：每次读取都从日志重放。
type Model struct {
	Store core.Store
	Log   core.InteractionStore
	Items core.ItemLookup

	// Cache 是否缓存画像
	Cache bool
	// TTL 缓存画像的过期时间（秒），0 表示不过期
	TTL int

	Now    func() time.Time
	Logger zerolog.Logger

	locks sync.Map
	group singleflight.Group
}

// NewModel 创建偏好模型，默认开启缓存。
func NewModel(store core.Store, log core.InteractionStore, items core.ItemLookup) *Model {
	return &Model{
		Store:  store,
		Log:    log,
		Items:  items,
		Cache:  true,
		Now:    time.Now,
		Logger: logging.Component(logging.Logger(), "profile"),
	}
}

func (m *Model) lock(userID string) func() {
	v, _ := m.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Record 追加一条交互并更新画像。
// item 必须是调用方已校验的物品；幂等键重复时返回 ErrDuplicateInteraction 且画像不变。
func (m *Model) Record(ctx context.Context, ev core.Interaction, item *core.Item) error {
	unlock := m.lock(ev.UserID)
	defer unlock()

	if err := m.Log.Append(ctx, ev); err != nil {
		return err
	}
	if !m.Cache {
		return nil
	}

	watermark, err := m.watermark(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if !ev.Timestamp.After(watermark) {
		return nil
	}

	cached, err := m.load(ctx, ev.UserID)
	if err != nil {
		return err
	}
	// 缓存缺失或事件乱序到达时整体重建，保证与重放结果一致
	if cached == nil || ev.Timestamp.Before(cached.UpdatedAt) {
		_, err := m.rebuildAndStore(ctx, ev.UserID, watermark)
		return err
	}

	next, err := Update(cached, item, ev.Action)
	if err != nil {
		return err
	}
	next.UserID = ev.UserID
	next.UpdatedAt = ev.Timestamp
	return m.save(ctx, next)
}

// Profile 返回用户当前画像，没有交互的用户返回空画像（不是错误）。
func (m *Model) Profile(ctx context.Context, userID string) (*core.PreferenceProfile, error) {
	if !m.Cache {
		watermark, err := m.watermark(ctx, userID)
		if err != nil {
			return nil, err
		}
		return m.Rebuild(ctx, userID, watermark)
	}

	cached, err := m.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		metrics.ProfileCache.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.ProfileCache.WithLabelValues("miss").Inc()

	v, err, _ := m.group.Do(userID, func() (interface{}, error) {
		unlock := m.lock(userID)
		defer unlock()

		// 等锁期间可能已被 Record 写入
		if p, err := m.load(ctx, userID); err != nil || p != nil {
			return p, err
		}
		watermark, err := m.watermark(ctx, userID)
		if err != nil {
			return nil, err
		}
		return m.rebuildAndStore(ctx, userID, watermark)
	})
	if err != nil {
		return nil, err
	}
	// singleflight 的结果被多个调用方共享
	return v.(*core.PreferenceProfile).Clone(), nil
}

// Reset 清空用户画像。日志保持不变，之后的重放只计入重置之后的交互。
func (m *Model) Reset(ctx context.Context, userID string) (*core.PreferenceProfile, error) {
	unlock := m.lock(userID)
	defer unlock()

	now := m.Now()
	if err := m.Store.Set(ctx, ResetKeyPrefix+userID, []byte(strconv.FormatInt(now.UnixNano(), 10))); err != nil {
		return nil, fmt.Errorf("write reset watermark: %w", err)
	}

	p := Reset(userID)
	if m.Cache {
		if err := m.save(ctx, p); err != nil {
			return nil, err
		}
	}
	m.Logger.Info().Msg("profile reset")
	return p, nil
}

// Rebuild 从日志重放画像，只计入水位线之后的交互。
func (m *Model) Rebuild(ctx context.Context, userID string, watermark time.Time) (*core.PreferenceProfile, error) {
	evs, err := m.Log.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	evs = After(evs, watermark)
	if len(evs) == 0 {
		return Reset(userID), nil
	}

	ids := make([]string, 0, len(evs))
	seen := core.NewIDSet()
	for _, ev := range evs {
		if !seen.Has(ev.ItemID) {
			seen.Add(ev.ItemID)
			ids = append(ids, ev.ItemID)
		}
	}
	items, err := m.Items.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup items: %w", err)
	}

	return Replay(userID, evs, items), nil
}

// Watermark 返回用户的重置水位线，未重置过返回零值。
func (m *Model) Watermark(ctx context.Context, userID string) (time.Time, error) {
	return m.watermark(ctx, userID)
}

func (m *Model) rebuildAndStore(ctx context.Context, userID string, watermark time.Time) (*core.PreferenceProfile, error) {
	p, err := m.Rebuild(ctx, userID, watermark)
	if err != nil {
		return nil, err
	}
	metrics.ProfileCache.WithLabelValues("rebuild").Inc()
	if err := m.save(ctx, p); err != nil {
		return nil, err
	}
	m.Logger.Debug().Int("interactions", p.Interactions).Msg("profile rebuilt from log")
	return p, nil
}

func (m *Model) watermark(ctx context.Context, userID string) (time.Time, error) {
	raw, err := m.Store.Get(ctx, ResetKeyPrefix+userID)
	if err != nil {
		if errors.Is(err, core.ErrStoreNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("read reset watermark: %w", err)
	}
	ns, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reset watermark: %w", err)
	}
	return time.Unix(0, ns), nil
}

func (m *Model) load(ctx context.Context, userID string) (*core.PreferenceProfile, error) {
	raw, err := m.Store.Get(ctx, KeyPrefix+userID)
	if err != nil {
		if errors.Is(err, core.ErrStoreNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p := core.NewPreferenceProfile(userID)
	if err := json.Unmarshal(raw, p); err != nil {
		// 损坏的缓存按缺失处理，下次从日志重建
		m.Logger.Warn().Err(err).Msg("discarding corrupt cached profile")
		return nil, nil
	}
	fillMaps(p)
	return p, nil
}

func (m *Model) save(ctx context.Context, p *core.PreferenceProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if m.TTL > 0 {
		err = m.Store.Set(ctx, KeyPrefix+p.UserID, raw, m.TTL)
	} else {
		err = m.Store.Set(ctx, KeyPrefix+p.UserID, raw)
	}
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// json 中的 null map 需要补齐，避免 Update 写入 nil map
func fillMaps(p *core.PreferenceProfile) {
	if p.Categories == nil {
		p.Categories = map[string]float64{}
	}
	if p.Brands == nil {
		p.Brands = map[string]float64{}
	}
	if p.Colors == nil {
		p.Colors = map[string]float64{}
	}
	if p.Tags == nil {
		p.Tags = map[string]float64{}
	}
	if p.CategoryCounts == nil {
		p.CategoryCounts = map[string]int{}
	}
	if p.BrandCounts == nil {
		p.BrandCounts = map[string]int{}
	}
}
