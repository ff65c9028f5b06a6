// Package engine 是个性化排序引擎的门面：记录交互、组装 feed、计算兼容度、管理画像。
//
// 示例：
//
//	cfg, _ := engine.LoadConfig("swipekit.yaml")
//	eng, err := engine.Open(ctx, cfg)
//	if err != nil { ... }
//	defer eng.Close()
//
//	_ = eng.RecordInteraction(ctx, core.Interaction{UserID: "u1", ItemID: "i1", Action: core.ActionLike})
//	page, _ := eng.GetFeed(ctx, feed.Request{UserID: "u1", PageSize: 20})
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/swipekit/catalog"
	"github.com/rushteam/swipekit/compat"
	"github.com/rushteam/swipekit/config"
	_ "github.com/rushteam/swipekit/config/builders"
	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/exposure"
	"github.com/rushteam/swipekit/feed"
	"github.com/rushteam/swipekit/filter"
	"github.com/rushteam/swipekit/interaction"
	"github.com/rushteam/swipekit/pkg/logging"
	"github.com/rushteam/swipekit/pkg/metrics"
	"github.com/rushteam/swipekit/profile"
	"github.com/rushteam/swipekit/rank"
	"github.com/rushteam/swipekit/recall"
	"github.com/rushteam/swipekit/rerank"
	"github.com/rushteam/swipekit/social"
	"github.com/rushteam/swipekit/store"
)

// Deps 是引擎依赖的外部协作者。
type Deps struct {
	Catalog      core.Catalog
	Interactions core.InteractionStore
	// Store 保存画像缓存、重置水位、曝光日志与黑名单
	Store core.KeyValueStore
	// Social 可选，缺省时没有社交加权
	Social core.SocialGraph
}

// Engine 组合画像、feed 与兼容度组件。并发安全。
type Engine struct {
	Catalog      core.Catalog
	Interactions core.InteractionStore
	Store        core.KeyValueStore

	Profiles *profile.Model
	Feed     *feed.Assembler
	Compat   *compat.Scorer
	Exposure *exposure.Log

	// Now 用于补全未带时间戳的交互
	Now func() time.Time

	blacklist    *filter.BlacklistFilter
	blacklistKey string
	closers      []func() error
	logger       zerolog.Logger
}

// New 用给定依赖构造引擎。
func New(cfg *Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.Catalog == nil || deps.Interactions == nil || deps.Store == nil {
		return nil, errors.New("engine: catalog, interactions and store are required")
	}

	seed := cfg.Scoring.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	model := profile.NewModel(deps.Store, deps.Interactions, deps.Catalog)
	model.Cache = cfg.Profile.Cache
	model.TTL = cfg.Profile.TTL

	shown := exposure.NewLog(deps.Store, cfg.Scoring.RecencyWindow)

	asm := feed.New(
		model,
		deps.Interactions,
		recall.NewCatalogRecall(deps.Catalog, cfg.Catalog.Breaker),
		rank.NewScorer(cfg.Scoring.Weights, seed),
	)
	asm.Config = cfg.Feed
	asm.ColdStart = rerank.NewColdStart(rerank.DefaultPerGroup, seed)
	asm.Exposure = shown
	if deps.Social != nil {
		asm.Social = deps.Social
	}

	e := &Engine{
		Catalog:      deps.Catalog,
		Interactions: deps.Interactions,
		Store:        deps.Store,
		Profiles:     model,
		Feed:         asm,
		Compat:       compat.NewScorer(deps.Interactions),
		Exposure:     shown,
		Now:          time.Now,
		logger:       logging.Component(logging.Logger(), "engine"),
	}

	if cfg.Pipeline.Path != "" {
		nodes, err := config.LoadExtraNodes(cfg.Pipeline.Path)
		if err != nil {
			return nil, err
		}
		asm.Extra = nodes
	}
	if key := cfg.Pipeline.BlacklistKey; key != "" {
		e.blacklistKey = key
		e.blacklist = filter.NewBlacklistFilter(nil, filter.NewStoreAdapter(deps.Store), key)
		asm.Filters = append(asm.Filters, e.blacklist)
	}
	return e, nil
}

// Open 按配置创建存储、交互日志与目录，并构造引擎。
// 目录数据集中的初始交互会被写入（重复写入被幂等键忽略）。
func Open(ctx context.Context, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var closers []func() error
	fail := func(err error) (*Engine, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	var kv core.KeyValueStore
	switch cfg.Store.Type {
	case "redis":
		rs, err := store.NewRedisStore(ctx, cfg.Store.Redis)
		if err != nil {
			return fail(fmt.Errorf("open redis store: %w", err))
		}
		kv = rs
	default:
		kv = store.NewMemoryStore()
	}
	closers = append(closers, kv.Close)

	var log core.InteractionStore
	switch cfg.Interactions.Type {
	case "sqlite":
		sl, err := interaction.OpenSQLiteLog(ctx, cfg.Interactions.Path)
		if err != nil {
			return fail(fmt.Errorf("open interaction log: %w", err))
		}
		closers = append(closers, sl.Close)
		log = sl
	default:
		log = interaction.NewMemoryLog()
	}

	fx := &catalog.Fixture{}
	if cfg.Catalog.Fixture != "" {
		loaded, err := catalog.LoadFixture(cfg.Catalog.Fixture)
		if err != nil {
			return fail(err)
		}
		fx = loaded
	}

	e, err := New(cfg, Deps{
		Catalog:      fx.Catalog(),
		Interactions: log,
		Store:        kv,
		Social:       social.NewMemory(fx.Friends...),
	})
	if err != nil {
		return fail(err)
	}
	e.closers = closers

	for _, ev := range fx.Interactions {
		if err := e.RecordInteraction(ctx, ev); err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("seed fixture interactions: %w", err)
		}
	}
	return e, nil
}

// RecordInteraction 记录一次 like/pass/save 并更新画像。
//   - 未知动作返回 ErrInvalidAction，画像不变
//   - 物品不存在或已下架返回 ErrItemNotFound
//   - 幂等键重复视为成功，画像不会重复更新
//   - 未带时间戳时使用当前时间
func (e *Engine) RecordInteraction(ctx context.Context, ev core.Interaction) error {
	err := e.recordInteraction(ctx, ev)
	switch {
	case err == nil:
		metrics.Interactions.WithLabelValues(string(ev.Action), "ok").Inc()
	case core.IsDuplicateInteraction(err):
		metrics.Interactions.WithLabelValues(string(ev.Action), "duplicate").Inc()
		e.logger.Debug().Str("item_id", ev.ItemID).Msg("duplicate interaction ignored")
		return nil
	case core.IsInvalidAction(err):
		metrics.Interactions.WithLabelValues("invalid", "invalid_action").Inc()
	case core.IsItemNotFound(err):
		metrics.Interactions.WithLabelValues(string(ev.Action), "item_not_found").Inc()
	default:
		metrics.Interactions.WithLabelValues(string(ev.Action), "error").Inc()
	}
	return err
}

func (e *Engine) recordInteraction(ctx context.Context, ev core.Interaction) error {
	action, err := core.ParseAction(string(ev.Action))
	if err != nil {
		return core.ErrInvalidAction.With(ev.UserID, ev.ItemID, string(ev.Action))
	}
	ev.Action = action
	if ev.UserID == "" {
		return core.ErrInvalidRequest
	}
	if ev.ItemID == "" {
		return core.ErrItemNotFound.With(ev.UserID, ev.ItemID, string(action))
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}

	items, err := e.Catalog.GetItems(ctx, []string{ev.ItemID})
	if err != nil {
		return fmt.Errorf("lookup item: %w", err)
	}
	it, ok := items[ev.ItemID]
	if !ok || it == nil || !it.Active {
		return core.ErrItemNotFound.With(ev.UserID, ev.ItemID, string(action))
	}

	return e.Profiles.Record(ctx, ev, it)
}

// GetFeed 返回一页 feed，见 feed.Assembler.GetFeed。
func (e *Engine) GetFeed(ctx context.Context, req feed.Request) (*feed.Page, error) {
	return e.Feed.GetFeed(ctx, req)
}

// GetCompatibility 返回两个用户的兼容度。
func (e *Engine) GetCompatibility(ctx context.Context, a, b string) (*compat.Result, error) {
	return e.Compat.Compatibility(ctx, a, b)
}

// GetProfile 返回用户当前画像。
func (e *Engine) GetProfile(ctx context.Context, userID string) (*core.PreferenceProfile, error) {
	if userID == "" {
		return nil, core.ErrInvalidRequest
	}
	return e.Profiles.Profile(ctx, userID)
}

// ResetProfile 清空用户画像，用户重新进入冷启动；交互日志与 seen 集合不变。
func (e *Engine) ResetProfile(ctx context.Context, userID string) (*core.PreferenceProfile, error) {
	if userID == "" {
		return nil, core.ErrInvalidRequest
	}
	return e.Profiles.Reset(ctx, userID)
}

// TopPreferences 返回用户偏好最高的类别、品牌与颜色。
func (e *Engine) TopPreferences(ctx context.Context, userID string) (profile.TopPreferences, error) {
	p, err := e.GetProfile(ctx, userID)
	if err != nil {
		return profile.TopPreferences{}, err
	}
	return profile.Top(p), nil
}

// SetBlacklist 覆盖 Store 中的黑名单，之后的 feed 请求立即生效。
func (e *Engine) SetBlacklist(ctx context.Context, itemIDs []string) error {
	if e.blacklist == nil {
		return errors.New("engine: pipeline.blacklist_key is not configured")
	}
	if err := filter.NewStoreAdapter(e.Store).SetBlacklist(ctx, e.blacklistKey, itemIDs); err != nil {
		return fmt.Errorf("write blacklist: %w", err)
	}
	e.blacklist.Invalidate()
	return nil
}

// Close 释放 Open 创建的资源。
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
