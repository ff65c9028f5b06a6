// Package feed 组装一页个性化 feed：加载用户上下文、召回候选、过滤、
// 冷启动或打分排序，最后分页。
//
// 状态流转：
//
//	FETCH_CANDIDATES → COLD_START | SCORE_AND_RANK → PAGINATE → RETURN
//
// 每个请求独立执行，请求之间不共享可变状态（打分器的随机源除外，它自带锁）。
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/exposure"
	"github.com/rushteam/swipekit/filter"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/logging"
	"github.com/rushteam/swipekit/pkg/metrics"
	"github.com/rushteam/swipekit/pkg/utils"
	"github.com/rushteam/swipekit/rank"
	"github.com/rushteam/swipekit/recall"
	"github.com/rushteam/swipekit/rerank"
)

// State 是 feed 组装所处的阶段，只用于日志。
type State string

const (
	StateFetchCandidates State = "FETCH_CANDIDATES"
	StateColdStart       State = "COLD_START"
	StateScoreAndRank    State = "SCORE_AND_RANK"
	StatePaginate        State = "PAGINATE"
	StateReturn          State = "RETURN"
)

// Config 是 feed 组装配置。
type Config struct {
	// PageSize 是请求未指定页大小时的默认值
	PageSize int `koanf:"page_size" yaml:"page_size"`
	// MaxPageSize 是页大小上限，超出按上限截断
	MaxPageSize int `koanf:"max_page_size" yaml:"max_page_size"`
	// OverFetch 是召回倍数：召回 PageSize × OverFetch 个候选再排序截断
	OverFetch int `koanf:"over_fetch" yaml:"over_fetch"`
	// FriendConcurrency 是并发读取好友交互的上限
	FriendConcurrency int `koanf:"friend_concurrency" yaml:"friend_concurrency"`
	// RecordImpressions 为 true 时，成功返回的页会写入曝光日志。
	// 续页依赖曝光日志排除已展示物品，关闭后不再返回 NextCursor
	RecordImpressions bool `koanf:"record_impressions" yaml:"record_impressions"`
	// ColdStartScan 是冷启动时召回的候选数下限，分组需要看到足够多的类别
	ColdStartScan int `koanf:"cold_start_scan" yaml:"cold_start_scan"`
	// MaxScanRounds 是过滤后候选不足时按目录顺序继续召回的最大批数
	MaxScanRounds int `koanf:"max_scan_rounds" yaml:"max_scan_rounds"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		PageSize:          20,
		MaxPageSize:       100,
		OverFetch:         3,
		FriendConcurrency: 8,
		RecordImpressions: true,
		ColdStartScan:     500,
		MaxScanRounds:     10,
	}
}

// Request 是一次 feed 请求。
// Cursor 只标记这是同一轮翻页的续页（取上一页的 NextCursor），不表示目录位置：
// 续页从头召回并排除窗口期内已曝光的物品。
type Request struct {
	UserID   string       `json:"user_id"`
	PageSize int          `json:"page_size,omitempty"`
	Cursor   string       `json:"cursor,omitempty"`
	Filters  core.Filters `json:"filters"`
}

// Page 是一页 feed 结果，Items 按最终顺序排列且从不为 nil。
type Page struct {
	Items      []*core.Candidate `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
	ColdStart  bool              `json:"cold_start"`
	RequestID  string            `json:"request_id"`
}

// ProfileSource 提供用户当前的偏好画像，profile.Model 实现此接口。
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (*core.PreferenceProfile, error)
}

// Assembler 是 feed 组装器。
//
// 必填：Profiles / Interactions / Recall / Scorer。
// Social 与 Exposure 可选，缺省时没有社交加权与曝光惩罚；两者读取失败只记日志，不影响出页。
type Assembler struct {
	Config

	Profiles     ProfileSource
	Interactions core.InteractionStore
	Social       core.SocialGraph
	Exposure     *exposure.Log

	Recall    *recall.CatalogRecall
	Scorer    *rank.Scorer
	ColdStart *rerank.ColdStart

	// Filters 在 seen / 结构化条件 / 表达式过滤之后执行（例如黑名单）
	Filters []filter.Filter
	// Extra 是打分之后、截断之前追加的 Node（来自 YAML 配置）
	Extra []pipeline.Node

	Logger       zerolog.Logger
	NewRequestID func() string
}

// New 用默认配置创建组装器。
func New(profiles ProfileSource, log core.InteractionStore, rec *recall.CatalogRecall, scorer *rank.Scorer) *Assembler {
	return &Assembler{
		Config:       DefaultConfig(),
		Profiles:     profiles,
		Interactions: log,
		Recall:       rec,
		Scorer:       scorer,
		ColdStart:    rerank.NewColdStart(rerank.DefaultPerGroup, uint64(time.Now().UnixNano())),
		Logger:       logging.Component(logging.Logger(), "feed"),
		NewRequestID: uuid.NewString,
	}
}

// GetFeed 返回一页 feed。
//   - 用户交互过的物品永不出现
//   - 候选源失败返回 ErrCatalogUnavailable，不返回部分结果
//   - 带游标的续页排除窗口期内已曝光物品，首页只对其扣分
//   - 过滤后候选不足时继续召回，NextCursor 非空表示还有可展示的物品
func (a *Assembler) GetFeed(ctx context.Context, req Request) (*Page, error) {
	start := time.Now()
	page, err := a.getFeed(ctx, req)
	metrics.FeedDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if page.ColdStart {
		metrics.FeedRequests.WithLabelValues("cold_start").Inc()
	} else {
		metrics.FeedRequests.WithLabelValues("ranked").Inc()
	}
	return page, nil
}

func (a *Assembler) getFeed(ctx context.Context, req Request) (*Page, error) {
	if req.UserID == "" {
		return nil, core.ErrInvalidRequest
	}
	if a.Recall == nil {
		return nil, core.ErrCatalogUnavailable
	}
	f := req.Filters
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, core.ErrInvalidFilter
	}

	// 表达式先编译，非法表达式不必加载任何上下文
	filters := []filter.Filter{&filter.SeenFilter{}, &filter.MatchFilter{}}
	if f.Expr != "" {
		ef, err := filter.NewExprFilter(f.Expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, ef)
	}
	if req.Cursor != "" {
		filters = append(filters, &filter.RecentFilter{})
	}
	filters = append(filters, a.Filters...)

	pageSize := a.pageSize(req.PageSize)
	requestID := a.requestID()
	log := a.Logger.With().Str("request_id", requestID).Logger()

	rctx, err := a.loadContext(ctx, req.UserID, log)
	if err != nil {
		return nil, err
	}
	rctx.RequestID = requestID
	rctx.Filters = f
	rctx.Filters.After = ""

	coldStart := rctx.Profile.Empty()
	target := pageSize * a.overFetch()
	if coldStart {
		target = max(target, a.ColdStartScan)
	}
	rctx.Params = map[string]any{
		recall.ParamLimit:    target,
		rerank.ParamPageSize: pageSize,
	}

	log.Debug().Str("state", string(StateFetchCandidates)).Int("limit", target).Msg("feed state")
	items, exhausted, err := a.collect(ctx, rctx, &filter.FilterNode{Filters: filters}, target)
	if err != nil {
		return nil, err
	}
	rctx.Filters.After = ""
	pool := len(items)
	metrics.FeedCandidates.Observe(float64(pool))

	var order *pipeline.Pipeline
	if coldStart {
		log.Debug().Str("state", string(StateColdStart)).Int("candidates", pool).Msg("feed state")
		rctx.PutLabel(utils.LabelColdStart, utils.NewLabel("true", "feed"))
		order = &pipeline.Pipeline{Nodes: []pipeline.Node{a.coldStart()}}
	} else {
		log.Debug().Str("state", string(StateScoreAndRank)).Int("candidates", pool).Msg("feed state")
		order = &pipeline.Pipeline{Nodes: []pipeline.Node{&rank.ScoreNode{Scorer: a.Scorer}}}
		order = order.Append(a.Extra...)
	}
	items, err = order.Run(ctx, rctx, items)
	if err != nil {
		return nil, unwrapStage(err)
	}

	log.Debug().Str("state", string(StatePaginate)).Int("page_size", pageSize).Msg("feed state")
	paginate := &pipeline.Pipeline{Nodes: []pipeline.Node{&rerank.TopNNode{N: pageSize}}}
	items, err = paginate.Run(ctx, rctx, items)
	if err != nil {
		return nil, unwrapStage(err)
	}

	page := &Page{
		Items:     make([]*core.Candidate, 0, len(items)),
		ColdStart: coldStart,
		RequestID: requestID,
	}
	for _, c := range items {
		if c != nil && c.Item != nil {
			page.Items = append(page.Items, c)
		}
	}
	// 候选池里还有未展示的物品，或候选源还没扫完，就还有下一页。
	// 冷启动每组只取前几个，被截掉的物品在续页中出现。
	if n := len(page.Items); n > 0 && a.tracksImpressions() && (pool > n || !exhausted) {
		page.NextCursor = page.Items[n-1].ID()
	}

	a.recordImpressions(ctx, req.UserID, page, log)

	log.Info().
		Str("state", string(StateReturn)).
		Bool("cold_start", coldStart).
		Int("items", len(page.Items)).
		Bool("has_more", page.NextCursor != "").
		Msg("feed assembled")
	return page, nil
}

// collect 按目录顺序分批召回并过滤，直到凑满 target 个候选或候选源耗尽。
// 批与批之间以上一批最后一个召回物品的 ID 作为 Filters.After，这个位置只在本次请求内使用。
// exhausted 为 true 表示候选源已没有更多物品。
func (a *Assembler) collect(
	ctx context.Context,
	rctx *core.RecommendContext,
	filters *filter.FilterNode,
	target int,
) ([]*core.Candidate, bool, error) {
	rounds := a.MaxScanRounds
	if rounds <= 0 {
		rounds = DefaultConfig().MaxScanRounds
	}

	var pool []*core.Candidate
	for range rounds {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		batch, err := a.Recall.Recall(ctx, rctx)
		if err != nil {
			return nil, false, err
		}
		if len(batch) == 0 {
			return pool, true, nil
		}
		rctx.Filters.After = batch[len(batch)-1].ID()

		kept, err := filters.Process(ctx, rctx, batch)
		if err != nil {
			return nil, false, unwrapStage(err)
		}
		pool = append(pool, kept...)

		if len(batch) < target {
			return pool, true, nil
		}
		if len(pool) >= target {
			return pool, false, nil
		}
	}
	return pool, false, nil
}

func (a *Assembler) tracksImpressions() bool {
	return a.RecordImpressions && a.Exposure != nil
}

// loadContext 并发加载画像、seen 集合、好友信号与曝光集合。
func (a *Assembler) loadContext(ctx context.Context, userID string, log zerolog.Logger) (*core.RecommendContext, error) {
	rctx := &core.RecommendContext{UserID: userID}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := a.Profiles.Profile(gctx, userID)
		if err != nil {
			return err
		}
		rctx.Profile = p
		return nil
	})

	g.Go(func() error {
		evs, err := a.Interactions.ListByUser(gctx, userID)
		if err != nil {
			return err
		}
		seen := core.NewIDSet()
		for _, ev := range evs {
			seen.Add(ev.ItemID)
		}
		rctx.Seen = seen
		return nil
	})

	var (
		friendCount int
		friendLikes map[string]int
	)
	if a.Social != nil {
		g.Go(func() error {
			n, likes, err := a.friendSignals(gctx, userID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Msg("social signal unavailable")
				return nil
			}
			friendCount, friendLikes = n, likes
			return nil
		})
	}

	var recent core.IDSet
	if a.Exposure != nil {
		g.Go(func() error {
			s, err := a.Exposure.Recent(gctx, userID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Msg("exposure log unavailable")
				return nil
			}
			recent = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if rctx.Profile == nil {
		rctx.Profile = core.NewPreferenceProfile(userID)
	}
	rctx.FriendCount = friendCount
	rctx.FriendLikes = friendLikes
	if recent == nil {
		recent = core.NewIDSet()
	}
	rctx.RecentlyShown = recent
	return rctx, nil
}

// friendSignals 返回已接受好友数，以及每个物品被多少好友喜欢（按好友最终动作计）。
func (a *Assembler) friendSignals(ctx context.Context, userID string) (int, map[string]int, error) {
	friends, err := a.Social.AcceptedFriendsOf(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	likes := make(map[string]int)
	if len(friends) == 0 {
		return 0, likes, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	limit := a.FriendConcurrency
	if limit <= 0 {
		limit = DefaultConfig().FriendConcurrency
	}
	g.SetLimit(limit)

	for _, friend := range friends {
		g.Go(func() error {
			evs, err := a.Interactions.ListByUser(gctx, friend)
			if err != nil {
				return err
			}
			latest := core.LatestActions(evs)
			mu.Lock()
			defer mu.Unlock()
			for itemID, act := range latest {
				if act == core.ActionLike {
					likes[itemID]++
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}
	return len(friends), likes, nil
}

func (a *Assembler) recordImpressions(ctx context.Context, userID string, page *Page, log zerolog.Logger) {
	if !a.tracksImpressions() || len(page.Items) == 0 {
		return
	}
	if ctx.Err() != nil {
		return
	}
	shown := make([]*core.Item, 0, len(page.Items))
	for _, c := range page.Items {
		shown = append(shown, c.Item)
	}
	if err := a.Exposure.Record(ctx, userID, shown); err != nil {
		log.Warn().Err(err).Msg("record impressions failed")
	}
}

func (a *Assembler) pageSize(n int) int {
	def := a.PageSize
	if def <= 0 {
		def = DefaultConfig().PageSize
	}
	upper := a.MaxPageSize
	if upper <= 0 {
		upper = DefaultConfig().MaxPageSize
	}
	if n <= 0 {
		n = def
	}
	if n > upper {
		n = upper
	}
	return n
}

func (a *Assembler) overFetch() int {
	if a.OverFetch <= 0 {
		return DefaultConfig().OverFetch
	}
	return a.OverFetch
}

func (a *Assembler) coldStart() pipeline.Node {
	if a.ColdStart != nil {
		return a.ColdStart
	}
	return rerank.NewColdStart(rerank.DefaultPerGroup, uint64(time.Now().UnixNano()))
}

func (a *Assembler) requestID() string {
	if a.NewRequestID == nil {
		return uuid.NewString()
	}
	return a.NewRequestID()
}

// unwrapStage 返回错误链中的领域错误，去掉 Pipeline 附加的节点名前缀。
func unwrapStage(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if de := core.GetDomainError(err); de != nil {
		return de
	}
	return err
}
