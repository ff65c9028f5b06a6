package recall

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/conv"
	"github.com/rushteam/swipekit/pkg/logging"
	"github.com/rushteam/swipekit/pkg/metrics"
	"github.com/rushteam/swipekit/pkg/utils"
)

// ParamLimit 是 rctx.Params 中本次召回条数的 key，由 feed 按 pageSize × overFetch 写入。
const ParamLimit = "recall_limit"

// BreakerConfig 是候选源熔断配置。
type BreakerConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
	// FailureThreshold 连续失败多少次后打开熔断
	FailureThreshold uint32 `koanf:"failure_threshold" yaml:"failure_threshold"`
	// Timeout 打开状态持续多久后进入半开
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	// MaxRequests 半开状态允许的探测请求数
	MaxRequests uint32 `koanf:"max_requests" yaml:"max_requests"`
}

// DefaultBreakerConfig 返回默认熔断配置。
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// CatalogRecall 从 CandidateSource 召回候选，同时实现 Source 与 Node。
//   - 过滤条件与排除集合来自 rctx（Filters / Seen）
//   - 候选源出错或熔断打开时返回 ErrCatalogUnavailable，不返回部分结果
//   - 请求被取消时原样返回 ctx 错误，不计入熔断
//   - 写入 label：recall_source
type CatalogRecall struct {
	Source core.CandidateSource
	// Limit 是默认召回条数，rctx.Params[ParamLimit] 优先
	Limit int

	breaker *gobreaker.CircuitBreaker[[]*core.Item]
	logger  zerolog.Logger
}

// NewCatalogRecall 创建目录召回节点。
func NewCatalogRecall(src core.CandidateSource, cfg BreakerConfig) *CatalogRecall {
	r := &CatalogRecall{
		Source: src,
		logger: logging.Component(logging.Logger(), "recall.catalog"),
	}
	if !cfg.Enabled {
		return r
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = DefaultBreakerConfig().FailureThreshold
	}
	r.breaker = gobreaker.NewCircuitBreaker[[]*core.Item](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CatalogBreakerState.Set(breakerStateValue(to))
			r.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("candidate source breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
	return r
}

func (r *CatalogRecall) Name() string        { return "recall.catalog" }
func (r *CatalogRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，召回结果替换输入候选。
func (r *CatalogRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *CatalogRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	var (
		filters core.Filters
		exclude core.IDSet
		limit   = r.Limit
	)
	if rctx != nil {
		filters = rctx.Filters
		exclude = rctx.Seen
		limit = conv.ConfigGetInt(rctx.Params, ParamLimit, limit)
	}

	items, err := r.query(ctx, filters, exclude, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		c := core.NewCandidate(it)
		c.PutLabel(utils.LabelRecallSource, utils.NewLabel("catalog", "recall"))
		out = append(out, c)
	}
	return out, nil
}

func (r *CatalogRecall) query(ctx context.Context, filters core.Filters, exclude core.IDSet, limit int) ([]*core.Item, error) {
	if r.Source == nil {
		return nil, core.ErrCatalogUnavailable
	}

	fetch := func() ([]*core.Item, error) {
		return r.Source.Query(ctx, filters, exclude, limit)
	}

	var (
		items []*core.Item
		err   error
	)
	if r.breaker != nil {
		items, err = r.breaker.Execute(fetch)
	} else {
		items, err = fetch()
	}
	if err == nil {
		return items, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if core.IsCatalogUnavailable(err) {
		return nil, err
	}
	r.logger.Warn().Err(err).Msg("candidate source query failed")
	return nil, core.ErrCatalogUnavailable.Wrap(err)
}

// State 返回熔断状态，未启用时恒为 closed。
func (r *CatalogRecall) State() gobreaker.State {
	if r.breaker == nil {
		return gobreaker.StateClosed
	}
	return r.breaker.State()
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

var _ Source = (*CatalogRecall)(nil)
