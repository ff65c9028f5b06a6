package filter

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// MatchFilter 按 rctx.Filters 的结构化条件（类别/品牌/性别/价格区间）过滤。
// CandidateSource 通常已按同样条件查询，这里保证不支持某些条件的候选源也不会漏过。
type MatchFilter struct{}

func (f *MatchFilter) Name() string {
	return "filter.match"
}

func (f *MatchFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if rctx == nil {
		return false, nil
	}
	return !rctx.Filters.Match(c.Item), nil
}

// RecentFilter 移除窗口期内已曝光的物品，用于分页续页，保证同一轮翻页不重复。
// 首页请求不使用它：已曝光物品只扣分，之后仍可重新出现。
type RecentFilter struct{}

func (f *RecentFilter) Name() string {
	return "filter.recent"
}

func (f *RecentFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if rctx == nil {
		return false, nil
	}
	return rctx.RecentlyShown.Has(c.ID()), nil
}
