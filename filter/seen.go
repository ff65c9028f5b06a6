package filter

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// SeenFilter 过滤用户已交互过（like/pass/save）的物品。
// 成员判断基于 rctx.Seen 哈希集合，O(1)，不访问存储。
type SeenFilter struct{}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if rctx == nil {
		return false, nil
	}
	return rctx.Seen.Has(c.ID()), nil
}
