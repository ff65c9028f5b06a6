package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被过滤掉。
// 过滤器返回错误时整个节点失败：过滤器自己决定哪些错误可以降级（例如表达式求值失败视为不满足）。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Candidate, 0, len(items))
	for _, c := range items {
		if c == nil || c.Item == nil {
			continue
		}
		drop, err := n.filtered(ctx, rctx, c)
		if err != nil {
			return nil, err
		}
		if !drop {
			out = append(out, c)
		}
	}
	return out, nil
}

func (n *FilterNode) filtered(ctx context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	for _, f := range n.Filters {
		ok, err := f.ShouldFilter(ctx, rctx, c)
		if err != nil {
			return false, fmt.Errorf("%s: %w", f.Name(), err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
