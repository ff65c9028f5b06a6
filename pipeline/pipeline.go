package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/swipekit/core"
)

// Pipeline 把 feed 组装拆成可组合的 Node 链。
type Pipeline struct {
	Nodes []Node
}

// Append 在末尾追加 Node，返回新的 Pipeline（不修改原 Pipeline）。
func (p *Pipeline) Append(nodes ...Node) *Pipeline {
	out := make([]Node, 0, len(p.Nodes)+len(nodes))
	out = append(out, p.Nodes...)
	out = append(out, nodes...)
	return &Pipeline{Nodes: out}
}

// Run 依次执行每个 Node；任一 Node 出错时整体失败，不返回部分结果。
// 每个 Node 之前检查 ctx，调用方放弃请求时尽早返回。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
