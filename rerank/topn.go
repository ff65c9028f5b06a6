package rerank

import (
	"context"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/conv"
)

// ParamPageSize 是 rctx.Params 中本次请求页大小的 key，优先于 TopNNode.N。
const ParamPageSize = "page_size"

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取一页。
// 通常是 Pipeline 的最后一个节点。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.ScoreNode{...},     // 打分排序
//	        &rerank.TopNNode{N: 20},  // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// 如果 N <= 0，则返回所有候选（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	limit := n.N
	if rctx != nil {
		limit = conv.ConfigGetInt(rctx.Params, ParamPageSize, limit)
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
