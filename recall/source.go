package recall

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// Source 表示一个可复用的召回源，返回尚未打分的候选。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error)
}
