package filter

import (
	"context"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤候选：表达式为 false 的候选被移除。
// 求值出错（例如访问不存在的字段）同样视为不满足。
//
// 示例：
//
//	item.price < 100.0 && "summer" in item.tags
type ExprFilter struct {
	Program *dsl.Program
}

// NewExprFilter 编译表达式，编译失败返回 ErrInvalidFilter。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.ErrInvalidFilter.Wrap(err)
	}
	return &ExprFilter{Program: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if f.Program == nil {
		return false, nil
	}
	ok, err := f.Program.Evaluate(c, rctx)
	if err != nil {
		return true, nil
	}
	return !ok, nil
}
