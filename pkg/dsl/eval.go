package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/swipekit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的候选过滤表达式，使用 CEL (Common Expression Language)。
// 编译一次，可并发地对多个候选求值。
//
// 表达式语法（CEL 标准语法）：
//   - 属性：item.category == "Activewear" / item.brand != "Vuori"
//   - 数值：item.price < 100.0 && item.has_price
//   - 集合："summer" in item.tags / item.colors.size() > 1
//   - 标签：label.recall_source == "catalog"
//   - 上下文：rctx.params.season == "summer"
type Program struct {
	prg cel.Program
}

// Compile 编译表达式，表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{prg: prg}, nil
}

// Evaluate 对单个候选求值。
// 访问不存在的 key 会报错，存在性检查请使用 has(rctx.params.key)。
func (p *Program) Evaluate(c *core.Candidate, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(c, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(c *core.Candidate, rctx *core.RecommendContext) map[string]any {
	item := map[string]any{}
	labels := map[string]any{}
	if c != nil {
		for k, v := range c.Labels {
			labels[k] = v.Value
		}
		if it := c.Item; it != nil {
			item = map[string]any{
				"id":        it.ID,
				"name":      it.Name,
				"category":  it.Category,
				"brand":     it.Brand,
				"gender":    it.Gender,
				"price":     it.PriceValue(),
				"has_price": it.HasPrice(),
				"tags":      nonNil(it.Tags),
				"colors":    nonNil(it.Colors),
				"group_id":  it.GroupID,
				"score":     c.Score,
			}
		}
	}

	ctx := map[string]any{"params": map[string]any{}}
	if rctx != nil && rctx.Params != nil {
		ctx["params"] = rctx.Params
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  ctx,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
