// Package builders 注册内置 Node 的配置构建逻辑，通过空导入触发。
package builders

import (
	"fmt"

	"github.com/rushteam/swipekit/config"
	"github.com/rushteam/swipekit/filter"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/conv"
	"github.com/rushteam/swipekit/rank"
	"github.com/rushteam/swipekit/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("rank.score", BuildScoreNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.coldstart", BuildColdStartNode)
}

// BuildFilterNode 构建组合过滤节点。
//
//	type: filter
//	config:
//	  filters:
//	    - {type: blacklist, item_ids: [i1, i2]}
//	    - {type: expr, expr: 'item.price < 300.0'}
//	    - {type: seen}
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.ConfigGetStrings(filterMap, "item_ids")
			filters = append(filters, filter.NewBlacklistFilter(ids, nil, ""))
		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("expr filter: expr not found")
			}
			f, err := filter.NewExprFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)
		case "seen":
			filters = append(filters, &filter.SeenFilter{})
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// BuildScoreNode 构建打分节点，未配置的权重使用默认值。
func BuildScoreNode(cfg map[string]interface{}) (pipeline.Node, error) {
	w := rank.DefaultWeights()
	w.Category = conv.ConfigGetFloat64(cfg, "category", w.Category)
	w.Brand = conv.ConfigGetFloat64(cfg, "brand", w.Brand)
	w.PriceFit = conv.ConfigGetFloat64(cfg, "price_fit", w.PriceFit)
	w.Color = conv.ConfigGetFloat64(cfg, "color", w.Color)
	w.Tag = conv.ConfigGetFloat64(cfg, "tag", w.Tag)
	w.Social = conv.ConfigGetFloat64(cfg, "social", w.Social)
	w.DiversityCap = conv.ConfigGetFloat64(cfg, "diversity_cap", w.DiversityCap)
	w.RecencyPenalty = conv.ConfigGetFloat64(cfg, "recency_penalty", w.RecencyPenalty)
	w.MaxJitter = conv.ConfigGetFloat64(cfg, "max_jitter", w.MaxJitter)
	return &rank.ScoreNode{Scorer: rank.NewScorer(w, conv.ConfigGetSeed(cfg, "seed"))}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("n must be >= 0")
	}
	return &rerank.TopNNode{N: n}, nil
}

func BuildColdStartNode(cfg map[string]interface{}) (pipeline.Node, error) {
	per := conv.ConfigGetInt(cfg, "per_group", rerank.DefaultPerGroup)
	if per <= 0 {
		return nil, fmt.Errorf("per_group must be > 0")
	}
	return rerank.NewColdStart(per, conv.ConfigGetSeed(cfg, "seed")), nil
}
