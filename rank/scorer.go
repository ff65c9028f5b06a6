// Package rank 实现候选打分与排序。
package rank

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rushteam/swipekit/core"
)

// Weights 是打分权重，默认值见 DefaultWeights。
type Weights struct {
	Category float64 `koanf:"category" yaml:"category"`
	Brand    float64 `koanf:"brand" yaml:"brand"`
	PriceFit float64 `koanf:"price_fit" yaml:"price_fit"`
	Color    float64 `koanf:"color" yaml:"color"`
	Tag      float64 `koanf:"tag" yaml:"tag"`

	// Social 是社交加权系数，好友喜欢比例（0~1）乘以该系数
	Social float64 `koanf:"social" yaml:"social"`

	// DiversityCap 是多样性奖励上限：max(0, cap - (类别计数 + 品牌计数)/2)
	DiversityCap float64 `koanf:"diversity_cap" yaml:"diversity_cap"`

	// RecencyPenalty 是窗口期内已曝光物品的扣分（正数）
	RecencyPenalty float64 `koanf:"recency_penalty" yaml:"recency_penalty"`

	// MaxJitter 是随机扰动上限，扰动取值 [0, MaxJitter)；0 表示关闭
	MaxJitter float64 `koanf:"max_jitter" yaml:"max_jitter"`
}

// DefaultWeights 返回默认权重。
func DefaultWeights() Weights {
	return Weights{
		Category:       3,
		Brand:          2,
		PriceFit:       1.5,
		Color:          1,
		Tag:            1,
		Social:         1.0,
		DiversityCap:   10,
		RecencyPenalty: 5,
		MaxJitter:      0.1,
	}
}

// DefaultRecencyWindow 是曝光惩罚的默认窗口。
const DefaultRecencyWindow = 24 * time.Hour

// ScoreContext 是单次请求内与画像无关的打分输入。
// 类别/品牌交互计数直接取自画像。
type ScoreContext struct {
	// FriendCount 是已接受好友数
	FriendCount int
	// FriendLikes 是每个物品被好友喜欢的次数
	FriendLikes map[string]int
	// RecentlyShown 是窗口期内已曝光的物品 ID 与分组 key（core.Item.GroupKey）
	RecentlyShown core.IDSet
}

// Scorer 对单个物品打分。除 Jitter 外完全确定。
// 并发安全：随机源由互斥锁保护。
type Scorer struct {
	Weights Weights

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScorer 创建打分器，seed 固定时扰动序列可复现。
func NewScorer(w Weights, seed uint64) *Scorer {
	return &Scorer{
		Weights: w,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Score 返回分项明细；总分为 Breakdown.Total()。
func (s *Scorer) Score(item *core.Item, p *core.PreferenceProfile, sc ScoreContext) core.ScoreBreakdown {
	var b core.ScoreBreakdown
	if item == nil {
		return b
	}
	w := s.Weights

	b.Category = w.Category * p.CategoryScore(item.Category)
	b.Brand = w.Brand * p.BrandScore(item.Brand)

	if item.HasPrice() && p != nil && p.PriceAffinity > 0 {
		diff := math.Abs(*item.Price - p.PriceAffinity)
		b.PriceFit = w.PriceFit * math.Max(0, 100-diff) / 100
	}

	for _, c := range item.Colors {
		b.Color += w.Color * p.ColorScore(c)
	}
	for _, t := range item.Tags {
		b.Tag += w.Tag * p.TagScore(t)
	}

	if likes := sc.FriendLikes[item.ID]; likes > 0 {
		ratio := float64(likes) / float64(max(1, sc.FriendCount))
		b.Social = w.Social * math.Min(1, math.Max(0, ratio))
	}

	var seen int
	if p != nil {
		seen = p.CategoryCounts[item.Category] + p.BrandCounts[item.Brand]
	}
	b.Diversity = math.Max(0, w.DiversityCap-float64(seen)/2)

	if sc.RecentlyShown.Has(item.ID) || (item.GroupID != "" && sc.RecentlyShown.Has(item.GroupKey())) {
		b.Recency = -w.RecencyPenalty
	}

	b.Jitter = s.jitter()
	return b
}

func (s *Scorer) jitter() float64 {
	if s.Weights.MaxJitter <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s.rng.Float64() * s.Weights.MaxJitter
}
