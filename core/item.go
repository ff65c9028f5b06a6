package core

import "github.com/rushteam/swipekit/pkg/utils"

// Item 是目录中的一个商品。对引擎而言是只读的，归目录（catalog）协作方所有。
type Item struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name,omitempty" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Brand    string   `json:"brand" yaml:"brand"`
	Gender   string   `json:"gender,omitempty" yaml:"gender"`
	Price    *float64 `json:"price,omitempty" yaml:"price"` // 可为空，非负
	Tags     []string `json:"tags,omitempty" yaml:"tags"`
	Colors   []string `json:"colors,omitempty" yaml:"colors"` // 有序，仅用于展示分组
	Active   bool     `json:"active" yaml:"active"`

	// GroupID 标识近似重复（同一商品的不同款式），为空表示无分组
	GroupID string `json:"group_id,omitempty" yaml:"group_id"`
}

// HasPrice 判断价格是否存在。
func (it *Item) HasPrice() bool {
	return it != nil && it.Price != nil
}

// PriceValue 返回价格，不存在时返回 0。
func (it *Item) PriceValue() float64 {
	if it == nil || it.Price == nil {
		return 0
	}
	return *it.Price
}

// GroupKey 返回近似重复分组在曝光日志中的 key。
func (it *Item) GroupKey() string {
	if it == nil || it.GroupID == "" {
		return ""
	}
	return "group:" + it.GroupID
}

// Price 是构造可空价格的便捷函数。
func Price(v float64) *float64 {
	return &v
}

// ScoreBreakdown 是打分的分项明细，便于断言单个分量而不仅是总分。
type ScoreBreakdown struct {
	Category  float64 `json:"category"`
	Brand     float64 `json:"brand"`
	PriceFit  float64 `json:"price_fit"`
	Color     float64 `json:"color"`
	Tag       float64 `json:"tag"`
	Social    float64 `json:"social"`
	Diversity float64 `json:"diversity"`
	Recency   float64 `json:"recency"` // 惩罚项，<= 0
	Jitter    float64 `json:"jitter"`
}

// Deterministic 返回除随机扰动外的分量之和。
func (b ScoreBreakdown) Deterministic() float64 {
	return b.Category + b.Brand + b.PriceFit + b.Color + b.Tag + b.Social + b.Diversity + b.Recency
}

// Total 返回最终分数（含扰动）。
func (b ScoreBreakdown) Total() float64 {
	return b.Deterministic() + b.Jitter
}

// Candidate 是推荐链路中的统一承载结构（RankedCandidate）：物品、分数、分项、标签。
// 每次 feed 请求临时生成，从不持久化。
type Candidate struct {
	Item      *Item                  `json:"item"`
	Score     float64                `json:"score"`
	Breakdown ScoreBreakdown         `json:"breakdown"`
	Labels    map[string]utils.Label `json:"labels,omitempty"`
}

func NewCandidate(item *Item) *Candidate {
	return &Candidate{
		Item:   item,
		Labels: make(map[string]utils.Label),
	}
}

// ID 返回候选物品 ID。
func (c *Candidate) ID() string {
	if c == nil || c.Item == nil {
		return ""
	}
	return c.Item.ID
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// IDSet 是物品 ID 集合，成员判断 O(1)。
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

func (s IDSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int {
	return len(s)
}
