package core

import "time"

// PreferenceProfile 是用户偏好画像：由交互日志推导出的、按物品属性累加的打分表。
//
// 一句话定义：偏好画像 = 交互日志的确定性投影
//
// 设计要点：
//
//	维度            作用
//	类别/品牌分      排序核心分量
//	颜色/标签分      细粒度偏好
//	价格亲和度      价格匹配分量
//	类别/品牌计数    多样性奖励（避免信息茧房）
//
// 画像可以随时从完整日志重放得到（无状态），也可以缓存（有状态），两者结果必须一致。
type PreferenceProfile struct {
	UserID string `json:"user_id"`

	Categories map[string]float64 `json:"categories"`
	Brands     map[string]float64 `json:"brands"`
	Colors     map[string]float64 `json:"colors"`
	Tags       map[string]float64 `json:"tags"`

	// PriceAffinity 是加权价格估计，0 表示尚无正向价格信号
	PriceAffinity float64      `json:"price_affinity"`
	PriceBounds   *PriceBounds `json:"price_bounds,omitempty"`

	// 每个类别/品牌被交互过的次数（所有动作），用于多样性奖励
	CategoryCounts map[string]int `json:"category_counts"`
	BrandCounts    map[string]int `json:"brand_counts"`

	// Interactions 是计入画像的交互条数
	Interactions int `json:"interactions"`

	// UpdatedAt 是最后一条计入画像的交互时间（不是计算时间）
	UpdatedAt time.Time `json:"updated_at"`
}

// PriceBounds 是用户喜欢的价格区间。
type PriceBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewPreferenceProfile 创建一个空画像。
func NewPreferenceProfile(userID string) *PreferenceProfile {
	return &PreferenceProfile{
		UserID:         userID,
		Categories:     make(map[string]float64),
		Brands:         make(map[string]float64),
		Colors:         make(map[string]float64),
		Tags:           make(map[string]float64),
		CategoryCounts: make(map[string]int),
		BrandCounts:    make(map[string]int),
	}
}

// Empty 判断画像是否没有任何交互（冷启动）。
func (p *PreferenceProfile) Empty() bool {
	return p == nil || p.Interactions == 0
}

// CategoryScore 返回类别分，默认 0。
func (p *PreferenceProfile) CategoryScore(category string) float64 {
	if p == nil {
		return 0
	}
	return p.Categories[category]
}

// BrandScore 返回品牌分，默认 0。
func (p *PreferenceProfile) BrandScore(brand string) float64 {
	if p == nil {
		return 0
	}
	return p.Brands[brand]
}

// ColorScore 返回颜色分，默认 0。
func (p *PreferenceProfile) ColorScore(color string) float64 {
	if p == nil {
		return 0
	}
	return p.Colors[color]
}

// TagScore 返回标签分，默认 0。
func (p *PreferenceProfile) TagScore(tag string) float64 {
	if p == nil {
		return 0
	}
	return p.Tags[tag]
}

// Clone 深拷贝画像。
func (p *PreferenceProfile) Clone() *PreferenceProfile {
	if p == nil {
		return nil
	}
	cp := &PreferenceProfile{
		UserID:         p.UserID,
		Categories:     cloneScores(p.Categories),
		Brands:         cloneScores(p.Brands),
		Colors:         cloneScores(p.Colors),
		Tags:           cloneScores(p.Tags),
		PriceAffinity:  p.PriceAffinity,
		CategoryCounts: cloneCounts(p.CategoryCounts),
		BrandCounts:    cloneCounts(p.BrandCounts),
		Interactions:   p.Interactions,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.PriceBounds != nil {
		b := *p.PriceBounds
		cp.PriceBounds = &b
	}
	return cp
}

func cloneScores(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
