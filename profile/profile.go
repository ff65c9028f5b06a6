// Package profile 实现偏好模型：把交互日志转换为用户偏好画像。
//
// 画像是交互日志的确定性投影：
//   - Update 是纯函数，对单条交互累加权重
//   - Replay 从完整日志重建画像，同一日志重放结果完全相同，与计算时的墙钟时间无关
//   - Model 在此之上提供有状态缓存、按用户串行化写入与重置
package profile

import (
	"math"
	"sort"
	"time"

	"github.com/rushteam/swipekit/core"
)

// 价格区间扩展量：最低喜欢价格向下 50，最高喜欢价格向上 100。
const (
	PriceBoundsBelow = 50.0
	PriceBoundsAbove = 100.0
)

// Update 返回应用一次交互后的新画像，不修改入参。
// 动作不在 like/pass/save 之内时返回 ErrInvalidAction，物品为空时返回 ErrItemNotFound。
func Update(p *core.PreferenceProfile, item *core.Item, action core.Action) (*core.PreferenceProfile, error) {
	w, ok := action.Weight()
	if !ok {
		return nil, core.ErrInvalidAction.With("", "", string(action))
	}
	if item == nil {
		return nil, core.ErrItemNotFound
	}

	var out *core.PreferenceProfile
	if p == nil {
		out = core.NewPreferenceProfile("")
	} else {
		out = p.Clone()
	}

	out.Categories[item.Category] += w
	out.Brands[item.Brand] += w
	for _, tag := range item.Tags {
		out.Tags[tag] += w
	}
	for _, color := range item.Colors {
		out.Colors[color] += w
	}
	out.CategoryCounts[item.Category]++
	out.BrandCounts[item.Brand]++
	out.Interactions++

	if w > 0 && item.HasPrice() {
		updatePrice(out, *item.Price, w)
	}
	return out, nil
}

func updatePrice(p *core.PreferenceProfile, price, w float64) {
	if p.PriceAffinity == 0 {
		p.PriceAffinity = price
	} else {
		pa := p.PriceAffinity
		p.PriceAffinity = (pa*math.Abs(pa) + price*w) / (math.Abs(pa) + math.Abs(w))
	}

	lo := math.Max(0, price-PriceBoundsBelow)
	hi := price + PriceBoundsAbove
	if p.PriceBounds == nil {
		p.PriceBounds = &core.PriceBounds{Min: lo, Max: hi}
		return
	}
	if lo < p.PriceBounds.Min {
		p.PriceBounds.Min = lo
	}
	if hi > p.PriceBounds.Max {
		p.PriceBounds.Max = hi
	}
}

// Reset 返回一个完全清空的画像：没有任何分数、计数与价格区间。
func Reset(userID string) *core.PreferenceProfile {
	return core.NewPreferenceProfile(userID)
}

// Replay 按时间顺序（时间相同保持日志顺序）重放交互，重建画像。
// items 中找不到的物品被跳过；非法动作的事件被跳过（日志边界已拒绝，此处只做防御）。
func Replay(userID string, evs []core.Interaction, items map[string]*core.Item) *core.PreferenceProfile {
	sorted := make([]core.Interaction, len(evs))
	copy(sorted, evs)
	core.SortInteractions(sorted)

	p := Reset(userID)
	for _, ev := range sorted {
		item, ok := items[ev.ItemID]
		if !ok {
			continue
		}
		next, err := Update(p, item, ev.Action)
		if err != nil {
			continue
		}
		next.UserID = userID
		p = next
		p.UpdatedAt = ev.Timestamp
	}
	return p
}

// After 返回时间戳严格晚于 watermark 的交互；watermark 为零值时原样返回。
func After(evs []core.Interaction, watermark time.Time) []core.Interaction {
	if watermark.IsZero() {
		return evs
	}
	out := make([]core.Interaction, 0, len(evs))
	for _, ev := range evs {
		if ev.Timestamp.After(watermark) {
			out = append(out, ev)
		}
	}
	return out
}

// Ranked 是一个带分数的偏好项。
type Ranked struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// TopPreferences 是用于展示的偏好摘要。
type TopPreferences struct {
	Categories []Ranked `json:"categories"`
	Brands     []Ranked `json:"brands"`
	Colors     []Ranked `json:"colors"`
}

// Top 返回得分为正的前 5 个类别、前 5 个品牌、前 8 个颜色；同分按名称排序。
func Top(p *core.PreferenceProfile) TopPreferences {
	if p == nil {
		return TopPreferences{Categories: []Ranked{}, Brands: []Ranked{}, Colors: []Ranked{}}
	}
	return TopPreferences{
		Categories: topN(p.Categories, 5),
		Brands:     topN(p.Brands, 5),
		Colors:     topN(p.Colors, 8),
	}
}

func topN(scores map[string]float64, n int) []Ranked {
	out := make([]Ranked, 0, len(scores))
	for name, score := range scores {
		if score > 0 {
			out = append(out, Ranked{Name: name, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
