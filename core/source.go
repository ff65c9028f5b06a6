package core

import "context"

// Filters 是 feed 请求的显式过滤条件，只缩小候选池，不改变打分公式。
type Filters struct {
	Category string   `json:"category,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Gender   string   `json:"gender,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`

	// After 是扫描位置：从目录顺序中该 ID 之后继续扫描。
	// 只在一次 feed 组装内部分批召回时使用，不对外暴露
	After string `json:"-"`

	// Expr 是 CEL 表达式，例如 `item.price < 100.0 && "summer" in item.tags`
	Expr string `json:"expr,omitempty"`
}

// Match 判断物品是否满足结构化过滤条件（不含 After / Expr）。
func (f Filters) Match(it *Item) bool {
	if it == nil {
		return false
	}
	if f.Category != "" && it.Category != f.Category {
		return false
	}
	if f.Brand != "" && it.Brand != f.Brand {
		return false
	}
	if f.Gender != "" && it.Gender != f.Gender {
		return false
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		if it.Price == nil {
			return false
		}
		if f.MinPrice != nil && *it.Price < *f.MinPrice {
			return false
		}
		if f.MaxPrice != nil && *it.Price > *f.MaxPrice {
			return false
		}
	}
	return true
}

// CandidateSource 是候选池的领域接口（目录查询层）。
//
// 实现：
//   - catalog.Memory 实现此接口
//   - SQL / ES 等目录后端也可以实现此接口
type CandidateSource interface {
	// Query 返回满足过滤条件、在售且不在 exclude 中的物品，最多 limit 个
	Query(ctx context.Context, filters Filters, exclude IDSet, limit int) ([]*Item, error)
}

// ItemLookup 按 ID 批量读取物品（包含已下架物品，供画像重放使用）。
type ItemLookup interface {
	GetItems(ctx context.Context, ids []string) (map[string]*Item, error)
}

// Catalog 同时提供候选查询与按 ID 读取。
type Catalog interface {
	CandidateSource
	ItemLookup
}

// InteractionStore 是交互日志的领域接口，引擎只读取与追加，不拥有其存储格式。
//
// 实现：
//   - interaction.MemoryLog 实现此接口
//   - interaction.SQLiteLog 实现此接口
type InteractionStore interface {
	// Append 追加一条事件；幂等键重复时返回 ErrDuplicateInteraction
	Append(ctx context.Context, ev Interaction) error

	// ListByUser 按写入顺序返回用户的事件，actions 为空表示全部动作
	ListByUser(ctx context.Context, userID string, actions ...Action) ([]Interaction, error)
}

// SocialGraph 提供已接受的好友关系，用于社交加权。
type SocialGraph interface {
	AcceptedFriendsOf(ctx context.Context, userID string) ([]string, error)
}
