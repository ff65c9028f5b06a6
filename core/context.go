package core

import "github.com/rushteam/swipekit/pkg/utils"

// RecommendContext 承载一次 feed 请求的用户/社交/曝光信息，贯穿整个 Pipeline 透传。
// 只在单次请求内有效，不跨请求持久化。
type RecommendContext struct {
	UserID    string
	RequestID string

	// Profile 是用户偏好画像，冷启动时为空画像
	Profile *PreferenceProfile

	// Filters 是本次请求的显式过滤条件
	Filters Filters

	// Seen 是用户已交互过（like/pass/save）的物品集合
	Seen IDSet

	// FriendCount 是已接受好友数，FriendLikes 是每个物品被好友喜欢的次数
	FriendCount int
	FriendLikes map[string]int

	// RecentlyShown 是窗口期内已曝光的物品 ID 与近似重复分组 key
	RecentlyShown IDSet

	// Labels 是用户级标签，可驱动整个 Pipeline 行为（例如 cold_start）
	Labels map[string]utils.Label

	// Params 请求级上下文参数，可在 CEL 表达式中通过 rctx.params 访问
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
