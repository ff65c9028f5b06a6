package core

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Action 是用户对物品的交互动作。
type Action string

const (
	ActionLike Action = "like"
	ActionPass Action = "pass"
	ActionSave Action = "save"
)

// 动作权重是固定常量：save 最强的正向信号，pass 为负向信号。
const (
	WeightSave = 3.0
	WeightLike = 2.0
	WeightPass = -1.0
)

// Actions 返回全部合法动作。
func Actions() []Action {
	return []Action{ActionLike, ActionPass, ActionSave}
}

// ParseAction 解析动作字符串，未知动作返回 ErrInvalidAction。
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", ErrInvalidAction.With("", "", s)
	}
	return a, nil
}

// Valid 判断动作是否合法。
func (a Action) Valid() bool {
	switch a {
	case ActionLike, ActionPass, ActionSave:
		return true
	}
	return false
}

// Weight 返回动作权重；非法动作返回 (0, false)。
func (a Action) Weight() (float64, bool) {
	switch a {
	case ActionSave:
		return WeightSave, true
	case ActionLike:
		return WeightLike, true
	case ActionPass:
		return WeightPass, true
	}
	return 0, false
}

// Interaction 是一次 like/pass/save 记录，只追加。
type Interaction struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// IdempotencyKey 返回幂等键 user+item+timestamp。
func (ev Interaction) IdempotencyKey() string {
	return ev.UserID + "|" + ev.ItemID + "|" + strconv.FormatInt(ev.Timestamp.UnixNano(), 10)
}

// SortInteractions 按时间升序稳定排序，时间相同保持写入顺序。
func SortInteractions(evs []Interaction) {
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].Timestamp.Before(evs[j].Timestamp)
	})
}

// LatestActions 按 last-write-wins 返回每个物品的最终动作。
func LatestActions(evs []Interaction) map[string]Action {
	sorted := make([]Interaction, len(evs))
	copy(sorted, evs)
	SortInteractions(sorted)

	out := make(map[string]Action, len(sorted))
	for _, ev := range sorted {
		out[ev.ItemID] = ev.Action
	}
	return out
}
