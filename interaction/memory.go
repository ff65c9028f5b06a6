// Package interaction 提供交互日志（InteractionStore）的实现。
//
// 日志只追加；幂等键 user+item+timestamp 在存储边界去重，
// 同一事件重放（客户端重试、多设备）只会被记录一次。
package interaction

import (
	"context"
	"sync"

	"github.com/rushteam/swipekit/core"
)

// MemoryLog 是内存交互日志，适合测试与单机开发。
type MemoryLog struct {
	mu     sync.RWMutex
	byUser map[string][]core.Interaction
	keys   map[string]struct{}
}

// NewMemoryLog 创建内存交互日志。
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		byUser: make(map[string][]core.Interaction),
		keys:   make(map[string]struct{}),
	}
}

func (l *MemoryLog) Append(ctx context.Context, ev core.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ev.Action.Valid() {
		return core.ErrInvalidAction.With(ev.UserID, ev.ItemID, string(ev.Action))
	}

	key := ev.IdempotencyKey()
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.keys[key]; ok {
		return core.ErrDuplicateInteraction.With(ev.UserID, ev.ItemID, string(ev.Action))
	}
	l.keys[key] = struct{}{}
	l.byUser[ev.UserID] = append(l.byUser[ev.UserID], ev)
	return nil
}

func (l *MemoryLog) ListByUser(ctx context.Context, userID string, actions ...core.Action) ([]core.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	evs := l.byUser[userID]
	out := make([]core.Interaction, 0, len(evs))
	for _, ev := range evs {
		if matchAction(ev.Action, actions) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Len 返回日志总条数。
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keys)
}

func matchAction(a core.Action, actions []core.Action) bool {
	if len(actions) == 0 {
		return true
	}
	for _, want := range actions {
		if a == want {
			return true
		}
	}
	return false
}

var _ core.InteractionStore = (*MemoryLog)(nil)
