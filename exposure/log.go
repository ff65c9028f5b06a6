// Package exposure 记录物品向用户的曝光（展示）历史，供打分的时间衰减惩罚使用。
//
// 曝光与交互不同：物品出现在某一页 feed 中即算曝光，用户未必滑动过它。
// 已交互物品由 seen 集合直接排除；只曝光未交互的物品会带着惩罚重新出现。
package exposure

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rushteam/swipekit/core"
)

// DefaultKeyPrefix 是曝光有序集合的 key 前缀，实际 key 为 {prefix}:{userID}。
const DefaultKeyPrefix = "user:exposed"

// Log 是基于有序集合的曝光日志：member 为物品 ID 或分组 key，score 为曝光时间（毫秒）。
// 写入时顺带清理窗口外的记录。
type Log struct {
	Store     core.KeyValueStore
	KeyPrefix string
	Window    time.Duration
	Now       func() time.Time
}

// NewLog 创建曝光日志。
func NewLog(kv core.KeyValueStore, window time.Duration) *Log {
	return &Log{
		Store:     kv,
		KeyPrefix: DefaultKeyPrefix,
		Window:    window,
		Now:       time.Now,
	}
}

func (l *Log) key(userID string) string {
	prefix := l.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return prefix + ":" + userID
}

func (l *Log) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// Record 记录一批物品的曝光。物品有 GroupID 时同时记录分组 key，近似重复款式一并受惩罚。
func (l *Log) Record(ctx context.Context, userID string, items []*core.Item) error {
	if len(items) == 0 {
		return nil
	}
	now := l.now()
	key := l.key(userID)

	for _, it := range items {
		if it == nil {
			continue
		}
		if err := l.Store.ZAdd(ctx, key, score(now), it.ID); err != nil {
			return fmt.Errorf("record exposure: %w", err)
		}
		if gk := it.GroupKey(); gk != "" {
			if err := l.Store.ZAdd(ctx, key, score(now), gk); err != nil {
				return fmt.Errorf("record exposure: %w", err)
			}
		}
	}

	if l.Window > 0 {
		// 与 Recent 的下界一致：恰好落在窗口边界上的记录保留
		cutoff := score(now.Add(-l.Window)) - 1
		if err := l.Store.ZRemRangeByScore(ctx, key, math.Inf(-1), cutoff); err != nil {
			return fmt.Errorf("trim exposure: %w", err)
		}
	}
	return nil
}

// Recent 返回窗口内曝光过的物品 ID 与分组 key。
func (l *Log) Recent(ctx context.Context, userID string) (core.IDSet, error) {
	lo := math.Inf(-1)
	if l.Window > 0 {
		lo = score(l.now().Add(-l.Window))
	}
	members, err := l.Store.ZRangeByScore(ctx, l.key(userID), lo, math.Inf(1))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return core.NewIDSet(), nil
		}
		return nil, fmt.Errorf("read exposure: %w", err)
	}
	return core.NewIDSet(members...), nil
}
