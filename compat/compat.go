// Package compat 计算两个用户之间的兼容度：喜欢物品集合的 Jaccard 相似度，取值 0~100。
package compat

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pkg/metrics"
)

// Result 是兼容度结果，每次按需计算，不缓存。
type Result struct {
	UserA              string   `json:"user_a"`
	UserB              string   `json:"user_b"`
	Score              int      `json:"score"`
	SharedLikedItemIDs []string `json:"shared_liked_item_ids"`
	TotalLikesA        int      `json:"total_likes_a"`
	TotalLikesB        int      `json:"total_likes_b"`
}

// Scorer 从交互日志读取双方的喜欢集合。
type Scorer struct {
	Interactions core.InteractionStore
}

// NewScorer 创建兼容度计算器。
func NewScorer(log core.InteractionStore) *Scorer {
	return &Scorer{Interactions: log}
}

// Compatibility 返回 a 与 b 的兼容度。
// 喜欢集合按每个物品的最终动作确定：先 like 后 pass 的物品不算喜欢。
// 结果对 a、b 对称；两人都没有喜欢时分数为 0。
func (s *Scorer) Compatibility(ctx context.Context, a, b string) (*Result, error) {
	if a == "" || b == "" {
		return nil, core.ErrInvalidRequest
	}
	metrics.CompatibilityRequests.Inc()

	var likesA, likesB core.IDSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		likesA, err = s.liked(gctx, a)
		return err
	})
	g.Go(func() error {
		var err error
		likesB, err = s.liked(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shared := make([]string, 0)
	for id := range likesA {
		if likesB.Has(id) {
			shared = append(shared, id)
		}
	}
	sort.Strings(shared)

	return &Result{
		UserA:              a,
		UserB:              b,
		Score:              Jaccard(len(shared), likesA.Len(), likesB.Len()),
		SharedLikedItemIDs: shared,
		TotalLikesA:        likesA.Len(),
		TotalLikesB:        likesB.Len(),
	}, nil
}

// Jaccard 把交集大小与两个集合大小换算为 0~100 的整数分。
func Jaccard(shared, sizeA, sizeB int) int {
	union := sizeA + sizeB - shared
	if union <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(shared) / float64(union)))
}

func (s *Scorer) liked(ctx context.Context, userID string) (core.IDSet, error) {
	evs, err := s.Interactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := core.NewIDSet()
	for itemID, act := range core.LatestActions(evs) {
		if act == core.ActionLike {
			out.Add(itemID)
		}
	}
	return out, nil
}
