package rank

import (
	"context"
	"sort"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/utils"
)

// ScoreNode 是偏好打分的排序 Node。
//   - 从 rctx 读取画像、好友信号与曝光集合
//   - 写入 Score / Breakdown 与 label：rank_model
//   - 按总分降序稳定排序
type ScoreNode struct {
	Scorer *Scorer
}

func (n *ScoreNode) Name() string        { return "rank.score" }
func (n *ScoreNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ScoreNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.Scorer == nil || len(items) == 0 {
		return items, nil
	}

	var (
		p  *core.PreferenceProfile
		sc ScoreContext
	)
	if rctx != nil {
		p = rctx.Profile
		sc = ScoreContext{
			FriendCount:   rctx.FriendCount,
			FriendLikes:   rctx.FriendLikes,
			RecentlyShown: rctx.RecentlyShown,
		}
	}

	for _, c := range items {
		if c == nil || c.Item == nil {
			continue
		}
		c.Breakdown = n.Scorer.Score(c.Item, p, sc)
		c.Score = c.Breakdown.Total()
		c.PutLabel(utils.LabelRankModel, utils.NewLabel("preference", "rank"))
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
