package rerank

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/utils"
)

// DefaultPerGroup 是冷启动时每个 (类别, 品牌) 组最多保留的候选数。
const DefaultPerGroup = 2

// ColdStart 是冷启动多样性重排：没有偏好信号时，按 (类别, 品牌) 分组，
// 每组最多保留 PerGroup 个，再打乱。
//   - 组内保留候选源返回的先后顺序中的前 PerGroup 个
//   - 打乱后按类别轮转排列：前 k 个结果覆盖 min(k, 类别数) 个类别，截断后的页面仍然多样
//   - 空候选池返回空列表，不报错
//   - 写入 label：cold_start
type ColdStart struct {
	PerGroup int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewColdStart 创建冷启动重排节点，seed 固定时打乱结果可复现。
func NewColdStart(perGroup int, seed uint64) *ColdStart {
	return &ColdStart{
		PerGroup: perGroup,
		rng:      rand.New(rand.NewPCG(seed, seed^0xda942042e4dd58b5)),
	}
}

func (n *ColdStart) Name() string {
	return "rerank.coldstart"
}

func (n *ColdStart) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

type groupKey struct {
	category string
	brand    string
}

func (n *ColdStart) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) == 0 {
		return []*core.Candidate{}, nil
	}

	per := n.PerGroup
	if per <= 0 {
		per = DefaultPerGroup
	}

	counts := make(map[groupKey]int, len(items))
	byCategory := make(map[string][]*core.Candidate)
	var categories []string
	for _, c := range items {
		if c == nil || c.Item == nil {
			continue
		}
		k := groupKey{category: c.Item.Category, brand: c.Item.Brand}
		if counts[k] >= per {
			continue
		}
		counts[k]++
		c.PutLabel(utils.LabelColdStart, utils.NewLabel("true", "rerank"))
		if _, ok := byCategory[k.category]; !ok {
			categories = append(categories, k.category)
		}
		byCategory[k.category] = append(byCategory[k.category], c)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.shuffle(len(categories), func(i, j int) {
		categories[i], categories[j] = categories[j], categories[i]
	})
	for _, cat := range categories {
		bucket := byCategory[cat]
		n.shuffle(len(bucket), func(i, j int) {
			bucket[i], bucket[j] = bucket[j], bucket[i]
		})
	}

	out := make([]*core.Candidate, 0, len(items))
	for round := 0; ; round++ {
		added := false
		for _, cat := range categories {
			if bucket := byCategory[cat]; round < len(bucket) {
				out = append(out, bucket[round])
				added = true
			}
		}
		if !added {
			break
		}
	}
	return out, nil
}

// shuffle 调用方持有 n.mu。
func (n *ColdStart) shuffle(size int, swap func(i, j int)) {
	if n.rng == nil {
		n.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	n.rng.Shuffle(size, swap)
}
