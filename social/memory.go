// Package social 提供内存好友关系图。
package social

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/swipekit/core"
)

// Memory 是无向的已接受好友关系图。
type Memory struct {
	mu      sync.RWMutex
	friends map[string]map[string]struct{}
}

// NewMemory 创建好友关系图，pairs 中每一对视为已接受的好友关系。
func NewMemory(pairs ...[2]string) *Memory {
	g := &Memory{friends: make(map[string]map[string]struct{})}
	for _, p := range pairs {
		g.Accept(p[0], p[1])
	}
	return g
}

// Accept 记录双向好友关系，自己与自己忽略。
func (g *Memory) Accept(a, b string) {
	if a == "" || b == "" || a == b {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.link(a, b)
	g.link(b, a)
}

// Remove 删除好友关系。
func (g *Memory) Remove(a, b string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.friends[a], b)
	delete(g.friends[b], a)
}

func (g *Memory) link(a, b string) {
	set, ok := g.friends[a]
	if !ok {
		set = make(map[string]struct{})
		g.friends[a] = set
	}
	set[b] = struct{}{}
}

// AcceptedFriendsOf 返回按 ID 排序的好友列表。
func (g *Memory) AcceptedFriendsOf(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.friends[userID]))
	for id := range g.friends[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

var _ core.SocialGraph = (*Memory)(nil)
