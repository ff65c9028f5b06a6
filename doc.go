// Package swipekit 是基于滑动交互（like / pass / save）的个性化排序引擎。
//
// 设计要点：
//   - 画像 = 交互日志的确定性投影：缓存（有状态）与重放（无状态）结果一致
//   - Pipeline-first：feed 组装由 Node 串联（召回 → 过滤 → 冷启动或打分 → 截断）
//   - Labels-first：标签全链路透传，便于解释排序结果
//
// 轻量 facade，便于直接 import "swipekit" 使用引擎：
//
//	eng, err := swipekit.Open(ctx, swipekit.DefaultConfig())
//	_ = eng.RecordInteraction(ctx, swipekit.Interaction{UserID: "u1", ItemID: "i1", Action: swipekit.ActionLike})
//	page, err := eng.GetFeed(ctx, swipekit.FeedRequest{UserID: "u1"})
package swipekit

import (
	"context"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/engine"
	"github.com/rushteam/swipekit/feed"
)

type (
	Engine      = engine.Engine
	Config      = engine.Config
	Deps        = engine.Deps
	Interaction = core.Interaction
	Action      = core.Action
	Item        = core.Item
	FeedRequest = feed.Request
	FeedPage    = feed.Page
)

const (
	ActionLike = core.ActionLike
	ActionPass = core.ActionPass
	ActionSave = core.ActionSave
)

// DefaultConfig 返回全内存的默认配置。
func DefaultConfig() *Config {
	return engine.DefaultConfig()
}

// LoadConfig 从 YAML 文件与 SWIPEKIT_* 环境变量加载配置。
func LoadConfig(path string) (*Config, error) {
	return engine.LoadConfig(path)
}

// Open 按配置创建引擎。
func Open(ctx context.Context, cfg *Config) (*Engine, error) {
	return engine.Open(ctx, cfg)
}

// New 用自定义的目录、交互日志与存储创建引擎。
func New(cfg *Config, deps Deps) (*Engine, error) {
	return engine.New(cfg, deps)
}
