// Package config 维护可由配置文件声明的 Node 类型，并把附加节点配置构建为 Node 列表。
//
// 内置类型（filter、rank.score、rerank.topn、rerank.coldstart）在 config/builders 的 init 中注册，
// 使用方需空导入该包；engine 包已导入。
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/swipekit/pipeline"
)

// NodeBuilder 根据节点配置构建 Node。
type NodeBuilder = pipeline.NodeBuilder

var (
	buildersMu sync.RWMutex
	builders   = make(map[string]NodeBuilder)
)

// Register 注册一种 Node 类型，同名类型后注册的覆盖先注册的。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[typeName] = builder
}

// SupportedTypes 返回已注册的类型（排序），用于错误提示。
func SupportedTypes() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	types := make([]string, 0, len(builders))
	for t := range builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回包含全部已注册类型的 NodeFactory 快照。
func DefaultFactory() *pipeline.NodeFactory {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range builders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验所有节点类型均已注册。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return fmt.Errorf("node %d: type is required", i)
		}
		buildersMu.RLock()
		_, ok := builders[nc.Type]
		buildersMu.RUnlock()
		if !ok {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, SupportedTypes())
		}
	}
	return nil
}

// BuildExtraNodes 构建排序之后、分页截断之前执行的附加节点。
// 附加节点作用于已召回的候选，不允许出现召回阶段的节点。
func BuildExtraNodes(cfg *pipeline.Config) ([]pipeline.Node, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	p, err := cfg.BuildPipeline(DefaultFactory())
	if err != nil {
		return nil, err
	}
	for _, n := range p.Nodes {
		if n.Kind() == pipeline.KindRecall {
			return nil, fmt.Errorf("node %s: recall nodes cannot run after ranking", n.Name())
		}
	}
	return p.Nodes, nil
}

// LoadExtraNodes 读取附加节点配置文件：.json 按 JSON 解析，其余按 YAML。
func LoadExtraNodes(path string) ([]pipeline.Node, error) {
	load := pipeline.LoadFromYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		load = pipeline.LoadFromJSON
	}
	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	return BuildExtraNodes(cfg)
}
