package builders_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/swipekit/catalog"
	"github.com/rushteam/swipekit/config"
	_ "github.com/rushteam/swipekit/config/builders"
	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/recall"
)

const extraNodes = `
pipeline:
  name: feed-extra
  nodes:
    - type: filter
      config:
        filters:
          - {type: blacklist, item_ids: [i2]}
          - {type: expr, expr: 'item.has_price && item.price <= 300.0'}
    - type: rerank.topn
      config:
        n: 2
`

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(extraNodes))
	require.NoError(t, err)
	require.NoError(t, config.ValidatePipelineConfig(cfg))

	p, err := cfg.BuildPipeline(config.DefaultFactory())
	require.NoError(t, err)
	require.Len(t, p.Nodes, 2)

	items := []*core.Candidate{
		core.NewCandidate(&core.Item{ID: "i1", Price: core.Price(100)}),
		core.NewCandidate(&core.Item{ID: "i2", Price: core.Price(100)}),
		core.NewCandidate(&core.Item{ID: "i3", Price: core.Price(900)}),
		core.NewCandidate(&core.Item{ID: "i4"}),
		core.NewCandidate(&core.Item{ID: "i5", Price: core.Price(10)}),
		core.NewCandidate(&core.Item{ID: "i6", Price: core.Price(20)}),
	}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, items)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "i1", out[0].ID())
	assert.Equal(t, "i5", out[1].ID())
}

func TestValidatePipelineConfigUnknownType(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - type: rank.lr\n"))
	require.NoError(t, err)
	err = config.ValidatePipelineConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rerank.coldstart")
}

func TestBuilderErrors(t *testing.T) {
	f := config.DefaultFactory()
	tests := []struct {
		name     string
		nodeType string
		cfg      map[string]interface{}
	}{
		{name: "filter without filters", nodeType: "filter", cfg: map[string]interface{}{}},
		{name: "unknown filter", nodeType: "filter", cfg: map[string]interface{}{
			"filters": []interface{}{map[string]interface{}{"type": "user_block"}},
		}},
		{name: "bad expr", nodeType: "filter", cfg: map[string]interface{}{
			"filters": []interface{}{map[string]interface{}{"type": "expr", "expr": "item.price <"}},
		}},
		{name: "negative topn", nodeType: "rerank.topn", cfg: map[string]interface{}{"n": -1}},
		{name: "zero per group", nodeType: "rerank.coldstart", cfg: map[string]interface{}{"per_group": 0}},
		{name: "unknown type", nodeType: "recall.hot", cfg: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Build(tt.nodeType, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestBuildScoreNodeOverrides(t *testing.T) {
	node, err := config.DefaultFactory().Build("rank.score", map[string]interface{}{"category": 5, "max_jitter": 0})
	require.NoError(t, err)
	assert.Equal(t, "rank.score", node.Name())
	assert.Equal(t, pipeline.KindRank, node.Kind())
}

func TestBuildExtraNodesRejectsRecall(t *testing.T) {
	config.Register("test.recall", func(map[string]interface{}) (pipeline.Node, error) {
		return recall.NewCatalogRecall(catalog.NewMemory(), recall.DefaultBreakerConfig()), nil
	})

	cfg, err := pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - type: test.recall\n"))
	require.NoError(t, err)
	_, err = config.BuildExtraNodes(cfg)
	assert.ErrorContains(t, err, "recall nodes cannot run after ranking")

	cfg, err = pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - config: {n: 1}\n"))
	require.NoError(t, err)
	_, err = config.BuildExtraNodes(cfg)
	assert.ErrorContains(t, err, "type is required")
}

func TestLoadExtraNodes(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "extra.yaml")
	jsonPath := filepath.Join(dir, "extra.JSON")
	require.NoError(t, os.WriteFile(yamlPath, []byte(extraNodes), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"pipeline":{"nodes":[{"type":"rerank.coldstart","config":{"per_group":1}}]}}`), 0o600))

	nodes, err := config.LoadExtraNodes(yamlPath)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, pipeline.KindFilter, nodes[0].Kind())

	nodes, err = config.LoadExtraNodes(jsonPath)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, pipeline.KindReRank, nodes[0].Kind())

	_, err = config.LoadExtraNodes(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
