package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/swipekit/core"
)

type stepNode struct {
	name string
	fn   func([]*core.Candidate) ([]*core.Candidate, error)
}

func (n *stepNode) Name() string { return n.name }
func (n *stepNode) Kind() Kind   { return KindFilter }
func (n *stepNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	return n.fn(items)
}

func appendItem(id string) *stepNode {
	return &stepNode{name: "append." + id, fn: func(in []*core.Candidate) ([]*core.Candidate, error) {
		return append(in, core.NewCandidate(&core.Item{ID: id})), nil
	}}
}

func ids(cs []*core.Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Item.ID)
	}
	return out
}

func TestPipelineRunOrder(t *testing.T) {
	p := &Pipeline{Nodes: []Node{appendItem("a"), appendItem("b")}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(out))
}

func TestPipelineAppendDoesNotMutate(t *testing.T) {
	base := &Pipeline{Nodes: []Node{appendItem("a")}}
	ext := base.Append(appendItem("b"))
	assert.Len(t, base.Nodes, 1)
	assert.Len(t, ext.Nodes, 2)

	out, err := ext.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(out))
}

func TestPipelineRunError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	p := &Pipeline{Nodes: []Node{
		&stepNode{name: "broken", fn: func([]*core.Candidate) ([]*core.Candidate, error) { return nil, boom }},
		&stepNode{name: "after", fn: func(in []*core.Candidate) ([]*core.Candidate, error) {
			called = true
			return in, nil
		}},
	}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
	assert.False(t, called)
}

func TestPipelineRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Nodes: []Node{appendItem("a")}}
	_, err := p.Run(ctx, &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

const yamlConfig = `
pipeline:
  name: feed-extra
  nodes:
    - type: step
      config:
        id: x
    - type: step
      config:
        id: y
`

const jsonConfig = `{"pipeline":{"name":"feed-extra","nodes":[{"type":"step","config":{"id":"x"}}]}}`

func stepFactory() *NodeFactory {
	f := NewNodeFactory()
	f.Register("step", func(cfg map[string]interface{}) (Node, error) {
		id, _ := cfg["id"].(string)
		if id == "" {
			return nil, errors.New("id required")
		}
		return appendItem(id), nil
	})
	return f
}

func TestLoadAndBuild(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "pipeline.yaml")
	jsonPath := filepath.Join(dir, "pipeline.json")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlConfig), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonConfig), 0o600))

	cfg, err := LoadFromYAML(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "feed-extra", cfg.Pipeline.Name)
	require.Len(t, cfg.Pipeline.Nodes, 2)

	p, err := cfg.BuildPipeline(stepFactory())
	require.NoError(t, err)
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids(out))

	jcfg, err := LoadFromJSON(jsonPath)
	require.NoError(t, err)
	require.Len(t, jcfg.Pipeline.Nodes, 1)
	assert.Equal(t, "x", jcfg.Pipeline.Nodes[0].Config["id"])

	_, err = LoadFromYAML(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildPipelineErrors(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  nodes:
    - type: unknown
`))
	require.NoError(t, err)
	_, err = cfg.BuildPipeline(stepFactory())
	assert.ErrorContains(t, err, "unknown node type")

	cfg, err = ParseYAML([]byte(`
pipeline:
  nodes:
    - type: step
`))
	require.NoError(t, err)
	_, err = cfg.BuildPipeline(stepFactory())
	assert.ErrorContains(t, err, "id required")

	_, err = ParseYAML([]byte("pipeline: ["))
	assert.Error(t, err)
}
