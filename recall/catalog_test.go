package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/swipekit/catalog"
	"github.com/rushteam/swipekit/core"
)

type flakySource struct {
	err   error
	calls int
}

func (s *flakySource) Query(ctx context.Context, _ core.Filters, _ core.IDSet, _ int) ([]*core.Item, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, s.err
}

func TestCatalogRecallPassesContext(t *testing.T) {
	src := catalog.NewMemory(
		&core.Item{ID: "i1", Category: "A", Active: true},
		&core.Item{ID: "i2", Category: "B", Active: true},
		&core.Item{ID: "i3", Category: "A", Active: true},
		&core.Item{ID: "i4", Category: "A", Active: true},
	)
	r := NewCatalogRecall(src, DefaultBreakerConfig())
	r.Limit = 10

	rctx := &core.RecommendContext{
		Filters: core.Filters{Category: "A"},
		Seen:    core.NewIDSet("i1"),
		Params:  map[string]any{ParamLimit: 1},
	}
	out, err := r.Recall(context.Background(), rctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "i3", out[0].ID())
	assert.Equal(t, "catalog", out[0].Labels["recall_source"].Value)

	// 没有 Params 时使用默认 Limit
	rctx.Params = nil
	out, err = r.Process(context.Background(), rctx, nil)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestCatalogRecallUnavailable(t *testing.T) {
	boom := errors.New("connection refused")
	src := &flakySource{err: boom}
	r := NewCatalogRecall(src, BreakerConfig{Enabled: true, FailureThreshold: 2, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := r.Recall(context.Background(), &core.RecommendContext{})
		require.Error(t, err)
		assert.True(t, core.IsCatalogUnavailable(err))
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, r.State())

	// 熔断打开后不再访问候选源
	_, err := r.Recall(context.Background(), &core.RecommendContext{})
	assert.True(t, core.IsCatalogUnavailable(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, src.calls)
}

func TestCatalogRecallCanceled(t *testing.T) {
	src := &flakySource{}
	r := NewCatalogRecall(src, BreakerConfig{Enabled: true, FailureThreshold: 1, Timeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Recall(ctx, &core.RecommendContext{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsCatalogUnavailable(err))

	// 取消不计入熔断
	assert.Equal(t, gobreaker.StateClosed, r.State())
}

func TestCatalogRecallWithoutBreaker(t *testing.T) {
	r := NewCatalogRecall(&flakySource{err: errors.New("down")}, BreakerConfig{})
	_, err := r.Recall(context.Background(), nil)
	assert.True(t, core.IsCatalogUnavailable(err))
	assert.Equal(t, gobreaker.StateClosed, r.State())

	_, err = (&CatalogRecall{}).Recall(context.Background(), nil)
	assert.True(t, core.IsCatalogUnavailable(err))
}
