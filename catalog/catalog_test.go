package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/swipekit/core"
)

func testItems() []*core.Item {
	return []*core.Item{
		{ID: "i1", Category: "Activewear", Brand: "Vuori", Gender: "women", Price: core.Price(90), Active: true},
		{ID: "i2", Category: "Activewear", Brand: "Vuori", Gender: "men", Price: core.Price(95), Active: true},
		{ID: "i3", Category: "Formal", Brand: "Hugo Boss", Gender: "men", Price: core.Price(400), Active: true},
		{ID: "i4", Category: "Formal", Brand: "Hugo Boss", Active: false},
		{ID: "i5", Category: "Shoes", Brand: "Nike", Active: true},
	}
}

func TestMemoryQuery(t *testing.T) {
	m := NewMemory(testItems()...)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters core.Filters
		exclude core.IDSet
		limit   int
		want    []string
	}{
		{name: "all active in order", want: []string{"i1", "i2", "i3", "i5"}},
		{name: "limit", limit: 2, want: []string{"i1", "i2"}},
		{name: "exclude", exclude: core.NewIDSet("i1", "i3"), want: []string{"i2", "i5"}},
		{name: "category", filters: core.Filters{Category: "Formal"}, want: []string{"i3"}},
		{name: "brand and gender", filters: core.Filters{Brand: "Vuori", Gender: "men"}, want: []string{"i2"}},
		{name: "price range drops unpriced", filters: core.Filters{MinPrice: core.Price(91)}, want: []string{"i2", "i3"}},
		{name: "max price", filters: core.Filters{MaxPrice: core.Price(92)}, want: []string{"i1"}},
		{name: "after cursor", filters: core.Filters{After: "i2"}, want: []string{"i3", "i5"}},
		{name: "unknown cursor restarts", filters: core.Filters{After: "zz"}, limit: 1, want: []string{"i1"}},
		{name: "exclude applies before limit", exclude: core.NewIDSet("i1"), limit: 2, want: []string{"i2", "i3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Query(ctx, tt.filters, tt.exclude, tt.limit)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, it := range got {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryGetItemsIncludesInactive(t *testing.T) {
	m := NewMemory(testItems()...)
	got, err := m.GetItems(context.Background(), []string{"i4", "i1", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.False(t, got["i4"].Active)
	assert.Contains(t, got, "i1")
}

func TestMemoryPutReplacesInPlace(t *testing.T) {
	m := NewMemory(testItems()...)
	m.Put(&core.Item{ID: "i1", Category: "Shoes", Active: true})

	assert.Equal(t, 5, m.Len())
	it, ok := m.Get("i1")
	require.True(t, ok)
	assert.Equal(t, "Shoes", it.Category)

	got, err := m.Query(context.Background(), core.Filters{}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "i1", got[0].ID)
}

func TestMemoryQueryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory(testItems()...).Query(ctx, core.Filters{}, nil, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFixture(t *testing.T) {
	data := []byte(`
items:
  - id: i1
    category: Activewear
    brand: Vuori
    price: 90
    colors: [black, navy]
    tags: [summer]
    group_id: g1
  - id: i2
    category: Formal
    brand: Hugo Boss
    active: false
friends:
  - [alice, bob]
interactions:
  - {user: alice, item: i1, action: LIKE, at: 2026-01-01T12:00:00Z}
`)
	fx, err := ParseFixture(data)
	require.NoError(t, err)

	require.Len(t, fx.Items, 2)
	assert.True(t, fx.Items[0].Active)
	assert.Equal(t, 90.0, fx.Items[0].PriceValue())
	assert.Equal(t, []string{"black", "navy"}, fx.Items[0].Colors)
	assert.Equal(t, "group:g1", fx.Items[0].GroupKey())
	assert.False(t, fx.Items[1].Active)
	assert.False(t, fx.Items[1].HasPrice())

	assert.Equal(t, [][2]string{{"alice", "bob"}}, fx.Friends)
	require.Len(t, fx.Interactions, 1)
	assert.Equal(t, core.ActionLike, fx.Interactions[0].Action)

	assert.Equal(t, 2, fx.Catalog().Len())
}

func TestParseFixtureErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing id", data: "items:\n  - category: x\n"},
		{name: "duplicate id", data: "items:\n  - id: a\n  - id: a\n"},
		{name: "negative price", data: "items:\n  - id: a\n    price: -1\n"},
		{name: "bad friend pair", data: "friends:\n  - [alice]\n"},
		{name: "bad action", data: "interactions:\n  - {user: a, item: b, action: banana}\n"},
		{name: "not yaml", data: "items: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
