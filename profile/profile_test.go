package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/swipekit/core"
)

func activewear(id string, price float64) *core.Item {
	return &core.Item{
		ID: id, Category: "Activewear", Brand: "Vuori", Price: core.Price(price),
		Colors: []string{"black"}, Tags: []string{"summer", "gym"}, Active: true,
	}
}

func TestUpdateWeights(t *testing.T) {
	item := activewear("i1", 90)
	tests := []struct {
		name   string
		action core.Action
		want   float64
	}{
		{name: "save", action: core.ActionSave, want: 3},
		{name: "like", action: core.ActionLike, want: 2},
		{name: "pass", action: core.ActionPass, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Update(Reset("u1"), item, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Categories["Activewear"])
			assert.Equal(t, tt.want, p.Brands["Vuori"])
			assert.Equal(t, tt.want, p.Colors["black"])
			assert.Equal(t, tt.want, p.Tags["summer"])
			assert.Equal(t, tt.want, p.Tags["gym"])
			assert.Equal(t, 1, p.CategoryCounts["Activewear"])
			assert.Equal(t, 1, p.BrandCounts["Vuori"])
			assert.Equal(t, 1, p.Interactions)
		})
	}
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	before := Reset("u1")
	after, err := Update(before, activewear("i1", 90), core.ActionLike)
	require.NoError(t, err)

	assert.True(t, before.Empty())
	assert.Empty(t, before.Categories)
	assert.Nil(t, before.PriceBounds)
	assert.Equal(t, 2.0, after.Categories["Activewear"])
}

func TestUpdateMonotonicFromHistory(t *testing.T) {
	// 已有正负混合的历史，单次交互只按动作方向移动对应类别与品牌
	base := Reset("u1")
	history := []struct {
		item   *core.Item
		action core.Action
	}{
		{activewear("a1", 90), core.ActionLike},
		{activewear("a2", 120), core.ActionPass},
		{&core.Item{ID: "f1", Category: "Formal", Brand: "Hugo Boss", Price: core.Price(400), Active: true}, core.ActionSave},
		{&core.Item{ID: "f2", Category: "Formal", Brand: "Vuori", Price: core.Price(300), Active: true}, core.ActionPass},
		{&core.Item{ID: "s1", Category: "Shoes", Brand: "Nike", Price: core.Price(80), Active: true}, core.ActionPass},
	}
	for _, h := range history {
		var err error
		base, err = Update(base, h.item, h.action)
		require.NoError(t, err)
	}
	require.False(t, base.Empty())

	targets := []*core.Item{
		activewear("a3", 95),
		{ID: "f3", Category: "Formal", Brand: "Hugo Boss", Price: core.Price(410), Active: true},
		{ID: "s2", Category: "Shoes", Brand: "Nike", Price: core.Price(85), Active: true},
		{ID: "n1", Category: "Hats", Brand: "Kangol", Price: core.Price(30), Active: true},
	}
	for _, it := range targets {
		t.Run(it.ID, func(t *testing.T) {
			cat, brand := base.CategoryScore(it.Category), base.BrandScore(it.Brand)

			for _, action := range []core.Action{core.ActionLike, core.ActionSave} {
				p, err := Update(base, it, action)
				require.NoError(t, err)
				assert.Greater(t, p.CategoryScore(it.Category), cat, action)
				assert.Greater(t, p.BrandScore(it.Brand), brand, action)
			}

			p, err := Update(base, it, core.ActionPass)
			require.NoError(t, err)
			assert.Less(t, p.CategoryScore(it.Category), cat)
			assert.Less(t, p.BrandScore(it.Brand), brand)

			// 其他类别与品牌不受影响
			for other, v := range base.Categories {
				if other != it.Category {
					assert.Equal(t, v, p.CategoryScore(other), other)
				}
			}
			for other, v := range base.Brands {
				if other != it.Brand {
					assert.Equal(t, v, p.BrandScore(other), other)
				}
			}
		})
	}
}

func TestUpdateInvalid(t *testing.T) {
	p := Reset("u1")
	_, err := Update(p, activewear("i1", 90), core.Action("banana"))
	assert.True(t, core.IsInvalidAction(err))

	_, err = Update(p, nil, core.ActionLike)
	assert.True(t, core.IsItemNotFound(err))
}

func TestUpdatePrice(t *testing.T) {
	t.Run("pass does not move price", func(t *testing.T) {
		p, err := Update(Reset("u1"), activewear("i1", 90), core.ActionPass)
		require.NoError(t, err)
		assert.Zero(t, p.PriceAffinity)
		assert.Nil(t, p.PriceBounds)
	})

	t.Run("missing price does not move price", func(t *testing.T) {
		it := activewear("i1", 0)
		it.Price = nil
		p, err := Update(Reset("u1"), it, core.ActionSave)
		require.NoError(t, err)
		assert.Zero(t, p.PriceAffinity)
		assert.Nil(t, p.PriceBounds)
	})

	t.Run("first positive seeds affinity and bounds", func(t *testing.T) {
		p, err := Update(Reset("u1"), activewear("i1", 90), core.ActionLike)
		require.NoError(t, err)
		assert.Equal(t, 90.0, p.PriceAffinity)
		require.NotNil(t, p.PriceBounds)
		assert.Equal(t, core.PriceBounds{Min: 40, Max: 190}, *p.PriceBounds)
	})

	t.Run("bounds floor at zero", func(t *testing.T) {
		p, err := Update(Reset("u1"), activewear("i1", 20), core.ActionLike)
		require.NoError(t, err)
		assert.Equal(t, core.PriceBounds{Min: 0, Max: 120}, *p.PriceBounds)
	})

	t.Run("later positives blend and only widen", func(t *testing.T) {
		p, err := Update(Reset("u1"), activewear("i1", 90), core.ActionLike)
		require.NoError(t, err)
		p, err = Update(p, activewear("i2", 100), core.ActionLike)
		require.NoError(t, err)

		// (90*90 + 100*2) / (90 + 2)
		assert.InDelta(t, 8300.0/92.0, p.PriceAffinity, 1e-9)
		assert.Equal(t, core.PriceBounds{Min: 40, Max: 200}, *p.PriceBounds)

		p, err = Update(p, activewear("i3", 95), core.ActionSave)
		require.NoError(t, err)
		assert.Equal(t, core.PriceBounds{Min: 40, Max: 200}, *p.PriceBounds)

		p, err = Update(p, activewear("i4", 30), core.ActionSave)
		require.NoError(t, err)
		assert.Equal(t, core.PriceBounds{Min: 0, Max: 200}, *p.PriceBounds)
	})
}

func TestReplayDeterministic(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	items := map[string]*core.Item{
		"i1": activewear("i1", 90),
		"i2": activewear("i2", 120),
		"i3": {ID: "i3", Category: "Formal", Brand: "Hugo Boss", Price: core.Price(400), Colors: []string{"grey"}},
	}
	evs := []core.Interaction{
		{UserID: "u1", ItemID: "i2", Action: core.ActionSave, Timestamp: base.Add(2 * time.Minute)},
		{UserID: "u1", ItemID: "i1", Action: core.ActionLike, Timestamp: base},
		{UserID: "u1", ItemID: "gone", Action: core.ActionLike, Timestamp: base.Add(time.Minute)},
		{UserID: "u1", ItemID: "i3", Action: core.ActionPass, Timestamp: base.Add(3 * time.Minute)},
	}

	first := Replay("u1", evs, items)
	second := Replay("u1", evs, items)
	assert.Equal(t, first, second)

	// 与按时间顺序手动 Update 的结果一致
	manual := Reset("u1")
	for _, id := range []string{"i1", "i2", "i3"} {
		var action core.Action
		for _, ev := range evs {
			if ev.ItemID == id {
				action = ev.Action
			}
		}
		next, err := Update(manual, items[id], action)
		require.NoError(t, err)
		manual = next
	}
	manual.UserID = "u1"
	manual.UpdatedAt = base.Add(3 * time.Minute)
	assert.Equal(t, manual, first)

	assert.Equal(t, 3, first.Interactions)
	// 90 作为初值，再与 save 120 混合
	assert.InDelta(t, (90.0*90.0+120.0*3.0)/93.0, first.PriceAffinity, 1e-9)
	assert.Equal(t, -1.0, first.Categories["Formal"])
	assert.NotContains(t, first.Categories, "")

	// 输入切片不被排序
	assert.Equal(t, "i2", evs[0].ItemID)
}

func TestReplayEmpty(t *testing.T) {
	p := Replay("u1", nil, nil)
	assert.True(t, p.Empty())
	assert.Equal(t, "u1", p.UserID)
}

func TestAfter(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	evs := []core.Interaction{
		{ItemID: "a", Timestamp: base.Add(-time.Second)},
		{ItemID: "b", Timestamp: base},
		{ItemID: "c", Timestamp: base.Add(time.Second)},
	}
	assert.Len(t, After(evs, time.Time{}), 3)

	got := After(evs, base)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ItemID)
}

func TestTop(t *testing.T) {
	p := Reset("u1")
	p.Categories = map[string]float64{"A": 3, "B": 5, "C": 3, "D": -1, "E": 0, "F": 1, "G": 2, "H": 1}
	p.Brands = map[string]float64{"x": 2}
	for i, c := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9"} {
		p.Colors[c] = float64(10 - i)
	}

	top := Top(p)
	assert.Equal(t, []Ranked{
		{Name: "B", Score: 5},
		{Name: "A", Score: 3},
		{Name: "C", Score: 3},
		{Name: "G", Score: 2},
		{Name: "F", Score: 1},
	}, top.Categories)
	assert.Equal(t, []Ranked{{Name: "x", Score: 2}}, top.Brands)
	assert.Len(t, top.Colors, 8)
	assert.Equal(t, "c1", top.Colors[0].Name)

	empty := Top(nil)
	assert.Empty(t, empty.Categories)
	assert.NotNil(t, empty.Brands)
}
