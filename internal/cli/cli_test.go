package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/swipekit/compat"
	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/feed"
)

const fixture = `
items:
  - {id: i1, category: Activewear, brand: Vuori, price: 90, colors: [black]}
  - {id: i2, category: Activewear, brand: Vuori, price: 120, colors: [black]}
  - {id: i3, category: Formal, brand: Hugo Boss, price: 400}
friends:
  - [alice, bob]
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	fx := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(fx, []byte(fixture), 0o600))

	cfg := filepath.Join(dir, "swipekit.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
log:
  level: disabled
scoring:
  seed: 1
  weights:
    max_jitter: 0
interactions:
  type: sqlite
  path: `+filepath.Join(dir, "interactions.db")+`
catalog:
  fixture: `+fx+`
`), 0o600))
	t.Setenv("SWIPEKIT_CONFIG", "")
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRecordFeedCompat(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, "--config", cfg, "record", "alice", "i1", "like", "--at", "2026-01-01T12:00:00Z")
	require.NoError(t, err)
	var p core.PreferenceProfile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 1, p.Interactions)
	assert.Equal(t, 2.0, p.Categories["Activewear"])

	_, err = run(t, "--config", cfg, "record", "bob", "i1", "LIKE", "--at", "2026-01-01T12:00:00Z")
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "feed", "alice", "--size", "5")
	require.NoError(t, err)
	var page feed.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.False(t, page.ColdStart)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "i2", page.Items[0].Item.ID)

	out, err = run(t, "--config", cfg, "compat", "alice", "bob")
	require.NoError(t, err)
	var res compat.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, []string{"i1"}, res.SharedLikedItemIDs)
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, "--config", cfg, "record", "alice", "i1", "banana")
	require.Error(t, err)
	assert.True(t, core.IsInvalidAction(err))
}

func TestFeedFilterFlags(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, "--config", cfg, "feed", "carol", "--category", "Activewear", "--max-price", "100")
	require.NoError(t, err)
	var page feed.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.True(t, page.ColdStart)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "i1", page.Items[0].Item.ID)

	_, err = run(t, "--config", cfg, "feed", "carol", "--min-price", "200", "--max-price", "100")
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestProfileTopAndReset(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, "--config", cfg, "record", "alice", "i1", "save", "--at", "2026-01-01T12:00:00Z")
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "profile", "alice", "--top")
	require.NoError(t, err)
	assert.Contains(t, out, "Activewear")
	assert.Contains(t, out, "black")

	out, err = run(t, "--config", cfg, "reset", "alice")
	require.NoError(t, err)
	var p core.PreferenceProfile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Zero(t, p.Interactions)
}

func TestConfigCommand(t *testing.T) {
	cfg := setup(t)
	t.Setenv("SWIPEKIT_FEED_PAGE_SIZE", "7")

	out, err := run(t, "--config", cfg, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "page_size: 7")
	assert.Contains(t, out, "type: sqlite")
}

func TestBlacklistRequiresKey(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, "--config", cfg, "blacklist", "i1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "blacklist_key"))
}
