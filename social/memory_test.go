package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGraph(t *testing.T) {
	g := NewMemory([2]string{"alice", "bob"}, [2]string{"carol", "alice"}, [2]string{"dave", "dave"})
	ctx := context.Background()

	got, err := g.AcceptedFriendsOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, got)

	got, err = g.AcceptedFriendsOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got)

	got, err = g.AcceptedFriendsOf(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, got)

	g.Remove("alice", "bob")
	got, err = g.AcceptedFriendsOf(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, got)
}
