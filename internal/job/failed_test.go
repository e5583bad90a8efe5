package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailedStore(t *testing.T) {
	s := NewFailedStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "/b.mp4", "parse: no pattern"))
	require.NoError(t, s.Add(ctx, "/a.mp4", "resolve: not found"))
	require.NoError(t, s.Add(ctx, "/a.mp4", "apply: destination exists"))

	ok, err := s.Contains(ctx, "/a.mp4")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "/a.mp4", list[0].Path)
	assert.Equal(t, "apply: destination exists", list[0].Reason, "add replaces the reason")

	removed, err := s.Remove(ctx, "/a.mp4")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Remove(ctx, "/a.mp4")
	require.NoError(t, err)
	assert.False(t, removed)

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = s.Contains(ctx, "/b.mp4")
	require.NoError(t, err)
	assert.False(t, ok)
}
