package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/techexlab/pois/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndFindChannel(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	enabled := true
	_, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "default", Enabled: &enabled})
	require.NoError(t, err)

	c, err := s.FindChannel(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, "default", c.Name)
	require.True(t, c.Enabled)
}

func TestFindChannel_disabledStillVisible(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	disabled := false
	_, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "cnn", Enabled: &disabled})
	require.NoError(t, err)

	c, err := s.FindChannel(ctx, "cnn")
	require.NoError(t, err)
	require.False(t, c.Enabled)
}

func TestFindChannel_deletedInvisible(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "x"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteChannel(ctx, c.ID))

	_, err = s.FindChannel(ctx, "x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertRule_appendPriority(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "cnn2"})
	require.NoError(t, err)

	r1, err := s.UpsertRule(ctx, c.ID, 0, store.UpsertRule{Name: "r1", Priority: -1, Action: "noop"})
	require.NoError(t, err)
	require.Equal(t, 10, r1.Priority)

	r2, err := s.UpsertRule(ctx, c.ID, 0, store.UpsertRule{Name: "r2", Priority: -1, Action: "noop"})
	require.NoError(t, err)
	require.Equal(t, 20, r2.Priority)

	rs, err := s.ListRules(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	require.Equal(t, "r1", rs[0].Name)
}

func TestListRules_excludesDisabledAndDeleted(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "cnn3"})
	require.NoError(t, err)

	disabled := false
	_, err = s.UpsertRule(ctx, c.ID, 0, store.UpsertRule{Name: "off", Priority: -1, Action: "noop", Enabled: &disabled})
	require.NoError(t, err)

	deleted, err := s.UpsertRule(ctx, c.ID, 0, store.UpsertRule{Name: "gone", Priority: -1, Action: "noop"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteRule(ctx, deleted.ID))

	rs, err := s.ListRules(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, rs)
}

func TestReorderRules(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c, err := s.UpsertChannel(ctx, store.UpsertChannel{Name: "cnn4"})
	require.NoError(t, err)

	a, err := s.UpsertRule(ctx, c.ID, 0, store.UpsertRule{Name: "a", Priority: -1, Action: "noop"})
	require.NoError(t, err)
	b, err := s.UpsertRule(ctx, c.ID, 0, store.UpsertRule{Name: "b", Priority: -1, Action: "noop"})
	require.NoError(t, err)

	require.NoError(t, s.ReorderRules(ctx, c.ID, []int64{b.ID, a.ID}))

	rs, err := s.ListRules(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "b", rs[0].Name)
	require.Equal(t, "a", rs[1].Name)
}
