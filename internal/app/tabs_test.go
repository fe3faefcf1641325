package app

import (
	"context"
	"testing"

	"github.com/evanschultz/lanes/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTabFixture(t *testing.T, confirm ConfirmFunc) (*Store, *recordingRenderer, *TabController, []string) {
	t.Helper()
	ctx := context.Background()
	store, renderer := newTestStore(t, newMemKV(), StoreConfig{})
	ids := []string{store.ActiveProjectID()}
	for _, name := range []string{"Second", "Third"} {
		p, err := store.AddProject(ctx, name)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	tabs := NewTabController(store, tabStrip{store: store}, TabConfig{Confirm: confirm})
	return store, renderer, tabs, ids
}

func projectIDs(projects []domain.Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.ID)
	}
	return out
}

// TestTabReorderByMidpoint verifies tabs insert before the sibling whose midpoint is right of the pointer.
func TestTabReorderByMidpoint(t *testing.T) {
	ctx := context.Background()
	store, renderer, tabs, ids := newTabFixture(t, nil)

	_, err := tabs.Begin(ids[0], "Default Project", dragStart)
	require.NoError(t, err)
	require.True(t, tabs.Over(TabBarTarget(), Point{X: 21}, dragStart))
	assert.Equal(t, []string{ids[1], ids[0], ids[2]}, renderer.tabIDs())
	assert.Equal(t, ids, projectIDs(store.Projects()), "preview must not mutate the store")

	result, err := tabs.Drop(ctx, TabBarTarget(), Point{X: 21}, dragStart)
	require.NoError(t, err)
	assert.Equal(t, TabReordered, result.Outcome)
	assert.Equal(t, DragDropped, tabs.End(dragStart))
	assert.Equal(t, []string{ids[1], ids[0], ids[2]}, projectIDs(store.Projects()))
}

// TestTabDropPastLastTabClampsBeforeAddButton verifies drops past the last tab land at the end.
func TestTabDropPastLastTabClampsBeforeAddButton(t *testing.T) {
	store, _, tabs, ids := newTabFixture(t, nil)

	_, err := tabs.Begin(ids[0], "", dragStart)
	require.NoError(t, err)
	_, err = tabs.Drop(context.Background(), TabBarTarget(), Point{X: 31}, dragStart)
	require.NoError(t, err)
	tabs.End(dragStart)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, projectIDs(store.Projects()))
}

// TestTabTrashEmptyProjectDeletesWithoutConfirmation verifies an empty project is deleted without asking.
func TestTabTrashEmptyProjectDeletesWithoutConfirmation(t *testing.T) {
	store, _, tabs, ids := newTabFixture(t, func(string) bool {
		t.Fatal("confirmation must not be requested for an empty project")
		return false
	})

	_, err := tabs.Begin(ids[2], "", dragStart)
	require.NoError(t, err)
	result, err := tabs.Drop(context.Background(), TrashTarget(), Point{}, dragStart)
	require.NoError(t, err)
	assert.Equal(t, TabDeleted, result.Outcome)
	assert.Equal(t, ids[:2], projectIDs(store.Projects()))
	assert.Equal(t, ids[1], store.ActiveProjectID())
}

// TestTabTrashConfirmationPolicy verifies projects with open work follow the confirm hook.
func TestTabTrashConfirmationPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("deferred to caller", func(t *testing.T) {
		store, renderer, tabs, ids := newTabFixture(t, nil)
		seedTasks(t, store, "open work")
		_, err := tabs.Begin(ids[2], "", dragStart)
		require.NoError(t, err)
		tabs.Over(TrashTarget(), Point{}, dragStart)
		assert.Equal(t, ids[:2], renderer.tabIDs())

		result, err := tabs.Drop(ctx, TrashTarget(), Point{}, dragStart)
		require.NoError(t, err)
		assert.Equal(t, TabNeedsConfirmation, result.Outcome)
		assert.Contains(t, result.Message, "Third")
		assert.Equal(t, ids, renderer.tabIDs(), "preview reverted")
		tabs.End(dragStart)
		assert.Len(t, store.Projects(), 3)
	})

	t.Run("declined", func(t *testing.T) {
		var asked string
		store, _, tabs, ids := newTabFixture(t, func(msg string) bool { asked = msg; return false })
		seedTasks(t, store, "open work")
		_, err := tabs.Begin(ids[2], "", dragStart)
		require.NoError(t, err)
		result, err := tabs.Drop(ctx, TrashTarget(), Point{}, dragStart)
		require.NoError(t, err)
		assert.Equal(t, TabCancelled, result.Outcome)
		assert.NotEmpty(t, asked)
		assert.Equal(t, DragCancelled, tabs.End(dragStart))
		assert.Len(t, store.Projects(), 3)
	})

	t.Run("accepted", func(t *testing.T) {
		store, _, tabs, ids := newTabFixture(t, func(string) bool { return true })
		seedTasks(t, store, "open work")
		_, err := tabs.Begin(ids[2], "", dragStart)
		require.NoError(t, err)
		result, err := tabs.Drop(ctx, TrashTarget(), Point{}, dragStart)
		require.NoError(t, err)
		assert.Equal(t, TabDeleted, result.Outcome)
		assert.Len(t, store.Projects(), 2)
	})
}

// TestTabCancelRestoresTabs verifies cancelling restores the authoritative tab order.
func TestTabCancelRestoresTabs(t *testing.T) {
	store, renderer, tabs, ids := newTabFixture(t, nil)
	_, err := tabs.Begin(ids[2], "", dragStart)
	require.NoError(t, err)
	tabs.Over(TabBarTarget(), Point{X: 1}, dragStart)
	assert.Equal(t, []string{ids[2], ids[0], ids[1]}, renderer.tabIDs())

	assert.True(t, tabs.Cancel())
	assert.Equal(t, ids, renderer.tabIDs())
	assert.Equal(t, ids, projectIDs(store.Projects()))
	assert.False(t, tabs.ExpireIdle(dragStart.Add(DefaultIdleTimeout*2)))
}
