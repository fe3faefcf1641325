package app

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenEmptyStoreSynthesizesDefaultProject verifies an empty store starts with a persisted default project.
func TestOpenEmptyStoreSynthesizesDefaultProject(t *testing.T) {
	kv := newMemKV()
	store, renderer := newTestStore(t, kv, StoreConfig{})

	projects := store.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, domain.DefaultProjectName, projects[0].Name)
	assert.Equal(t, projects[0].ID, store.ActiveProjectID())
	assert.Empty(t, projects[0].Tasks)
	assert.Equal(t, 1, kv.puts)
	assert.Equal(t, []string{projects[0].ID}, renderer.tabIDs())
	assert.Contains(t, renderer.columns, domain.ColumnCompleted)
}

// TestOpenLoadsPersistedState verifies opening over saved data does not rewrite it.
func TestOpenLoadsPersistedState(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	require.NoError(t, NewSnapshotStore(kv, DefaultStorageKey, domain.DefaultLayout(), nil).Save(ctx, sampleAppData()))

	store, _ := newTestStore(t, kv, StoreConfig{})
	assert.Equal(t, sampleAppData(), store.Data())
	assert.Equal(t, 1, kv.puts, "loading must not rewrite")
}

// TestAddTaskIntoEmptyColumn verifies a new task lands at order 0 of the default column.
func TestAddTaskIntoEmptyColumn(t *testing.T) {
	kv := newMemKV()
	store, renderer := newTestStore(t, kv, StoreConfig{})

	task, err := store.AddTask(context.Background(), store.ActiveProjectID(), "  Write docs  ")
	require.NoError(t, err)
	assert.Equal(t, "Write docs", task.Title)
	assert.Equal(t, 0, task.Order)
	assert.Equal(t, domain.ColumnTodo, task.Column)
	assert.Equal(t, domain.DefaultPalette[0], task.Color)
	_, ok := domain.TaskCreatedAt(task.ID)
	assert.True(t, ok)
	assert.Equal(t, 2, kv.puts)
	assert.Equal(t, []string{task.ID}, renderer.columnIDs(domain.ColumnTodo))
	assert.Equal(t, 1, renderer.tabs[0].OpenCount)
}

// TestAddTaskValidation verifies invalid adds leave state and storage untouched.
func TestAddTaskValidation(t *testing.T) {
	kv := newMemKV()
	store, _ := newTestStore(t, kv, StoreConfig{})
	before := store.Data()

	_, err := store.AddTask(context.Background(), store.ActiveProjectID(), "   ")
	require.ErrorIs(t, err, domain.ErrInvalidTitle)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.AddTask(context.Background(), "missing", "title")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.AddTask(context.Background(), "missing", "  ")
	require.ErrorIs(t, err, domain.ErrValidation, "title is validated before the project lookup")

	assert.Equal(t, before, store.Data())
	assert.Equal(t, 1, kv.puts)
}

// TestAddProjectBecomesActive verifies a new project becomes the active tab.
func TestAddProjectBecomesActive(t *testing.T) {
	kv := newMemKV()
	store, renderer := newTestStore(t, kv, StoreConfig{})

	project, err := store.AddProject(context.Background(), " Errands ")
	require.NoError(t, err)
	assert.Equal(t, "Errands", project.Name)
	assert.Equal(t, project.ID, store.ActiveProjectID())
	assert.Equal(t, project.ID, renderer.active)

	_, err = store.AddProject(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrInvalidName)
	assert.Len(t, store.Projects(), 2)
}

// TestDeleteActiveProjectSelectsPrevious verifies deleting the active tab activates its left neighbour.
func TestDeleteActiveProjectSelectsPrevious(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, newMemKV(), StoreConfig{})
	first := store.ActiveProjectID()
	second, err := store.AddProject(ctx, "Second")
	require.NoError(t, err)
	third, err := store.AddProject(ctx, "Third")
	require.NoError(t, err)

	require.NoError(t, store.SetActiveProject(ctx, first))
	require.NoError(t, store.DeleteProject(ctx, first))
	assert.Equal(t, second.ID, store.ActiveProjectID())

	require.NoError(t, store.SetActiveProject(ctx, third.ID))
	require.NoError(t, store.DeleteProject(ctx, third.ID))
	assert.Equal(t, second.ID, store.ActiveProjectID())

	require.NoError(t, store.DeleteProject(ctx, second.ID))
	assert.Empty(t, store.Projects())
	assert.Equal(t, "", store.ActiveProjectID())
}

// TestDeleteInactiveProjectKeepsActive verifies deleting another tab keeps the active one.
func TestDeleteInactiveProjectKeepsActive(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, newMemKV(), StoreConfig{})
	first := store.ActiveProjectID()
	second, err := store.AddProject(ctx, "Second")
	require.NoError(t, err)

	require.NoError(t, store.DeleteProject(ctx, first))
	assert.Equal(t, second.ID, store.ActiveProjectID())
	require.ErrorIs(t, store.DeleteProject(ctx, first), ErrNotFound)
}

// TestDeleteMissingTaskIsNoop verifies deleting an unknown task neither mutates nor writes.
func TestDeleteMissingTaskIsNoop(t *testing.T) {
	kv := newMemKV()
	store, _ := newTestStore(t, kv, StoreConfig{})
	seedTasks(t, store, "a", "b")
	before := store.Data()
	stored := cloneValues(kv.values)
	puts := kv.puts

	_, err := store.DeleteTask(context.Background(), store.ActiveProjectID(), "task-0-missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, store.Data())
	assert.Equal(t, stored, kv.values)
	assert.Equal(t, puts, kv.puts)
}

// TestDeleteTaskRenumbers verifies deletion keeps the column dense.
func TestDeleteTaskRenumbers(t *testing.T) {
	store, renderer := newTestStore(t, newMemKV(), StoreConfig{})
	tasks := seedTasks(t, store, "a", "b", "c")

	removed, err := store.DeleteTask(context.Background(), store.ActiveProjectID(), tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, tasks[0].ID, removed.ID)
	got := store.ColumnTasks(store.ActiveProjectID(), domain.ColumnTodo)
	assert.Equal(t, map[string]int{tasks[1].ID: 0, tasks[2].ID: 1}, taskOrders(got))
	assert.Equal(t, taskIDs(got), renderer.columnIDs(domain.ColumnTodo))
}

// TestMoveTaskScenarios verifies moves within and across columns honor the hint.
func TestMoveTaskScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("reorder within column", func(t *testing.T) {
		store, renderer := newTestStore(t, newMemKV(), StoreConfig{})
		tasks := seedTasks(t, store, "a", "b", "c")
		_, err := store.MoveTask(ctx, store.ActiveProjectID(), tasks[2].ID, domain.ColumnTodo, tasks[0].ID)
		require.NoError(t, err)
		got := store.ColumnTasks(store.ActiveProjectID(), domain.ColumnTodo)
		assert.Equal(t, []string{tasks[2].ID, tasks[0].ID, tasks[1].ID}, taskIDs(got))
		assert.Equal(t, taskIDs(got), renderer.columnIDs(domain.ColumnTodo))
	})

	t.Run("move to empty column", func(t *testing.T) {
		store, renderer := newTestStore(t, newMemKV(), StoreConfig{})
		tasks := seedTasks(t, store, "a", "b", "c")
		outcome, err := store.MoveTask(ctx, store.ActiveProjectID(), tasks[0].ID, domain.ColumnCompleted, "")
		require.NoError(t, err)
		assert.Equal(t, domain.ColumnCompleted, outcome.Task.Column)
		assert.Equal(t, 0, outcome.Task.Order)
		todo := store.ColumnTasks(store.ActiveProjectID(), domain.ColumnTodo)
		assert.Equal(t, map[string]int{tasks[1].ID: 0, tasks[2].ID: 1}, taskOrders(todo))
		assert.Equal(t, []string{tasks[0].ID}, renderer.columnIDs(domain.ColumnCompleted))
		assert.Equal(t, taskIDs(todo), renderer.columnIDs(domain.ColumnTodo))
	})

	t.Run("unknown column", func(t *testing.T) {
		store, _ := newTestStore(t, newMemKV(), StoreConfig{})
		tasks := seedTasks(t, store, "a")
		_, err := store.MoveTask(ctx, store.ActiveProjectID(), tasks[0].ID, "archive", "")
		require.ErrorIs(t, err, domain.ErrInvalidColumn)
	})

	t.Run("drop onto own position", func(t *testing.T) {
		store, _ := newTestStore(t, newMemKV(), StoreConfig{})
		tasks := seedTasks(t, store, "a", "b", "c")
		before := store.Data()
		_, err := store.MoveTask(ctx, store.ActiveProjectID(), tasks[1].ID, domain.ColumnTodo, tasks[2].ID)
		require.NoError(t, err)
		assert.Equal(t, before, store.Data())
	})
}

// TestReorderProjects verifies tabs reorder before the hint or to the end.
func TestReorderProjects(t *testing.T) {
	ctx := context.Background()
	store, renderer := newTestStore(t, newMemKV(), StoreConfig{})
	first := store.ActiveProjectID()
	second, _ := store.AddProject(ctx, "Second")
	third, _ := store.AddProject(ctx, "Third")

	require.NoError(t, store.ReorderProjects(ctx, first, ""))
	assert.Equal(t, []string{second.ID, third.ID, first}, renderer.tabIDs())

	require.NoError(t, store.ReorderProjects(ctx, first, second.ID))
	assert.Equal(t, []string{first, second.ID, third.ID}, renderer.tabIDs())

	require.NoError(t, store.ReorderProjects(ctx, third.ID, "stale"))
	assert.Equal(t, []string{first, second.ID, third.ID}, renderer.tabIDs())

	require.ErrorIs(t, store.ReorderProjects(ctx, "stale", ""), ErrNotFound)
}

// TestPersistenceFailureKeepsMemoryState verifies a failed save keeps the mutation and reports the error.
func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	kv := newMemKV()
	var reported []error
	store, _ := newTestStore(t, kv, StoreConfig{OnPersistenceError: func(err error) { reported = append(reported, err) }})

	kv.failPut = errDiskFull
	task, err := store.AddTask(context.Background(), store.ActiveProjectID(), "offline")
	require.NoError(t, err)
	require.Len(t, reported, 1)
	var perr *PersistenceError
	require.ErrorAs(t, reported[0], &perr)
	require.ErrorIs(t, store.LastPersistenceError(), errDiskFull)
	_, ok := store.Task(store.ActiveProjectID(), task.ID)
	assert.True(t, ok)

	kv.failPut = nil
	seedTasks(t, store, "online")
	assert.NoError(t, store.LastPersistenceError())

	reloaded, ok := NewSnapshotStore(kv, DefaultStorageKey, domain.DefaultLayout(), nil).Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, store.Data(), reloaded)
}

// TestColorStrategies verifies the color cycle derives from the newest task or resets.
func TestColorStrategies(t *testing.T) {
	ctx := context.Background()
	data := domain.AppData{
		Projects: []domain.Project{{ID: "p1", Name: "Home", Tasks: []domain.Task{
			{ID: "task-2000-b", Title: "newest", Column: domain.ColumnTodo, Order: 0, Color: domain.DefaultPalette[3]},
			{ID: "task-1000-a", Title: "older", Column: domain.ColumnTodo, Order: 1, Color: domain.DefaultPalette[9]},
		}}},
		ActiveProjectID: "p1",
	}

	for strategy, want := range map[ColorStrategy]string{
		ColorStrategyDerive: domain.DefaultPalette[4],
		ColorStrategyReset:  domain.DefaultPalette[0],
	} {
		kv := newMemKV()
		require.NoError(t, NewSnapshotStore(kv, DefaultStorageKey, domain.DefaultLayout(), nil).Save(ctx, data))
		store, _ := newTestStore(t, kv, StoreConfig{ColorStrategy: strategy})
		task, err := store.AddTask(ctx, "p1", "next")
		require.NoError(t, err)
		assert.Equal(t, want, task.Color, string(strategy))
	}
}

// TestRequiresDeleteConfirmation verifies only projects with unfinished tasks need confirmation.
func TestRequiresDeleteConfirmation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, newMemKV(), StoreConfig{})
	projectID := store.ActiveProjectID()
	assert.False(t, store.RequiresDeleteConfirmation(projectID), "empty project")

	tasks := seedTasks(t, store, "a")
	assert.True(t, store.RequiresDeleteConfirmation(projectID))
	assert.Contains(t, store.DeleteConfirmationMessage(projectID), "1 unfinished")

	_, err := store.MoveTask(ctx, projectID, tasks[0].ID, domain.ColumnCompleted, "")
	require.NoError(t, err)
	assert.False(t, store.RequiresDeleteConfirmation(projectID), "all completed")
}

// TestReplaceNormalizesAndPersists verifies replacement data is normalized before it is saved.
func TestReplaceNormalizesAndPersists(t *testing.T) {
	kv := newMemKV()
	store, renderer := newTestStore(t, kv, StoreConfig{})
	data := sampleAppData()
	data.Projects[0].Tasks[2].Order = 8
	data.ActiveProjectID = "missing"

	require.NoError(t, store.Replace(context.Background(), data))
	assert.Equal(t, "p1", store.ActiveProjectID())
	requireDense(t, store.Data())
	assert.Equal(t, []string{"p1", "p2"}, renderer.tabIDs())

	require.ErrorIs(t, store.Replace(context.Background(), domain.AppData{}), domain.ErrValidation)
	assert.Len(t, store.Projects(), 2)
}

// TestStoreRandomOperationsStayDense verifies random store operations keep every column dense.
func TestStoreRandomOperationsStayDense(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(3, 5))
	kv := newMemKV()
	store, _ := newTestStore(t, kv, StoreConfig{})
	cols := store.Layout().IDs()
	seedTasks(t, store, "a", "b", "c", "d")

	for range 300 {
		project, _ := store.ActiveProject()
		switch op := rng.IntN(10); {
		case op < 2:
			seedTasks(t, store, "extra")
		case op < 3 && len(project.Tasks) > 0:
			_, err := store.DeleteTask(ctx, project.ID, project.Tasks[rng.IntN(len(project.Tasks))].ID)
			require.NoError(t, err)
		case len(project.Tasks) > 0:
			count := len(project.Tasks)
			moved := project.Tasks[rng.IntN(count)].ID
			hint := project.Tasks[rng.IntN(count)].ID
			_, err := store.MoveTask(ctx, project.ID, moved, cols[rng.IntN(len(cols))], hint)
			require.NoError(t, err)
			after, _ := store.ActiveProject()
			require.Len(t, after.Tasks, count)
		}
		requireDense(t, store.Data())
	}

	reloaded, ok := NewSnapshotStore(kv, DefaultStorageKey, domain.DefaultLayout(), nil).Load(ctx)
	require.True(t, ok)
	assert.Equal(t, store.Data(), reloaded)
}

// TestDefaultIDsStayUniqueWithinOneMillisecond verifies ids stay unique under a frozen clock.
func TestDefaultIDsStayUniqueWithinOneMillisecond(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(NewSnapshotStore(newMemKV(), DefaultStorageKey, domain.Layout{}, nil), nil, func() time.Time { return frozen }, StoreConfig{})
	require.NoError(t, store.Open(ctx))

	project, err := store.AddProject(ctx, "Second")
	require.NoError(t, err)
	projects := store.Projects()
	require.Len(t, projects, 2)
	assert.NotEqual(t, projects[0].ID, projects[1].ID)

	a, err := store.AddTask(ctx, project.ID, "a")
	require.NoError(t, err)
	b, err := store.AddTask(ctx, project.ID, "b")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	removed, err := store.DeleteTask(ctx, project.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Title)
	assert.Equal(t, []string{a.ID}, taskIDs(store.ColumnTasks(project.ID, domain.ColumnTodo)))
}

// TestRepeatingGeneratorDoesNotDuplicateIDs verifies a generator that repeats itself
// still yields distinct project and task ids.
func TestRepeatingGeneratorDoesNotDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	same := func() string { return "same" }
	store := NewStore(NewSnapshotStore(newMemKV(), DefaultStorageKey, domain.Layout{}, nil), same, func() time.Time { return frozen }, StoreConfig{})
	require.NoError(t, store.Open(ctx))

	_, err := store.AddProject(ctx, "Second")
	require.NoError(t, err)
	projects := store.Projects()
	assert.NotEqual(t, projects[0].ID, projects[1].ID)

	a, err := store.AddTask(ctx, store.ActiveProjectID(), "a")
	require.NoError(t, err)
	b, err := store.AddTask(ctx, store.ActiveProjectID(), "b")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	requireDense(t, store.Data())
}
