package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/evanschultz/lanes/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAppData() domain.AppData {
	return domain.AppData{
		Projects: []domain.Project{
			{ID: "p1", Name: "Home", Tasks: []domain.Task{
				{ID: "task-1-a", Title: "Dishes", Column: domain.ColumnTodo, Order: 0, Color: "#4a4e69"},
				{ID: "task-2-b", Title: "Laundry", Column: domain.ColumnCompleted, Order: 0, Color: "#003049"},
				{ID: "task-3-c", Title: "Taxes", Column: domain.ColumnTodo, Order: 1, Color: "#585123"},
			}},
			{ID: "p2", Name: "Work", Tasks: []domain.Task{}},
		},
		ActiveProjectID: "p2",
	}
}

// TestSnapshotStoreRoundTrip verifies save then load returns the same data.
func TestSnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := NewSnapshotStore(kv, "", domain.Layout{}, nil)

	want := sampleAppData()
	require.NoError(t, store.Save(ctx, want))
	assert.Contains(t, kv.values, DefaultStorageKey)

	got, ok := store.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

// TestSnapshotStoreLoadTreatsBadDataAsAbsent verifies malformed stored data loads as absent.
func TestSnapshotStoreLoadTreatsBadDataAsAbsent(t *testing.T) {
	cases := map[string]string{
		"unparsable":        `{"projects": [`,
		"projects object":   `{"projects": {"id": "p1"}, "activeProjectId": "p1"}`,
		"projects missing":  `{"activeProjectId": "p1"}`,
		"projects null":     `{"projects": null}`,
		"not an object":     `[1, 2, 3]`,
		"empty payload":     ``,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			kv := newMemKV()
			kv.values[DefaultStorageKey] = []byte(raw)
			_, ok := NewSnapshotStore(kv, DefaultStorageKey, domain.DefaultLayout(), nil).Load(context.Background())
			assert.False(t, ok)
		})
	}

	_, ok := NewSnapshotStore(newMemKV(), DefaultStorageKey, domain.DefaultLayout(), nil).Load(context.Background())
	assert.False(t, ok, "missing key")
}

// TestSnapshotStoreSaveFailureIsPersistenceError verifies write failures surface as PersistenceError.
func TestSnapshotStoreSaveFailureIsPersistenceError(t *testing.T) {
	kv := newMemKV()
	kv.failPut = errDiskFull
	err := NewSnapshotStore(kv, DefaultStorageKey, domain.DefaultLayout(), nil).Save(context.Background(), sampleAppData())

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "write", perr.Op)
	assert.True(t, errors.Is(err, errDiskFull))
}

// TestSnapshotToAppDataRepairsRecords verifies invalid records are dropped or relocated with warnings.
func TestSnapshotToAppDataRepairsRecords(t *testing.T) {
	snap := Snapshot{
		Projects: []SnapshotProject{
			{ID: "p1", Name: "Home", Tasks: []SnapshotTask{
				{ID: "t1", Title: "kept", Column: domain.ColumnTodo, Order: 4},
				{ID: "", Title: "no id", Column: domain.ColumnTodo},
				{ID: "t2", Title: "   ", Column: domain.ColumnTodo},
				{ID: "t3", Title: "archived", Column: "archive", Order: 0},
				{ID: "t1", Title: "dup", Column: domain.ColumnTodo},
				{ID: "t4", Title: "second", Column: domain.ColumnTodo, Order: 9},
			}},
			{ID: "", Name: "nameless id"},
			{ID: "p1", Name: "duplicate"},
		},
		ActiveProjectID: "gone",
	}
	data, warnings := snap.ToAppData(domain.DefaultLayout())

	require.Len(t, data.Projects, 1)
	assert.Equal(t, "p1", data.ActiveProjectID)
	assert.Equal(t, []string{"t1", "t4", "t3"}, taskIDs(data.Projects[0].Tasks))
	assert.Equal(t, map[string]int{"t1": 0, "t4": 1, "t3": 2}, taskOrders(data.Projects[0].Tasks))
	requireDense(t, data)
	assert.Len(t, warnings, 7)
}

// TestSnapshotToAppDataWithoutProjects verifies an empty snapshot has no active project.
func TestSnapshotToAppDataWithoutProjects(t *testing.T) {
	data, _ := Snapshot{Projects: []SnapshotProject{}, ActiveProjectID: "p1"}.ToAppData(domain.DefaultLayout())
	assert.Empty(t, data.Projects)
	assert.Equal(t, "", data.ActiveProjectID)
}

// TestSnapshotYAMLRoundTrip verifies snapshots survive a YAML encode and decode.
func TestSnapshotYAMLRoundTrip(t *testing.T) {
	snap := SnapshotFromAppData(sampleAppData())
	raw, err := EncodeSnapshot(snap, SnapshotFormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "activeProjectId: p2")

	got, err := DecodeSnapshot(raw, SnapshotFormatYAML)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	_, err = DecodeSnapshot([]byte("projects: nope\n"), SnapshotFormatYAML)
	require.ErrorIs(t, err, ErrMalformedSnapshot)
}

// TestParseSnapshotFormat verifies format names and extensions resolve.
func TestParseSnapshotFormat(t *testing.T) {
	for raw, want := range map[string]SnapshotFormat{"": SnapshotFormatJSON, ".json": SnapshotFormatJSON, "YML": SnapshotFormatYAML, ".yaml": SnapshotFormatYAML} {
		got, err := ParseSnapshotFormat(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseSnapshotFormat("xml")
	require.Error(t, err)
}

// TestRenderSnapshotMarkdown verifies the markdown outline lists columns in layout order.
func TestRenderSnapshotMarkdown(t *testing.T) {
	md := RenderSnapshotMarkdown(SnapshotFromAppData(sampleAppData()), domain.DefaultLayout())
	assert.Contains(t, md, "# Work (active)")
	assert.Contains(t, md, "## To Do (2)")
	assert.Contains(t, md, "- [x] Laundry")
	assert.Less(t, strings.Index(md, "Dishes"), strings.Index(md, "Taxes"))
}
