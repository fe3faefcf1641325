package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// memKV is an in-memory KeyValueStore that counts writes.
type memKV struct {
	values  map[string][]byte
	puts    int
	failPut error
}

func newMemKV() *memKV {
	return &memKV{values: map[string][]byte{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	if m.failPut != nil {
		return m.failPut
	}
	m.puts++
	m.values[key] = slices.Clone(value)
	return nil
}

// recordingRenderer keeps the latest list pushed for each surface.
type recordingRenderer struct {
	columns     map[domain.ColumnID][]domain.Task
	columnCalls int
	tabs        []ProjectTab
	active      string
	tabCalls    int
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{columns: map[domain.ColumnID][]domain.Task{}}
}

func (r *recordingRenderer) RenderColumn(col domain.ColumnID, tasks []domain.Task) {
	r.columnCalls++
	r.columns[col] = slices.Clone(tasks)
}

func (r *recordingRenderer) RenderTabs(tabs []ProjectTab, active string) {
	r.tabCalls++
	r.tabs = slices.Clone(tabs)
	r.active = active
}

func (r *recordingRenderer) columnIDs(col domain.ColumnID) []string {
	return taskIDs(r.columns[col])
}

func (r *recordingRenderer) tabIDs() []string {
	out := make([]string, 0, len(r.tabs))
	for _, tab := range r.tabs {
		out = append(out, tab.ID)
	}
	return out
}

// rowLayout lays out one card per unit row, mirroring the terminal board.
type rowLayout struct {
	store *Store
}

func (l rowLayout) ColumnItems(col domain.ColumnID) []ItemBounds {
	tasks := l.store.ColumnTasks(l.store.ActiveProjectID(), col)
	out := make([]ItemBounds, 0, len(tasks))
	for i, t := range tasks {
		out = append(out, ItemBounds{ID: t.ID, Start: float64(i), Size: 1})
	}
	return out
}

// tabStrip lays out tabs ten cells wide followed by a fixed add affordance.
type tabStrip struct {
	store *Store
}

func (l tabStrip) TabItems() []ItemBounds {
	tabs := l.store.ProjectTabs()
	out := make([]ItemBounds, 0, len(tabs)+1)
	for i, tab := range tabs {
		out = append(out, ItemBounds{ID: tab.ID, Start: float64(i * 10), Size: 10})
	}
	return append(out, ItemBounds{ID: "+", Start: float64(len(tabs) * 10), Size: 3, Fixed: true})
}

// testClock returns a clock that advances one millisecond per call.
func testClock() Clock {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

// testIDs returns a deterministic id sequence.
func testIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%04x", n)
	}
}

// newTestStore opens a store over kv with a recording renderer.
func newTestStore(t *testing.T, kv *memKV, cfg StoreConfig) (*Store, *recordingRenderer) {
	t.Helper()
	renderer := newRecordingRenderer()
	cfg.Renderer = renderer
	snapshots := NewSnapshotStore(kv, DefaultStorageKey, cfg.Layout, nil)
	store := NewStore(snapshots, testIDs(), testClock(), cfg)
	require.NoError(t, store.Open(context.Background()))
	return store, renderer
}

// seedTasks adds titles to the active project in order.
func seedTasks(t *testing.T, store *Store, titles ...string) []domain.Task {
	t.Helper()
	out := make([]domain.Task, 0, len(titles))
	for _, title := range titles {
		task, err := store.AddTask(context.Background(), store.ActiveProjectID(), title)
		require.NoError(t, err)
		out = append(out, task)
	}
	return out
}

func taskIDs(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func taskOrders(tasks []domain.Task) map[string]int {
	out := make(map[string]int, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t.Order
	}
	return out
}

// requireDense asserts every column of every project is densely ordered.
func requireDense(t *testing.T, data domain.AppData) {
	t.Helper()
	for _, p := range data.Projects {
		require.NoError(t, CheckDensity(p.Tasks), "project %s", p.ID)
	}
}

func cloneValues(m map[string][]byte) map[string][]byte {
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}
