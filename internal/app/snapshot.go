package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/evanschultz/lanes/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultStorageKey is the fixed key the board snapshot is stored under.
const DefaultStorageKey = "lanes.appdata"

// SnapshotFormat selects a snapshot encoding.
type SnapshotFormat string

// SnapshotFormatJSON and related constants define supported encodings.
const (
	SnapshotFormatJSON SnapshotFormat = "json"
	SnapshotFormatYAML SnapshotFormat = "yaml"
)

// ErrMalformedSnapshot reports a snapshot whose shape cannot be used.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot is the persisted wire form of all board state.
type Snapshot struct {
	Projects        []SnapshotProject `json:"projects" yaml:"projects"`
	ActiveProjectID string            `json:"activeProjectId" yaml:"activeProjectId"`
}

// SnapshotProject represents one persisted project.
type SnapshotProject struct {
	ID    string         `json:"id" yaml:"id"`
	Name  string         `json:"name" yaml:"name"`
	Tasks []SnapshotTask `json:"tasks" yaml:"tasks"`
}

// SnapshotTask represents one persisted task.
type SnapshotTask struct {
	ID     string          `json:"id" yaml:"id"`
	Title  string          `json:"title" yaml:"title"`
	Column domain.ColumnID `json:"column" yaml:"column"`
	Order  int             `json:"order" yaml:"order"`
	Color  string          `json:"color" yaml:"color"`
}

// SnapshotFromAppData converts domain state to its wire form.
func SnapshotFromAppData(data domain.AppData) Snapshot {
	snap := Snapshot{
		Projects:        make([]SnapshotProject, 0, len(data.Projects)),
		ActiveProjectID: data.ActiveProjectID,
	}
	for _, p := range data.Projects {
		sp := SnapshotProject{ID: p.ID, Name: p.Name, Tasks: make([]SnapshotTask, 0, len(p.Tasks))}
		for _, t := range p.Tasks {
			sp.Tasks = append(sp.Tasks, SnapshotTask{
				ID:     t.ID,
				Title:  t.Title,
				Column: t.Column,
				Order:  t.Order,
				Color:  t.Color,
			})
		}
		snap.Projects = append(snap.Projects, sp)
	}
	return snap
}

// ToAppData validates and normalizes a snapshot against a column layout.
// Invalid projects and tasks are dropped; tasks in unknown columns move to the
// end of the default column. Each dropped or repaired record yields a warning.
func (s Snapshot) ToAppData(layout domain.Layout) (domain.AppData, []string) {
	warnings := make([]string, 0)
	data := domain.AppData{Projects: make([]domain.Project, 0, len(s.Projects))}
	seenProjects := map[string]struct{}{}
	for pi, sp := range s.Projects {
		project, err := domain.NewProject(sp.ID, sp.Name)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("projects[%d] dropped: %v", pi, err))
			continue
		}
		if _, ok := seenProjects[project.ID]; ok {
			warnings = append(warnings, fmt.Sprintf("projects[%d] dropped: duplicate id %q", pi, project.ID))
			continue
		}
		seenProjects[project.ID] = struct{}{}

		seenTasks := map[string]struct{}{}
		relocated := make([]domain.Task, 0)
		for ti, st := range sp.Tasks {
			task, err := domain.NewTask(domain.TaskInput{
				ID:     st.ID,
				Title:  st.Title,
				Column: st.Column,
				Order:  max(st.Order, 0),
				Color:  st.Color,
			})
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("projects[%d].tasks[%d] dropped: %v", pi, ti, err))
				continue
			}
			if _, ok := seenTasks[task.ID]; ok {
				warnings = append(warnings, fmt.Sprintf("projects[%d].tasks[%d] dropped: duplicate id %q", pi, ti, task.ID))
				continue
			}
			seenTasks[task.ID] = struct{}{}
			if !layout.Has(task.Column) {
				warnings = append(warnings, fmt.Sprintf("projects[%d].tasks[%d] moved from unknown column %q to %q", pi, ti, task.Column, layout.Default))
				task.Column = layout.Default
				relocated = append(relocated, task)
				continue
			}
			project.Tasks = append(project.Tasks, task)
		}
		NormalizeOrders(project.Tasks)
		for _, task := range relocated {
			task.Order = NextOrder(project.Tasks, task.Column)
			project.Tasks = append(project.Tasks, task)
		}
		data.Projects = append(data.Projects, project)
	}

	switch {
	case len(data.Projects) == 0:
		data.ActiveProjectID = ""
	case data.ProjectIndex(s.ActiveProjectID) >= 0:
		data.ActiveProjectID = s.ActiveProjectID
	default:
		if s.ActiveProjectID != "" {
			warnings = append(warnings, fmt.Sprintf("active project %q not found; using first project", s.ActiveProjectID))
		}
		data.ActiveProjectID = data.Projects[0].ID
	}
	return data, warnings
}

// ParseSnapshotFormat resolves a format name or file extension.
func ParseSnapshotFormat(raw string) (SnapshotFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), ".") {
	case "", "json":
		return SnapshotFormatJSON, nil
	case "yaml", "yml":
		return SnapshotFormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported snapshot format %q", raw)
	}
}

// EncodeSnapshot serializes a snapshot.
func EncodeSnapshot(snap Snapshot, format SnapshotFormat) ([]byte, error) {
	switch format {
	case SnapshotFormatJSON, "":
		return json.Marshal(snap)
	case SnapshotFormatYAML:
		return yaml.Marshal(snap)
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

// DecodeSnapshot parses a snapshot. A record whose projects field is missing
// or not list-shaped is rejected with ErrMalformedSnapshot.
func DecodeSnapshot(raw []byte, format SnapshotFormat) (Snapshot, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Snapshot{}, fmt.Errorf("%w: empty payload", ErrMalformedSnapshot)
	}
	switch format {
	case SnapshotFormatJSON, "":
		var shape struct {
			Projects json.RawMessage `json:"projects"`
		}
		if err := json.Unmarshal(raw, &shape); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		if !bytes.HasPrefix(bytes.TrimSpace(shape.Projects), []byte("[")) {
			return Snapshot{}, fmt.Errorf("%w: projects is not a list", ErrMalformedSnapshot)
		}
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		return snap, nil
	case SnapshotFormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		if !yamlProjectsIsList(&node) {
			return Snapshot{}, fmt.Errorf("%w: projects is not a list", ErrMalformedSnapshot)
		}
		var snap Snapshot
		if err := node.Decode(&snap); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		return snap, nil
	default:
		return Snapshot{}, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

// yamlProjectsIsList reports whether the document's projects key holds a sequence.
func yamlProjectsIsList(doc *yaml.Node) bool {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "projects" {
			return root.Content[i+1].Kind == yaml.SequenceNode
		}
	}
	return false
}

// SnapshotStore persists board snapshots under one fixed key.
type SnapshotStore struct {
	kv     KeyValueStore
	key    string
	layout domain.Layout
	logger Logger
}

// NewSnapshotStore constructs a snapshot store.
func NewSnapshotStore(kv KeyValueStore, key string, layout domain.Layout, logger Logger) *SnapshotStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultStorageKey
	}
	if logger == nil {
		logger = discardLogger()
	}
	if len(layout.Columns) == 0 {
		layout = domain.DefaultLayout()
	}
	return &SnapshotStore{kv: kv, key: key, layout: layout, logger: logger}
}

// Load reads the stored snapshot. Missing or unusable data yields false; it never fails.
func (s *SnapshotStore) Load(ctx context.Context) (domain.AppData, bool) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("no stored snapshot", "key", s.key)
		} else {
			s.logger.Warn("read snapshot failed", "key", s.key, "err", err)
		}
		return domain.AppData{}, false
	}
	snap, err := DecodeSnapshot(raw, SnapshotFormatJSON)
	if err != nil {
		s.logger.Warn("decode snapshot failed", "key", s.key, "err", err)
		return domain.AppData{}, false
	}
	data, warnings := snap.ToAppData(s.layout)
	for _, w := range warnings {
		s.logger.Warn("snapshot record repaired", "key", s.key, "detail", w)
	}
	return data, true
}

// Save writes the snapshot, reporting failures as *PersistenceError.
func (s *SnapshotStore) Save(ctx context.Context, data domain.AppData) error {
	encoded, err := EncodeSnapshot(SnapshotFromAppData(data), SnapshotFormatJSON)
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}
	if err := s.kv.Put(ctx, s.key, encoded); err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}
	return nil
}

// RenderSnapshotMarkdown renders a snapshot as a markdown board outline.
func RenderSnapshotMarkdown(snap Snapshot, layout domain.Layout) string {
	var b strings.Builder
	for _, sp := range snap.Projects {
		title := sp.Name
		if sp.ID == snap.ActiveProjectID {
			title += " (active)"
		}
		fmt.Fprintf(&b, "# %s\n\n", title)
		for _, col := range layout.Columns {
			tasks := make([]SnapshotTask, 0)
			for _, t := range sp.Tasks {
				if t.Column == col.ID {
					tasks = append(tasks, t)
				}
			}
			slices.SortStableFunc(tasks, func(a, b SnapshotTask) int { return a.Order - b.Order })
			fmt.Fprintf(&b, "## %s (%d)\n\n", col.Name, len(tasks))
			if len(tasks) == 0 {
				b.WriteString("_empty_\n\n")
				continue
			}
			for _, t := range tasks {
				box := " "
				if layout.IsCompleted(col.ID) {
					box = "x"
				}
				fmt.Fprintf(&b, "- [%s] %s\n", box, t.Title)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
