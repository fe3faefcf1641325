package app

// PatchKind names one presentation patch step.
type PatchKind string

// PatchKeep and related constants enumerate patch steps.
const (
	PatchKeep   PatchKind = "keep"
	PatchMove   PatchKind = "move"
	PatchUpdate PatchKind = "update"
	PatchCreate PatchKind = "create"
	PatchRemove PatchKind = "remove"
)

// PatchOp records how one node was reconciled. From is -1 for created nodes;
// To is -1 for removed ones.
type PatchOp struct {
	Kind PatchKind
	ID   string
	From int
	To   int
}

// Reconciler diffs a cached node list against desired data by id, reusing
// existing nodes and creating or dropping the rest. Update returns the patched
// node and whether it changed.
type Reconciler[D, N any] struct {
	DesiredID func(D) string
	NodeID    func(N) string
	Create    func(D) N
	Update    func(N, D) (N, bool)
}

// Apply returns nodes in desired order plus the patch steps taken.
func (r Reconciler[D, N]) Apply(current []N, desired []D) ([]N, []PatchOp) {
	existing := make(map[string]int, len(current))
	for i, n := range current {
		existing[r.NodeID(n)] = i
	}
	out := make([]N, 0, len(desired))
	ops := make([]PatchOp, 0, len(desired))
	used := make(map[string]struct{}, len(desired))
	for to, d := range desired {
		id := r.DesiredID(d)
		used[id] = struct{}{}
		from, ok := existing[id]
		if !ok {
			out = append(out, r.Create(d))
			ops = append(ops, PatchOp{Kind: PatchCreate, ID: id, From: -1, To: to})
			continue
		}
		node := current[from]
		changed := false
		if r.Update != nil {
			node, changed = r.Update(node, d)
		}
		kind := PatchKeep
		switch {
		case changed:
			kind = PatchUpdate
		case from != to:
			kind = PatchMove
		}
		out = append(out, node)
		ops = append(ops, PatchOp{Kind: kind, ID: id, From: from, To: to})
	}
	for i, n := range current {
		id := r.NodeID(n)
		if _, ok := used[id]; !ok {
			ops = append(ops, PatchOp{Kind: PatchRemove, ID: id, From: i, To: -1})
		}
	}
	return out, ops
}
