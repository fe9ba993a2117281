package reconcile

import (
	"slices"

	"curator/internal/catalog"
	"curator/internal/scanner"
)

// TaskKind says why an entry needs a new asset.
type TaskKind string

const (
	TaskMissing   TaskKind = "missing"
	TaskDuplicate TaskKind = "duplicate"
)

// Task is one entry to rebind.
type Task struct {
	Entry catalog.Entry
	Kind  TaskKind
	// Detail is the missing reason or the id of the canonical owner.
	Detail string
}

// Tasks lists every entry of a scan that needs repair, in stable id order.
// Canonical owners and OK entries never appear.
func Tasks(result *scanner.Result) []Task {
	if result == nil {
		return nil
	}
	var tasks []Task
	for _, m := range result.Missing {
		tasks = append(tasks, Task{Entry: m.Entry, Kind: TaskMissing, Detail: string(m.Reason)})
	}
	for _, group := range result.Duplicates {
		for _, v := range group.Violations {
			tasks = append(tasks, Task{Entry: v, Kind: TaskDuplicate, Detail: group.Canonical.ID})
		}
	}
	slices.SortFunc(tasks, func(a, b Task) int { return catalog.CompareIDs(a.Entry.ID, b.Entry.ID) })
	return tasks
}

// Method is how an entry was rebound.
type Method string

const (
	MethodOverride Method = "override"
	MethodPool     Method = "pool"
	MethodFetch    Method = "fetch"
)

// Applied records one reference change.
type Applied struct {
	ID     string   `json:"id"`
	Kind   TaskKind `json:"kind"`
	OldRef string   `json:"old_ref"`
	NewRef string   `json:"new_ref"`
	Method Method   `json:"method"`
}

// Unresolved records an entry left untouched this run.
type Unresolved struct {
	ID     string   `json:"id"`
	Kind   TaskKind `json:"kind"`
	Reason string   `json:"reason"`
}

// Outcome is the result of reconciling a set of tasks. In dry-run mode
// Applied lists the changes that would have been written.
type Outcome struct {
	Applied    []Applied    `json:"applied"`
	Unresolved []Unresolved `json:"unresolved"`
}

// NewOutcome returns an Outcome whose lists encode as empty arrays.
func NewOutcome() Outcome {
	return Outcome{Applied: []Applied{}, Unresolved: []Unresolved{}}
}

// Merge appends other to o.
func (o *Outcome) Merge(other Outcome) {
	o.Applied = append(o.Applied, other.Applied...)
	o.Unresolved = append(o.Unresolved, other.Unresolved...)
}
