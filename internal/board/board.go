// Package board holds the in-memory task board model: columns discovered
// from the source document, top-level tasks grouped per column, and the
// structural operations (move, reorder) the UI and sync engine rely on.
package board

import (
	"errors"
	"fmt"
	"time"

	"tuido/internal/config"
)

// now is swapped out in tests to get deterministic timestamps.
var now = time.Now

// Priority values follow the P0 (most urgent) .. P4 (least urgent) scale.
var ValidPriorities = []string{"P0", "P1", "P2", "P3", "P4"}

// IsValidPriority reports whether p is on the priority scale.
func IsValidPriority(p string) bool {
	for _, v := range ValidPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// ErrStructuralViolation is returned when an operation would break the
// board's hierarchy rules, e.g. moving a subtask across columns directly.
var ErrStructuralViolation = errors.New("operation violates board structure")

// Direction selects the neighbor for move and reorder operations.
type Direction int

const (
	// Prev moves toward the start: the previous sibling or previous column.
	Prev Direction = -1
	// Next moves toward the end: the next sibling or next column.
	Next Direction = 1
)

// Task is a single item on the board. Top-level tasks (Level 0) live in a
// column's task list; nested tasks live in their parent's Subtasks slice,
// which is the only ownership edge. Parent is a back-reference only.
type Task struct {
	Title    string
	Tags     []string
	Priority string     // "P0".."P4", empty when unset
	Updated  *time.Time // stamped on structural moves, used for sync tie-breaks
	Column   string
	Level    int
	Parent   *Task
	Subtasks []*Task

	// SyncID is a stable identifier assigned at first successful sync and
	// persisted in the document as a hidden marker. Empty until then.
	SyncID string

	// SourceLine is the 1-based line of the task in the parsed document,
	// zero for tasks created programmatically. Diagnostics only.
	SourceLine int
}

// String renders a short diagnostic form.
func (t *Task) String() string {
	return fmt.Sprintf("[%s] %s", t.Column, t.Title)
}

// Touch stamps the task's last-modified instant.
func (t *Task) Touch() {
	ts := now().Truncate(time.Minute)
	t.Updated = &ts
}

// AddTag appends a tag, collapsing duplicates while keeping first-seen order.
func (t *Task) AddTag(tag string) {
	for _, existing := range t.Tags {
		if existing == tag {
			return
		}
	}
	t.Tags = append(t.Tags, tag)
}

// AddSubtask appends child to the task's subtask list and fixes up the
// child's level, column and parent reference for the whole subtree.
func (t *Task) AddSubtask(child *Task) {
	child.Parent = t
	t.Subtasks = append(t.Subtasks, child)
	child.propagate(t.Column, t.Level+1)
}

// propagate rewrites column and level for the task and all descendants.
func (t *Task) propagate(column string, level int) {
	t.Column = column
	t.Level = level
	for _, sub := range t.Subtasks {
		sub.propagate(column, level+1)
	}
}

// Board groups top-level tasks by column. Column order is the order the
// column headings first appeared in the source document, including columns
// that currently have no tasks.
type Board struct {
	Title   string
	Columns []string
	Meta    *config.FrontMatter

	tasks map[string][]*Task // column name -> top-level tasks
}

// DefaultColumns seed a board when the document defines none.
var DefaultColumns = []string{"Todo", "In Progress", "Done"}

// New returns an empty board with no columns.
func New(title string) *Board {
	return &Board{
		Title: title,
		tasks: make(map[string][]*Task),
	}
}

// NewDefault returns a board seeded with the default column set.
func NewDefault(title string) *Board {
	b := New(title)
	for _, c := range DefaultColumns {
		b.AddColumn(c)
	}
	return b
}

// HasColumn reports whether the named column exists.
func (b *Board) HasColumn(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column if it is not already present.
func (b *Board) AddColumn(name string) {
	if b.HasColumn(name) {
		return
	}
	b.Columns = append(b.Columns, name)
	if b.tasks == nil {
		b.tasks = make(map[string][]*Task)
	}
	if _, ok := b.tasks[name]; !ok {
		b.tasks[name] = []*Task{}
	}
}

// Tasks returns the top-level tasks of a column in display order.
func (b *Board) Tasks(column string) []*Task {
	return b.tasks[column]
}

// AddTask appends a top-level task to the named column, creating the column
// at the end of the column order if needed.
func (b *Board) AddTask(column string, t *Task) {
	b.AddColumn(column)
	t.Parent = nil
	t.propagate(column, 0)
	b.tasks[column] = append(b.tasks[column], t)
}

// AllTasks returns every task, all levels included, in file order: columns
// in order, each top-level task followed depth-first by its subtasks.
func (b *Board) AllTasks() []*Task {
	var out []*Task
	var walk func(*Task)
	walk = func(t *Task) {
		out = append(out, t)
		for _, sub := range t.Subtasks {
			walk(sub)
		}
	}
	for _, column := range b.Columns {
		for _, t := range b.tasks[column] {
			walk(t)
		}
	}
	return out
}

// TaskCount returns the total number of tasks on the board, all levels.
func (b *Board) TaskCount() int {
	return len(b.AllTasks())
}

// siblings returns the sibling list containing t: the column's top-level
// list for level-0 tasks, the parent's subtask list otherwise.
func (b *Board) siblings(t *Task) []*Task {
	if t.Level == 0 {
		return b.tasks[t.Column]
	}
	if t.Parent == nil {
		return nil
	}
	return t.Parent.Subtasks
}

func indexOf(tasks []*Task, t *Task) int {
	for i, other := range tasks {
		if other == t {
			return i
		}
	}
	return -1
}

// Reorder swaps t with its previous or next sibling. Reordering past the
// boundary of the sibling list is a no-op. Returns true when the task moved.
func (b *Board) Reorder(t *Task, dir Direction) bool {
	siblings := b.siblings(t)
	i := indexOf(siblings, t)
	if i < 0 {
		return false
	}
	j := i + int(dir)
	if j < 0 || j >= len(siblings) {
		return false
	}
	siblings[i], siblings[j] = siblings[j], siblings[i]
	t.Touch()
	return true
}

// MoveColumn relocates a top-level task, with its entire subtree, to the
// adjacent column. Moving past the first or last column is a no-op. Subtasks
// cannot be moved across columns on their own.
func (b *Board) MoveColumn(t *Task, dir Direction) (bool, error) {
	if t.Level != 0 {
		return false, fmt.Errorf("%w: only top-level tasks move between columns", ErrStructuralViolation)
	}

	col := -1
	for i, name := range b.Columns {
		if name == t.Column {
			col = i
			break
		}
	}
	if col < 0 {
		return false, fmt.Errorf("%w: task column %q not on board", ErrStructuralViolation, t.Column)
	}

	target := col + int(dir)
	if target < 0 || target >= len(b.Columns) {
		return false, nil
	}

	tasks := b.tasks[t.Column]
	i := indexOf(tasks, t)
	if i < 0 {
		return false, fmt.Errorf("%w: task not found in column %q", ErrStructuralViolation, t.Column)
	}
	b.tasks[t.Column] = append(tasks[:i], tasks[i+1:]...)

	dest := b.Columns[target]
	t.propagate(dest, 0)
	b.tasks[dest] = append(b.tasks[dest], t)
	t.Touch()
	return true, nil
}

// RemoveTask detaches t and its whole subtree from the board. Returns false
// when the task is not on the board.
func (b *Board) RemoveTask(t *Task) bool {
	if t.Level == 0 {
		tasks := b.tasks[t.Column]
		i := indexOf(tasks, t)
		if i < 0 {
			return false
		}
		b.tasks[t.Column] = append(tasks[:i], tasks[i+1:]...)
		return true
	}
	if t.Parent == nil {
		return false
	}
	i := indexOf(t.Parent.Subtasks, t)
	if i < 0 {
		return false
	}
	t.Parent.Subtasks = append(t.Parent.Subtasks[:i], t.Parent.Subtasks[i+1:]...)
	t.Parent = nil
	return true
}

// ColumnFilter excludes columns from display.
type ColumnFilter struct {
	HideEmpty bool
	Hidden    []string // column names to hide
}

// VisibleColumns returns the column order with filtered columns removed.
// Callers holding a "current column" reference must check membership in the
// result before using it as an index.
func (b *Board) VisibleColumns(filter ColumnFilter) []string {
	hidden := make(map[string]bool, len(filter.Hidden))
	for _, name := range filter.Hidden {
		hidden[name] = true
	}

	var out []string
	for _, name := range b.Columns {
		if hidden[name] {
			continue
		}
		if filter.HideEmpty && len(b.tasks[name]) == 0 {
			continue
		}
		out = append(out, name)
	}
	return out
}
