package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuido/internal/board"
)

// buildBoard returns a three-column board with one subtask tree in Todo.
func buildBoard() (*board.Board, *board.Task, *board.Task) {
	b := board.NewDefault("TEST")
	parent := &board.Task{Title: "Parent"}
	child := &board.Task{Title: "Child"}
	grandchild := &board.Task{Title: "Grandchild"}
	child.AddSubtask(grandchild)
	parent.AddSubtask(child)
	b.AddTask("Todo", parent)
	b.AddTask("Todo", &board.Task{Title: "Sibling"})
	return b, parent, child
}

// TestAddTaskPropagatesHierarchy verifies column and level flow down the
// subtree when a task lands on the board.
func TestAddTaskPropagatesHierarchy(t *testing.T) {
	_, parent, child := buildBoard()

	assert.Equal(t, 0, parent.Level)
	assert.Equal(t, "Todo", parent.Column)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, "Todo", child.Column)
	require.Len(t, child.Subtasks, 1)
	assert.Equal(t, 2, child.Subtasks[0].Level)
	assert.Equal(t, "Todo", child.Subtasks[0].Column)
	assert.Same(t, parent, child.Parent)
}

// TestMoveColumnMovesSubtree verifies a column move relocates the whole tree
// in one operation.
func TestMoveColumnMovesSubtree(t *testing.T) {
	b, parent, child := buildBoard()

	moved, err := b.MoveColumn(parent, board.Next)
	require.NoError(t, err)
	assert.True(t, moved)

	assert.Equal(t, "In Progress", parent.Column)
	assert.Equal(t, "In Progress", child.Column)
	assert.Equal(t, "In Progress", child.Subtasks[0].Column)
	assert.Len(t, b.Tasks("In Progress"), 1)
	assert.Len(t, b.Tasks("Todo"), 1)
	assert.NotNil(t, parent.Updated, "move should stamp the task")
}

// TestMoveColumnRejectsSubtask verifies subtasks cannot change columns on
// their own.
func TestMoveColumnRejectsSubtask(t *testing.T) {
	b, _, child := buildBoard()

	moved, err := b.MoveColumn(child, board.Next)
	assert.False(t, moved)
	require.Error(t, err)
	assert.ErrorIs(t, err, board.ErrStructuralViolation)
	assert.Equal(t, "Todo", child.Column, "failed move must not mutate the task")
}

// TestMoveColumnBoundary verifies moving past the first or last column is a
// quiet no-op.
func TestMoveColumnBoundary(t *testing.T) {
	b, parent, _ := buildBoard()

	moved, err := b.MoveColumn(parent, board.Prev)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, "Todo", parent.Column)
	assert.Nil(t, parent.Updated, "boundary no-op must not stamp the task")
}

// TestReorderSwapsSiblings verifies reorder swaps adjacent siblings and stops
// at the list boundary.
func TestReorderSwapsSiblings(t *testing.T) {
	b, parent, _ := buildBoard()

	assert.False(t, b.Reorder(parent, board.Prev), "first task cannot move up")

	require.True(t, b.Reorder(parent, board.Next))
	tasks := b.Tasks("Todo")
	assert.Equal(t, "Sibling", tasks[0].Title)
	assert.Equal(t, "Parent", tasks[1].Title)

	assert.False(t, b.Reorder(parent, board.Next), "last task cannot move down")
}

// TestReorderSubtasks verifies reorder works inside a subtask list.
func TestReorderSubtasks(t *testing.T) {
	b := board.NewDefault("TEST")
	parent := &board.Task{Title: "Parent"}
	a := &board.Task{Title: "A"}
	c := &board.Task{Title: "B"}
	parent.AddSubtask(a)
	parent.AddSubtask(c)
	b.AddTask("Todo", parent)

	require.True(t, b.Reorder(c, board.Prev))
	assert.Equal(t, "B", parent.Subtasks[0].Title)
	assert.Equal(t, "A", parent.Subtasks[1].Title)
}

// TestRemoveTask verifies removal detaches the whole subtree for top-level
// tasks and just the node for subtasks.
func TestRemoveTask(t *testing.T) {
	b, parent, child := buildBoard()

	require.True(t, b.RemoveTask(child))
	assert.Empty(t, parent.Subtasks)
	assert.Nil(t, child.Parent)

	require.True(t, b.RemoveTask(parent))
	assert.Len(t, b.Tasks("Todo"), 1)
	assert.False(t, b.RemoveTask(parent), "double remove reports false")
}

// TestAllTasksFileOrder verifies AllTasks walks columns in order, subtrees
// depth-first.
func TestAllTasksFileOrder(t *testing.T) {
	b, _, _ := buildBoard()
	b.AddTask("In Progress", &board.Task{Title: "Working"})

	var titles []string
	for _, task := range b.AllTasks() {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"Parent", "Child", "Grandchild", "Sibling", "Working"}, titles)
}

// TestVisibleColumns verifies hide-empty and explicit hide filters.
func TestVisibleColumns(t *testing.T) {
	b, _, _ := buildBoard()

	assert.Equal(t, []string{"Todo"},
		b.VisibleColumns(board.ColumnFilter{HideEmpty: true}))
	assert.Equal(t, []string{"In Progress", "Done"},
		b.VisibleColumns(board.ColumnFilter{Hidden: []string{"Todo"}}))
	assert.Equal(t, []string{"Todo", "In Progress", "Done"},
		b.VisibleColumns(board.ColumnFilter{}))
}

// TestAddTagCollapsesDuplicates verifies tags stay unique in first-seen order.
func TestAddTagCollapsesDuplicates(t *testing.T) {
	task := &board.Task{Title: "T"}
	task.AddTag("x")
	task.AddTag("y")
	task.AddTag("x")
	assert.Equal(t, []string{"x", "y"}, task.Tags)
}

// TestAddTaskCreatesColumn verifies unknown columns are appended to the order.
func TestAddTaskCreatesColumn(t *testing.T) {
	b := board.NewDefault("TEST")
	b.AddTask("Review", &board.Task{Title: "New"})
	assert.Equal(t, []string{"Todo", "In Progress", "Done", "Review"}, b.Columns)
}

// TestIsValidPriority covers the P0..P4 scale.
func TestIsValidPriority(t *testing.T) {
	for _, p := range board.ValidPriorities {
		assert.True(t, board.IsValidPriority(p), p)
	}
	assert.False(t, board.IsValidPriority("P5"))
	assert.False(t, board.IsValidPriority(""))
}
