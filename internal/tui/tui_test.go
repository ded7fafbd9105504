package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tuido/internal/markdown"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func testModel(t *testing.T, doc string) *Model {
	t.Helper()
	b, warnings := markdown.Parse(doc)
	if len(warnings) != 0 {
		t.Fatalf("fixture has warnings: %v", warnings)
	}
	return New(b, "dracula", nil)
}

func press(m *Model, keys ...string) *Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(*Model)
	}
	return m
}

const tuiDoc = `## Todo
- First
  - Child
- Second

## In Progress
- Working

## Done
`

// TestNavigation verifies cursor movement across columns and rows.
func TestNavigation(t *testing.T) {
	m := testModel(t, tuiDoc)

	if m.currentColumn() != "Todo" || m.currentTask().Title != "First" {
		t.Fatalf("unexpected initial selection: %s / %v", m.currentColumn(), m.currentTask())
	}

	m = press(m, "j")
	if m.currentTask().Title != "Child" {
		t.Errorf("expected j to reach the subtask row, got %q", m.currentTask().Title)
	}

	m = press(m, "l")
	if m.currentColumn() != "In Progress" || m.currentTask().Title != "Working" {
		t.Errorf("expected l to change column and clamp the cursor, got %s / %v",
			m.currentColumn(), m.currentTask())
	}

	m = press(m, "h", "h")
	if m.currentColumn() != "Todo" {
		t.Errorf("expected h to stop at the first column, got %q", m.currentColumn())
	}
}

// TestMoveTaskAcrossColumns verifies L moves the subtree and the cursor
// follows the task.
func TestMoveTaskAcrossColumns(t *testing.T) {
	m := testModel(t, tuiDoc)

	m = press(m, "L")
	if m.currentColumn() != "In Progress" {
		t.Fatalf("expected cursor to follow into In Progress, got %q", m.currentColumn())
	}
	if m.currentTask().Title != "First" {
		t.Errorf("expected First selected after move, got %q", m.currentTask().Title)
	}
	if len(m.board.Tasks("In Progress")) != 2 {
		t.Errorf("expected task moved into In Progress")
	}
	if m.currentTask().Subtasks[0].Column != "In Progress" {
		t.Errorf("expected subtask to move with its parent")
	}
}

// TestMoveSubtaskRefused verifies moving a subtask across columns only sets
// a status message.
func TestMoveSubtaskRefused(t *testing.T) {
	m := testModel(t, tuiDoc)

	m = press(m, "j", "L")
	if m.status == "" {
		t.Error("expected a status message for refused move")
	}
	if len(m.board.Tasks("Todo")) != 2 {
		t.Errorf("board must be unchanged after refused move")
	}
}

// TestReorderKeys verifies J/K swap siblings and keep the selection.
func TestReorderKeys(t *testing.T) {
	m := testModel(t, tuiDoc)

	m = press(m, "J")
	tasks := m.board.Tasks("Todo")
	if tasks[0].Title != "Second" || tasks[1].Title != "First" {
		t.Errorf("expected J to swap top-level siblings, got %v", tasks)
	}
	if m.currentTask().Title != "First" {
		t.Errorf("expected selection to follow the task, got %q", m.currentTask().Title)
	}
}

// TestAddTask verifies add mode parses metadata tokens from the input.
func TestAddTask(t *testing.T) {
	m := testModel(t, tuiDoc)

	m = press(m, "a")
	if m.mode != ModeAdd {
		t.Fatalf("expected add mode, got %v", m.mode)
	}
	m.textInput.SetValue("New thing #infra !P1")
	m = press(m, "enter")

	if m.mode != ModeNormal {
		t.Errorf("expected return to normal mode")
	}
	tasks := m.board.Tasks("Todo")
	added := tasks[len(tasks)-1]
	if added.Title != "New thing" || added.Priority != "P1" || len(added.Tags) != 1 {
		t.Errorf("expected token parsing on add, got %+v", added)
	}
	if added.Updated == nil {
		t.Error("expected added task stamped")
	}
	if m.currentTask() != added {
		t.Errorf("expected cursor on the new task")
	}
}

// TestAddCancel verifies esc leaves add mode without touching the board.
func TestAddCancel(t *testing.T) {
	m := testModel(t, tuiDoc)
	before := m.board.TaskCount()

	m = press(m, "a")
	m.textInput.SetValue("Discarded")
	m = press(m, "esc")

	if m.mode != ModeNormal || m.board.TaskCount() != before {
		t.Error("expected cancel to leave the board unchanged")
	}
}

// TestDeleteConfirm verifies d asks first and y removes the subtree.
func TestDeleteConfirm(t *testing.T) {
	m := testModel(t, tuiDoc)

	m = press(m, "d")
	if m.mode != ModeConfirmDelete {
		t.Fatalf("expected confirm mode, got %v", m.mode)
	}

	m = press(m, "n")
	if m.board.TaskCount() != 4 {
		t.Errorf("expected n to keep the task")
	}

	m = press(m, "d", "y")
	if m.board.TaskCount() != 2 {
		t.Errorf("expected task and subtask removed, got %d", m.board.TaskCount())
	}
}

// TestReloadMsg verifies an external reload swaps the board and clamps the
// cursor.
func TestReloadMsg(t *testing.T) {
	m := testModel(t, tuiDoc)
	m = press(m, "j", "j") // move below what the new board will hold

	fresh, _ := markdown.Parse("## Todo\n- Only\n")
	next, _ := m.Update(ReloadMsg{Board: fresh})
	m = next.(*Model)

	if m.board != fresh {
		t.Fatal("expected board replaced")
	}
	if m.currentTask().Title != "Only" {
		t.Errorf("expected cursor clamped onto the remaining task, got %v", m.currentTask())
	}
}

// TestViewRendersColumns smoke-tests the full render path.
func TestViewRendersColumns(t *testing.T) {
	m := testModel(t, tuiDoc)
	m.width, m.height = 120, 40

	out := m.View()
	for _, want := range []string{"Todo", "In Progress", "Done", "First", "Working"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in view output", want)
		}
	}
}
