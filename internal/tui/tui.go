// Package tui provides the interactive kanban board view of a task
// document.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tuido/internal/board"
	"tuido/internal/markdown"
	"tuido/internal/theme"
)

// SaveFunc persists the board back to its document.
type SaveFunc func(*board.Board) error

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeHelp
	ModeConfirmDelete
)

// row is one visible line in a column: a task at any nesting level.
type row struct {
	task *board.Task
}

// Model represents the TUI state
type Model struct {
	board *board.Board
	save  SaveFunc

	// Selection
	columnCursor int
	taskCursor   int

	// Mode and input
	mode      Mode
	textInput textinput.Model
	status    string

	// UI dimensions
	width  int
	height int

	// Styles
	columnStyle       lipgloss.Style
	activeColumnStyle lipgloss.Style
	headerStyle       lipgloss.Style
	taskStyle         lipgloss.Style
	selectedStyle     lipgloss.Style
	tagStyle          lipgloss.Style
	priorityStyle     lipgloss.Style
	statusBarStyle    lipgloss.Style
	helpStyle         lipgloss.Style
}

// New creates a board TUI over b. save is called when the user quits.
func New(b *board.Board, themeName string, save SaveFunc) *Model {
	ti := textinput.New()
	ti.Placeholder = "Task title #tag !P2"
	ti.CharLimit = 256

	t := theme.Get(themeName)
	return &Model{
		board:     b,
		save:      save,
		textInput: ti,
		columnStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		activeColumnStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Padding(0, 1),
		headerStyle:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		taskStyle:      lipgloss.NewStyle().Foreground(t.Text),
		selectedStyle:  lipgloss.NewStyle().Foreground(t.Highlight).Bold(true),
		tagStyle:       lipgloss.NewStyle().Foreground(t.Tag),
		priorityStyle:  lipgloss.NewStyle().Foreground(t.Priority),
		statusBarStyle: lipgloss.NewStyle().Foreground(t.Muted),
		helpStyle:      lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// rows returns the visible rows of a column: top-level tasks depth-first
// with their subtasks.
func (m *Model) rows(column string) []row {
	var out []row
	var walk func(*board.Task)
	walk = func(t *board.Task) {
		out = append(out, row{task: t})
		for _, sub := range t.Subtasks {
			walk(sub)
		}
	}
	for _, t := range m.board.Tasks(column) {
		walk(t)
	}
	return out
}

// currentColumn returns the column under the cursor, or "" when the board
// has no columns.
func (m *Model) currentColumn() string {
	cols := m.board.Columns
	if len(cols) == 0 {
		return ""
	}
	if m.columnCursor >= len(cols) {
		m.columnCursor = len(cols) - 1
	}
	return cols[m.columnCursor]
}

// currentTask returns the task under the cursor, or nil.
func (m *Model) currentTask() *board.Task {
	col := m.currentColumn()
	if col == "" {
		return nil
	}
	rows := m.rows(col)
	if len(rows) == 0 {
		return nil
	}
	if m.taskCursor >= len(rows) {
		m.taskCursor = len(rows) - 1
	}
	return rows[m.taskCursor].task
}

// clampTaskCursor keeps the task cursor inside the current column.
func (m *Model) clampTaskCursor() {
	col := m.currentColumn()
	n := len(m.rows(col))
	if n == 0 {
		m.taskCursor = 0
	} else if m.taskCursor >= n {
		m.taskCursor = n - 1
	}
}

// ReloadMsg replaces the board after the document changed on disk.
type ReloadMsg struct {
	Board *board.Board
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ReloadMsg:
		m.board = msg.Board
		m.clampTaskCursor()
		m.status = "reloaded from disk"
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd:
			return m.updateAdd(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateNormal(msg)
		}
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q", "ctrl+c":
		if m.save != nil {
			if err := m.save(m.board); err != nil {
				m.status = "save failed: " + err.Error()
				return m, nil
			}
		}
		return m, tea.Quit

	case "h", "left":
		if m.columnCursor > 0 {
			m.columnCursor--
			m.clampTaskCursor()
		}
	case "l", "right", "tab":
		if m.columnCursor < len(m.board.Columns)-1 {
			m.columnCursor++
			m.clampTaskCursor()
		}
	case "j", "down":
		if rows := m.rows(m.currentColumn()); m.taskCursor < len(rows)-1 {
			m.taskCursor++
		}
	case "k", "up":
		if m.taskCursor > 0 {
			m.taskCursor--
		}

	case "J":
		if t := m.currentTask(); t != nil {
			m.board.Reorder(t, board.Next)
			m.followTask(t)
		}
	case "K":
		if t := m.currentTask(); t != nil {
			m.board.Reorder(t, board.Prev)
			m.followTask(t)
		}
	case "H":
		m.moveAcross(board.Prev)
	case "L":
		m.moveAcross(board.Next)

	case "a":
		m.mode = ModeAdd
		m.textInput.SetValue("")
		m.textInput.Focus()
		return m, textinput.Blink
	case "d", "x":
		if m.currentTask() != nil {
			m.mode = ModeConfirmDelete
		}
	case "?":
		m.mode = ModeHelp
	}
	return m, nil
}

// moveAcross moves the selected task to the adjacent column, following it
// with the cursor.
func (m *Model) moveAcross(dir board.Direction) {
	t := m.currentTask()
	if t == nil {
		return
	}
	moved, err := m.board.MoveColumn(t, dir)
	if err != nil {
		m.status = "subtasks move with their parent"
		return
	}
	if moved {
		m.columnCursor += int(dir)
		m.followTask(t)
	}
}

// followTask positions the task cursor on t within the current column.
func (m *Model) followTask(t *board.Task) {
	for i, r := range m.rows(m.currentColumn()) {
		if r.task == t {
			m.taskCursor = i
			return
		}
	}
	m.clampTaskCursor()
}

func (m *Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.textInput.Value())
		m.mode = ModeNormal
		m.textInput.Blur()
		if text != "" {
			col := m.currentColumn()
			if col == "" {
				col = board.DefaultColumns[0]
			}
			// Reuse the codec's token syntax so "title #tag !P1" works.
			parsed, _ := markdown.Parse("## " + col + "\n- " + text + "\n")
			if tasks := parsed.Tasks(col); len(tasks) > 0 {
				t := tasks[0]
				t.Touch()
				m.board.AddTask(col, t)
				m.followTask(t)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if t := m.currentTask(); t != nil {
			m.board.RemoveTask(t)
			m.clampTaskCursor()
		}
	}
	m.mode = ModeNormal
	return m, nil
}

// renderTask renders one task row.
func (m *Model) renderTask(t *board.Task, selected bool) string {
	indent := strings.Repeat("  ", t.Level)
	line := indent + "• " + t.Title

	style := m.taskStyle
	if selected {
		style = m.selectedStyle
		line = indent + "▸ " + t.Title
	}
	rendered := style.Render(line)

	if t.Priority != "" {
		rendered += " " + m.priorityStyle.Render("!"+t.Priority)
	}
	for _, tag := range t.Tags {
		rendered += " " + m.tagStyle.Render("#"+tag)
	}
	return rendered
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.mode {
	case ModeHelp:
		return m.helpView()
	}

	cols := m.board.Columns
	if len(cols) == 0 {
		return m.statusBarStyle.Render("empty board; press a to add a task, q to quit")
	}

	colWidth := 28
	if m.width > 0 {
		if w := m.width/len(cols) - 2; w > 12 {
			colWidth = w
		}
	}

	var rendered []string
	for ci, col := range cols {
		active := ci == m.columnCursor
		var sb strings.Builder
		sb.WriteString(m.headerStyle.Render(fmt.Sprintf("%s (%d)", col, len(m.board.Tasks(col)))))
		sb.WriteString("\n")
		for ri, r := range m.rows(col) {
			sb.WriteString(m.renderTask(r.task, active && ri == m.taskCursor))
			sb.WriteString("\n")
		}

		style := m.columnStyle
		if active {
			style = m.activeColumnStyle
		}
		rendered = append(rendered, style.Width(colWidth).Render(strings.TrimRight(sb.String(), "\n")))
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	switch m.mode {
	case ModeAdd:
		view += "\n" + m.textInput.View()
	case ModeConfirmDelete:
		if t := m.currentTask(); t != nil {
			view += "\n" + m.statusBarStyle.Render(fmt.Sprintf("delete %q and its subtasks? (y/N)", t.Title))
		}
	default:
		bar := "h/l columns  j/k tasks  H/L move  J/K reorder  a add  d delete  ? help  q quit"
		if m.status != "" {
			bar = m.status
		}
		view += "\n" + m.statusBarStyle.Render(bar)
	}
	return view
}

func (m *Model) helpView() string {
	help := `tuido board

  h / l        previous / next column
  j / k        next / previous task
  H / L        move task to adjacent column (with its subtasks)
  J / K        reorder task among its siblings
  a            add a task to the current column
  d            delete the selected task (and subtasks)
  q            save and quit

  Task syntax: title text #tag !P0..P4

Press any key to return.`
	return m.helpStyle.Render(help)
}
