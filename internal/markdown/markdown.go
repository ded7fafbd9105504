// Package markdown is the codec between the on-disk TODO.md format and the
// board model. Parse accepts any input conforming to the documented layout;
// Serialize is its left inverse up to normalization, so serializing a parsed
// document a second time is byte-identical to the first serialization.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tuido/internal/board"
	"tuido/internal/config"
)

// TimestampLayout is the ~ token format on task lines.
const TimestampLayout = "2006-01-02T15:04"

// DefaultTitle is used when the document has no level-1 heading.
const DefaultTitle = "TUIDO"

var (
	tagPattern       = regexp.MustCompile(`#(\w+)`)
	priorityPattern  = regexp.MustCompile(`!([Pp][0-4])`)
	timestampPattern = regexp.MustCompile(`~(\d{4}-\d{2}-\d{2}T\d{2}:\d{2})`)
	syncIDPattern    = regexp.MustCompile(`<!--\s*id:([0-9a-fA-F-]+)\s*-->`)
	spaceRun         = regexp.MustCompile(`\s+`)
)

// Warning is a recoverable parse problem. Parsing always continues; the
// offending construct is clamped or defaulted.
type Warning struct {
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// Parse reads a task document into a board. It never fails: malformed front
// matter and unexpected indentation are reported as warnings and parsing
// continues with a defaulted interpretation.
func Parse(src string) (*board.Board, []Warning) {
	lines := strings.Split(src, "\n")
	var warnings []Warning

	b := board.New(DefaultTitle)

	meta, bodyStart, warn := parseFrontMatter(lines)
	if warn != nil {
		warnings = append(warnings, *warn)
	}
	b.Meta = meta

	currentColumn := ""
	var stack []*board.Task // enclosing tasks, stack[i] has level i

	for i := bodyStart; i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1
		stripped := strings.TrimSpace(line)

		switch {
		case stripped == "":
			continue

		case strings.HasPrefix(stripped, "## "):
			currentColumn = strings.TrimSpace(stripped[3:])
			b.AddColumn(currentColumn)
			stack = stack[:0]
			continue

		case strings.HasPrefix(stripped, "# "):
			// Document title; structure is defined by level-2 headings only.
			b.Title = strings.TrimSpace(stripped[2:])
			continue

		case strings.HasPrefix(stripped, "- "):
			if currentColumn == "" {
				currentColumn = board.DefaultColumns[0]
				b.AddColumn(currentColumn)
			}

			leading := len(line) - len(strings.TrimLeft(line, " "))
			level := leading / 2
			if level > len(stack) {
				warnings = append(warnings, Warning{
					Line:    lineNo,
					Message: fmt.Sprintf("indentation jumps to level %d, clamped to %d", level, len(stack)),
				})
				level = len(stack)
			}

			task := parseTaskLine(stripped[2:], lineNo)

			// A level at or below an ancestor closes that ancestor's subtree.
			stack = stack[:level]
			if level > 0 {
				stack[level-1].AddSubtask(task)
			} else {
				b.AddTask(currentColumn, task)
			}
			stack = append(stack, task)
		}
	}

	if len(b.Columns) == 0 {
		for _, c := range board.DefaultColumns {
			b.AddColumn(c)
		}
	}
	return b, warnings
}

// parseFrontMatter handles the optional leading `---` block. Returns the
// parsed settings (nil when absent or malformed), the index of the first
// body line, and a warning for malformed YAML.
func parseFrontMatter(lines []string) (*config.FrontMatter, int, *Warning) {
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "---" {
		return nil, 0, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		// Unterminated block: treat the whole document as body.
		return nil, 0, nil
	}

	blob := strings.Join(lines[1:end], "\n")
	fm, err := config.ParseFrontMatter([]byte(blob))
	if err != nil {
		return nil, end + 1, &Warning{Line: 1, Message: err.Error()}
	}
	if fm.Empty() {
		fm = nil
	}
	return fm, end + 1, nil
}

// parseTaskLine extracts metadata tokens from the bullet text. Tags may
// appear many times, the last priority token wins, and at most one
// timestamp and one hidden sync-id marker are honored.
func parseTaskLine(content string, lineNo int) *board.Task {
	task := &board.Task{SourceLine: lineNo}

	if m := syncIDPattern.FindStringSubmatch(content); m != nil {
		task.SyncID = m[1]
		content = syncIDPattern.ReplaceAllString(content, "")
	}

	for _, m := range tagPattern.FindAllStringSubmatch(content, -1) {
		task.AddTag(m[1])
	}
	content = tagPattern.ReplaceAllString(content, "")

	if ms := priorityPattern.FindAllStringSubmatch(content, -1); len(ms) > 0 {
		task.Priority = strings.ToUpper(ms[len(ms)-1][1])
		content = priorityPattern.ReplaceAllString(content, "")
	}

	if m := timestampPattern.FindStringSubmatch(content); m != nil {
		if ts, err := time.ParseInLocation(TimestampLayout, m[1], time.Local); err == nil {
			task.Updated = &ts
		}
		content = timestampPattern.ReplaceAllString(content, "")
	}

	task.Title = strings.TrimSpace(spaceRun.ReplaceAllString(content, " "))
	return task
}

// FormatTask renders one task line without indentation, tokens in canonical
// order: title, tags, priority, timestamp, hidden sync-id marker.
func FormatTask(t *board.Task) string {
	var sb strings.Builder
	sb.WriteString(t.Title)
	for _, tag := range t.Tags {
		sb.WriteString(" #")
		sb.WriteString(tag)
	}
	if t.Priority != "" {
		sb.WriteString(" !")
		sb.WriteString(strings.ToUpper(t.Priority))
	}
	if t.Updated != nil {
		sb.WriteString(" ~")
		sb.WriteString(t.Updated.Format(TimestampLayout))
	}
	if t.SyncID != "" {
		sb.WriteString(" <!--id:")
		sb.WriteString(t.SyncID)
		sb.WriteString("-->")
	}
	return sb.String()
}

// writeTaskTree writes a task and its subtasks depth-first.
func writeTaskTree(sb *strings.Builder, t *board.Task) {
	sb.WriteString(strings.Repeat("  ", t.Level))
	sb.WriteString("- ")
	sb.WriteString(FormatTask(t))
	sb.WriteString("\n")
	for _, sub := range t.Subtasks {
		writeTaskTree(sb, sub)
	}
}

// Serialize renders the board back to document text. Columns are emitted in
// board order; a column with no tasks still gets its heading.
func Serialize(b *board.Board) string {
	var sb strings.Builder

	if !b.Meta.Empty() {
		if data, err := b.Meta.Marshal(); err == nil {
			sb.WriteString("---\n")
			sb.Write(data)
			if !strings.HasSuffix(string(data), "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString("---\n\n")
		}
	}

	title := b.Title
	if title == "" {
		title = DefaultTitle
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	for _, column := range b.Columns {
		sb.WriteString("## ")
		sb.WriteString(column)
		sb.WriteString("\n")
		for _, t := range b.Tasks(column) {
			writeTaskTree(&sb, t)
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}
