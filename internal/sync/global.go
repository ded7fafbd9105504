package sync

import (
	"fmt"

	"tuido/internal/board"
	"tuido/remote"
)

// statusOrder is the preferred column order for the cross-project view;
// statuses outside it are appended in first-appearance order.
var statusOrder = []string{"Todo", "In Progress", "Review", "Done"}

// BoardFromRecords builds a read-only board from a remote snapshot spanning
// every project. Task titles are prefixed with their project so the global
// view stays unambiguous.
func BoardFromRecords(records []remote.Record) *board.Board {
	b := board.New("Global Task View")

	grouped := make(map[string][]*board.Task)
	var extraColumns []string
	known := make(map[string]bool, len(statusOrder))
	for _, s := range statusOrder {
		known[s] = true
	}

	for _, rec := range records {
		if rec.Task == "" {
			continue
		}
		status := rec.Status
		if status == "" {
			status = statusOrder[0]
		}
		title := rec.Task
		if rec.Project != "" {
			title = fmt.Sprintf("[%s] %s", rec.Project, rec.Task)
		}
		t := &board.Task{
			Title:    title,
			Tags:     append([]string(nil), rec.Tags...),
			Priority: rec.Priority,
		}
		if _, seen := grouped[status]; !seen && !known[status] {
			extraColumns = append(extraColumns, status)
		}
		grouped[status] = append(grouped[status], t)
	}

	for _, status := range statusOrder {
		if tasks, ok := grouped[status]; ok {
			for _, t := range tasks {
				b.AddTask(status, t)
			}
		}
	}
	for _, status := range extraColumns {
		for _, t := range grouped[status] {
			b.AddTask(status, t)
		}
	}
	return b
}
