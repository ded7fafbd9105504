package sync_test

import (
	"testing"

	"tuido/internal/sync"
	"tuido/remote"
)

// TestBoardFromRecords verifies the cross-project view groups by status,
// prefixes titles with their project, and keeps the standard column order.
func TestBoardFromRecords(t *testing.T) {
	records := []remote.Record{
		{Task: "Deploy", Project: "infra", Status: "Done"},
		{Task: "Write spec", Project: "app", Status: "Todo", Priority: "P1"},
		{Task: "Audit", Project: "infra", Status: "Blocked"},
		{Task: "", Project: "app", Status: "Todo"}, // empty titles are skipped
		{Task: "No status", Project: "app"},
	}

	b := sync.BoardFromRecords(records)

	want := []string{"Todo", "Done", "Blocked"}
	if len(b.Columns) != len(want) {
		t.Fatalf("expected columns %v, got %v", want, b.Columns)
	}
	for i, c := range want {
		if b.Columns[i] != c {
			t.Errorf("column %d: expected %q, got %q", i, c, b.Columns[i])
		}
	}

	todo := b.Tasks("Todo")
	if len(todo) != 2 {
		t.Fatalf("expected 2 Todo tasks, got %+v", todo)
	}
	if todo[0].Title != "[app] Write spec" || todo[0].Priority != "P1" {
		t.Errorf("unexpected first Todo task: %+v", todo[0])
	}
	if todo[1].Title != "[app] No status" {
		t.Errorf("expected missing status defaulted to Todo, got %+v", todo[1])
	}
	if len(b.Tasks("Blocked")) != 1 {
		t.Errorf("expected unknown status to become its own column")
	}
}
