package sync_test

import (
	"context"
	"path/filepath"
	"testing"

	"tuido/internal/sync"
)

// TestStateStoreRoundTrip verifies entries survive close and reopen.
func TestStateStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.db")
	ctx := context.Background()

	state, err := sync.OpenState(path)
	if err != nil {
		t.Fatalf("OpenState failed: %v", err)
	}
	entry := sync.StateEntry{SyncID: "id-1", MatchKey: "Task A", RemoteID: "rec9"}
	if err := state.MarkSeen(ctx, "proj", entry); err != nil {
		t.Fatalf("MarkSeen failed: %v", err)
	}
	if err := state.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	state, err = sync.OpenState(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = state.Close() }()

	entries, err := state.Entries(ctx, "proj")
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.SyncID != "id-1" || got.MatchKey != "Task A" || got.RemoteID != "rec9" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.LastSeen.IsZero() {
		t.Error("MarkSeen should stamp the observation time")
	}
}

// TestStateStoreUpsert verifies a second MarkSeen replaces the association.
func TestStateStoreUpsert(t *testing.T) {
	state, err := sync.OpenState(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("OpenState failed: %v", err)
	}
	defer func() { _ = state.Close() }()
	ctx := context.Background()

	_ = state.MarkSeen(ctx, "proj", sync.StateEntry{SyncID: "id-1", MatchKey: "Old", RemoteID: "r1"})
	_ = state.MarkSeen(ctx, "proj", sync.StateEntry{SyncID: "id-1", MatchKey: "New", RemoteID: "r2"})

	entries, _ := state.Entries(ctx, "proj")
	if len(entries) != 1 {
		t.Fatalf("expected upsert to keep a single row, got %d", len(entries))
	}
	if entries[0].MatchKey != "New" || entries[0].RemoteID != "r2" {
		t.Errorf("expected replaced association, got %+v", entries[0])
	}
}

// TestStateStoreProjectIsolation verifies entries are scoped per project.
func TestStateStoreProjectIsolation(t *testing.T) {
	state, err := sync.OpenState(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("OpenState failed: %v", err)
	}
	defer func() { _ = state.Close() }()
	ctx := context.Background()

	_ = state.MarkSeen(ctx, "alpha", sync.StateEntry{SyncID: "id-1"})
	_ = state.MarkSeen(ctx, "beta", sync.StateEntry{SyncID: "id-2"})

	alpha, _ := state.Entries(ctx, "alpha")
	if len(alpha) != 1 || alpha[0].SyncID != "id-1" {
		t.Errorf("expected only alpha's entry, got %+v", alpha)
	}

	if err := state.Forget(ctx, "alpha", "id-1"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	alpha, _ = state.Entries(ctx, "alpha")
	beta, _ := state.Entries(ctx, "beta")
	if len(alpha) != 0 {
		t.Errorf("expected alpha entry forgotten, got %+v", alpha)
	}
	if len(beta) != 1 {
		t.Errorf("forget must not touch other projects, got %+v", beta)
	}
}
