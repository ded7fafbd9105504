package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tuido/internal/board"
	"tuido/internal/utils"
	"tuido/remote"
)

// Engine drives plan building and plan application for one project. It is
// not safe for concurrent use; callers serialize access per board.
type Engine struct {
	store   remote.RecordStore
	state   *StateStore
	project string
	log     *utils.Logger
}

// NewEngine creates a reconciliation engine bound to one project.
func NewEngine(store remote.RecordStore, state *StateStore, project string) *Engine {
	return &Engine{
		store:   store,
		state:   state,
		project: project,
		log:     utils.GetLogger(),
	}
}

// ItemError names a plan item that failed to apply.
type ItemError struct {
	Item Item
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Item.Op, e.Item.Resolved.Task, e.Err)
}

// Result aggregates the outcome of applying a plan. Push continues past
// per-item failures and reports them here instead of aborting.
type Result struct {
	Created int
	Updated int
	Deleted int
	Failed  []ItemError
}

// Summary renders a one-line outcome for the user.
func (r *Result) Summary() string {
	s := fmt.Sprintf("%d created, %d updated, %d deleted", r.Created, r.Updated, r.Deleted)
	if len(r.Failed) > 0 {
		s += fmt.Sprintf(", %d failed", len(r.Failed))
	}
	return s
}

// BuildPlan fetches the remote snapshot and diffs it against the board.
// Nothing is mutated; the caller previews the plan and decides whether to
// apply it.
func (e *Engine) BuildPlan(ctx context.Context, b *board.Board, dir Direction) (*Plan, []Ambiguity, error) {
	e.log.Debug("fetching remote records for project %q", e.project)
	remotes, err := e.store.FetchAll(ctx, e.project)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch remote records: %w", err)
	}
	e.log.Debug("fetched %d remote records", len(remotes))

	entries, err := e.state.Entries(ctx, e.project)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sync state: %w", err)
	}

	plan, ambiguities := diff(flatten(b, e.project), remotes, buildStateIndex(entries), dir)
	return plan, ambiguities, nil
}

// ensureSyncID assigns a stable identifier to a task at its first
// successful sync. The id is persisted in the document as a hidden marker.
func ensureSyncID(t *board.Task) string {
	if t.SyncID == "" {
		t.SyncID = uuid.New().String()
	}
	return t.SyncID
}

// Push applies the plan with the local board authoritative. Remote calls
// are made one item at a time; a failing item is recorded and the push
// continues with the rest. The context is checked between items so a long
// push can be cancelled after the current item completes.
func (e *Engine) Push(ctx context.Context, plan *Plan) (*Result, error) {
	if plan.Direction != Push {
		return nil, fmt.Errorf("cannot push a %s plan", plan.Direction)
	}
	res := &Result{}

	for _, item := range plan.Creates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		created, err := e.store.Create(ctx, item.Resolved)
		if err != nil {
			res.Failed = append(res.Failed, ItemError{Item: item, Err: err})
			continue
		}
		res.Created++
		syncID := ensureSyncID(item.Local)
		e.rememberSeen(ctx, syncID, item.Resolved.Task, created.RemoteID)
	}

	for _, item := range plan.Updates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := e.store.Update(ctx, item.Remote.RemoteID, item.Resolved.Fields()); err != nil {
			res.Failed = append(res.Failed, ItemError{Item: item, Err: err})
			continue
		}
		res.Updated++
		syncID := ensureSyncID(item.Local)
		e.rememberSeen(ctx, syncID, item.Resolved.Task, item.Remote.RemoteID)
	}

	for _, item := range plan.Deletes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := e.store.Delete(ctx, item.Remote.RemoteID); err != nil {
			res.Failed = append(res.Failed, ItemError{Item: item, Err: err})
			continue
		}
		res.Deleted++
	}

	// Matched-but-unchanged pairs still count as observed so a later
	// remote deletion is eligible for pull-side removal.
	for _, item := range plan.Unchanged {
		if item.Local == nil || item.Remote == nil {
			continue
		}
		syncID := ensureSyncID(item.Local)
		e.rememberSeen(ctx, syncID, item.Resolved.Task, item.Remote.RemoteID)
	}

	return res, nil
}

// Pull applies the plan with the remote snapshot authoritative. The board
// is mutated entirely in memory; the caller persists the document only
// after Pull returns, so a failure cannot leave a half-written file.
func (e *Engine) Pull(ctx context.Context, b *board.Board, plan *Plan) (*Result, error) {
	if plan.Direction != Pull {
		return nil, fmt.Errorf("cannot pull a %s plan", plan.Direction)
	}
	res := &Result{}

	for _, item := range plan.Creates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		t := &board.Task{
			Title:    item.Resolved.Task,
			Tags:     append([]string(nil), item.Resolved.Tags...),
			Priority: item.Resolved.Priority,
		}
		b.AddTask(item.Resolved.Status, t)
		res.Created++
		syncID := ensureSyncID(t)
		e.rememberSeen(ctx, syncID, item.Resolved.Task, item.Resolved.RemoteID)
	}

	for _, item := range plan.Updates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e.applyFields(b, item.Local, item.Resolved)
		res.Updated++
		syncID := ensureSyncID(item.Local)
		e.rememberSeen(ctx, syncID, item.Resolved.Task, item.Resolved.RemoteID)
	}

	for _, item := range plan.Deletes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		// RemoveTask takes the whole subtree; a child whose parent already
		// left the board in an earlier iteration is a harmless no-op here.
		b.RemoveTask(item.Local)
		res.Deleted++
		if item.Local.SyncID != "" {
			if err := e.state.Forget(ctx, e.project, item.Local.SyncID); err != nil {
				e.log.Debug("failed to forget sync state: %v", err)
			}
		}
	}

	for _, item := range plan.Unchanged {
		if item.Local == nil || item.Remote == nil {
			continue
		}
		syncID := ensureSyncID(item.Local)
		e.rememberSeen(ctx, syncID, item.Resolved.Task, item.Remote.RemoteID)
	}

	return res, nil
}

// applyFields writes the resolved record values into a local task. The
// title takes the leaf of the flattened path so subtask hierarchy is kept.
// Column moves apply to top-level tasks only; a subtask's status follows
// its top-level ancestor.
func (e *Engine) applyFields(b *board.Board, t *board.Task, resolved remote.Record) {
	t.Title = LeafTitle(resolved.Task)
	t.Tags = append([]string(nil), resolved.Tags...)
	t.Priority = resolved.Priority

	if t.Level == 0 && t.Column != resolved.Status {
		b.RemoveTask(t)
		b.AddTask(resolved.Status, t)
	}
}

// rememberSeen upserts the sync association, logging rather than failing:
// state is an optimization for delete safety, not part of the plan result.
func (e *Engine) rememberSeen(ctx context.Context, syncID, matchKey, remoteID string) {
	err := e.state.MarkSeen(ctx, e.project, StateEntry{
		SyncID:   syncID,
		MatchKey: matchKey,
		RemoteID: remoteID,
	})
	if err != nil {
		e.log.Debug("failed to record sync state for %q: %v", matchKey, err)
	}
}

