// Package sync reconciles a local board against a remote record snapshot.
// It flattens the board into the remote record shape, computes a typed
// change plan (create/update/delete/unchanged) and applies the plan in
// either direction: push (local authoritative) or pull (remote
// authoritative, merged into the board).
package sync

import (
	"fmt"
	"strings"
	"time"

	"tuido/internal/board"
	"tuido/internal/markdown"
	"tuido/remote"
)

// Direction names which side is authoritative for the current apply.
type Direction int

const (
	// Push makes the local board authoritative: the remote table is
	// mutated to match it.
	Push Direction = iota
	// Pull makes the remote snapshot authoritative: changes are merged
	// into the local board.
	Pull
)

func (d Direction) String() string {
	if d == Pull {
		return "pull"
	}
	return "push"
}

// Field identifies a comparable record field in update items.
type Field string

const (
	FieldTitle    Field = "title"
	FieldStatus   Field = "status"
	FieldTags     Field = "tags"
	FieldPriority Field = "priority"
)

// Op classifies a plan item.
type Op string

const (
	OpCreate    Op = "create"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpUnchanged Op = "unchanged"
)

// TitleSeparator joins parent and child titles when hierarchy is flattened
// into the remote Task field.
const TitleSeparator = " > "

// Item is one entry of a change plan. Local is nil for remote-only records
// and Remote is nil for local-only tasks. Resolved carries the merged field
// values after the per-field last-writer-wins comparison and is what gets
// written to the losing side.
type Item struct {
	Op       Op
	Key      string
	Local    *board.Task
	LocalRec *remote.Record
	Remote   *remote.Record
	Fields   []Field
	Resolved remote.Record
}

// Summary renders a one-line preview of the item.
func (it *Item) Summary() string {
	var marker string
	switch it.Op {
	case OpCreate:
		marker = "+"
	case OpUpdate:
		marker = "~"
	case OpDelete:
		marker = "-"
	default:
		marker = "="
	}
	line := fmt.Sprintf("%s [%s] %s", marker, it.Resolved.Status, it.Resolved.Task)
	if it.Op == OpUpdate && len(it.Fields) > 0 {
		names := make([]string, len(it.Fields))
		for i, f := range it.Fields {
			names[i] = string(f)
		}
		line += fmt.Sprintf(" (%s)", strings.Join(names, ", "))
	}
	return line
}

// Plan partitions every local task and remote record into exactly one
// bucket.
type Plan struct {
	Direction Direction
	Creates   []Item
	Updates   []Item
	Deletes   []Item
	Unchanged []Item
}

// Total returns the number of items across all buckets.
func (p *Plan) Total() int {
	return len(p.Creates) + len(p.Updates) + len(p.Deletes) + len(p.Unchanged)
}

// HasChanges reports whether applying the plan would mutate anything.
func (p *Plan) HasChanges() bool {
	return len(p.Creates)+len(p.Updates)+len(p.Deletes) > 0
}

// Preview renders the plan as human-readable lines, counts first, shown to
// the user before anything is applied.
func (p *Plan) Preview() []string {
	lines := []string{fmt.Sprintf("%s plan: %d to create, %d to update, %d to delete, %d unchanged",
		p.Direction, len(p.Creates), len(p.Updates), len(p.Deletes), len(p.Unchanged))}
	for _, bucket := range [][]Item{p.Creates, p.Updates, p.Deletes} {
		for i := range bucket {
			lines = append(lines, "  "+bucket[i].Summary())
		}
	}
	return lines
}

// Ambiguity reports two records on the same side sharing a match key. The
// lowest-source-order record stays in the plan; the duplicates are left
// unmatched rather than silently merged.
type Ambiguity struct {
	Side string // "local" or "remote"
	Key  string
}

func (a Ambiguity) String() string {
	return fmt.Sprintf("duplicate %s record for key %q, extra copies left unmatched", a.Side, a.Key)
}

// localEntry pairs a board task with its flattened record.
type localEntry struct {
	task *board.Task
	rec  remote.Record
}

// flattenPath builds the full "Parent > Child" title path for a task.
func flattenPath(t *board.Task) string {
	if t.Parent == nil {
		return t.Title
	}
	return flattenPath(t.Parent) + TitleSeparator + t.Title
}

// LeafTitle returns the last segment of a flattened title path.
func LeafTitle(path string) string {
	if i := strings.LastIndex(path, TitleSeparator); i >= 0 {
		return path[i+len(TitleSeparator):]
	}
	return path
}

// Flatten renders every task on the board, all levels, into one remote
// record each, hierarchy encoded into the title path.
func Flatten(b *board.Board, project string) []remote.Record {
	entries := flatten(b, project)
	out := make([]remote.Record, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}

func flatten(b *board.Board, project string) []localEntry {
	tasks := b.AllTasks()
	entries := make([]localEntry, 0, len(tasks))
	for _, t := range tasks {
		rec := remote.Record{
			Task:     flattenPath(t),
			Project:  project,
			Status:   t.Column,
			Tags:     append([]string(nil), t.Tags...),
			Priority: t.Priority,
		}
		if t.Updated != nil {
			rec.Updated = t.Updated.Format(markdown.TimestampLayout)
		}
		entries = append(entries, localEntry{task: t, rec: rec})
	}
	return entries
}

// diffFields returns the fields whose values differ between the two records.
func diffFields(local, rem *remote.Record) []Field {
	var fields []Field
	if local.Task != rem.Task {
		fields = append(fields, FieldTitle)
	}
	if local.Status != rem.Status {
		fields = append(fields, FieldStatus)
	}
	if remote.NormalizeTags(local.Tags) != remote.NormalizeTags(rem.Tags) {
		fields = append(fields, FieldTags)
	}
	if local.Priority != rem.Priority {
		fields = append(fields, FieldPriority)
	}
	return fields
}

// parseStamp reads a record timestamp; the zero time means unset.
func parseStamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(markdown.TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// resolve merges two matched records field by field. The side with the more
// recent timestamp wins every differing field; on a tie, or when neither
// side carries a timestamp, the authoritative side for the direction wins.
func resolve(local, rem *remote.Record, fields []Field, dir Direction) remote.Record {
	localWins := dir == Push
	lt, rt := parseStamp(local.Updated), parseStamp(rem.Updated)
	switch {
	case lt.After(rt):
		localWins = true
	case rt.After(lt):
		localWins = false
	}

	merged := *local
	merged.RemoteID = rem.RemoteID
	if !localWins {
		merged.Updated = rem.Updated
	}
	for _, f := range fields {
		if localWins {
			continue
		}
		switch f {
		case FieldTitle:
			merged.Task = rem.Task
		case FieldStatus:
			merged.Status = rem.Status
		case FieldTags:
			merged.Tags = append([]string(nil), rem.Tags...)
		case FieldPriority:
			merged.Priority = rem.Priority
		}
	}
	return merged
}

// diff computes the change plan between the flattened board and the remote
// snapshot. state supplies the sync-id associations and the set of keys
// previously observed remotely, which gates local deletion on pull.
func diff(locals []localEntry, remotes []remote.Record, state stateIndex, dir Direction) (*Plan, []Ambiguity) {
	plan := &Plan{Direction: dir}
	var ambiguities []Ambiguity

	// Index remote records by remote id and by title, dropping duplicate
	// titles deterministically by snapshot order.
	byRemoteID := make(map[string]*remote.Record)
	byTitle := make(map[string]*remote.Record)
	for i := range remotes {
		rec := &remotes[i]
		if rec.RemoteID != "" {
			byRemoteID[rec.RemoteID] = rec
		}
		if rec.Task == "" {
			continue
		}
		if _, dup := byTitle[rec.Task]; dup {
			ambiguities = append(ambiguities, Ambiguity{Side: "remote", Key: rec.Task})
			continue
		}
		byTitle[rec.Task] = rec
	}

	matched := make(map[*remote.Record]bool)
	seenLocalKey := make(map[string]bool)

	for i := range locals {
		entry := &locals[i]
		key := entry.rec.Task
		if entry.task.SyncID != "" {
			key = entry.task.SyncID
		}
		if seenLocalKey[key] {
			ambiguities = append(ambiguities, Ambiguity{Side: "local", Key: key})
			continue
		}
		seenLocalKey[key] = true

		// Stable sync-id association first, title text as fallback.
		var rec *remote.Record
		if st, ok := state.bySyncID[entry.task.SyncID]; ok && st.RemoteID != "" {
			rec = byRemoteID[st.RemoteID]
		}
		if rec == nil || matched[rec] {
			if cand, ok := byTitle[entry.rec.Task]; ok && !matched[cand] {
				rec = cand
			} else {
				rec = nil
			}
		}

		if rec == nil {
			item := Item{Op: OpCreate, Key: key, Local: entry.task, LocalRec: &entry.rec, Resolved: entry.rec}
			if dir == Push {
				plan.Creates = append(plan.Creates, item)
				continue
			}
			// Pull never deletes a task the remote side has not seen;
			// only previously synchronized tasks that vanished remotely
			// are removed.
			if entry.task.SyncID != "" && state.seen[entry.task.SyncID] {
				item.Op = OpDelete
				plan.Deletes = append(plan.Deletes, item)
			} else {
				item.Op = OpUnchanged
				plan.Unchanged = append(plan.Unchanged, item)
			}
			continue
		}

		matched[rec] = true
		fields := diffFields(&entry.rec, rec)
		item := Item{
			Op:       OpUnchanged,
			Key:      key,
			Local:    entry.task,
			LocalRec: &entry.rec,
			Remote:   rec,
			Fields:   fields,
			Resolved: resolve(&entry.rec, rec, fields, dir),
		}
		if len(fields) > 0 {
			item.Op = OpUpdate
			plan.Updates = append(plan.Updates, item)
		} else {
			plan.Unchanged = append(plan.Unchanged, item)
		}
	}

	// Remote records nothing local matched: push removes them, pull brings
	// them in under the column their status names.
	for i := range remotes {
		rec := &remotes[i]
		if matched[rec] {
			continue
		}
		if byTitle[rec.Task] != rec && rec.Task != "" {
			continue // duplicate already flagged
		}
		item := Item{Key: rec.Task, Remote: rec, Resolved: *rec}
		if dir == Push {
			item.Op = OpDelete
			plan.Deletes = append(plan.Deletes, item)
		} else {
			item.Op = OpCreate
			plan.Creates = append(plan.Creates, item)
		}
	}

	return plan, ambiguities
}
