// Package remote defines the flat record shape tasks take in the remote
// table and the store contract concrete transports implement. The sync
// engine depends only on this contract.
package remote

import (
	"context"
	"sort"
	"strings"
)

// Field names of the remote table columns.
const (
	FieldTask     = "Task"
	FieldProject  = "Project"
	FieldStatus   = "Status"
	FieldTags     = "Tags"
	FieldPriority = "Priority"
	FieldUpdated  = "Updated"
)

// FieldNames lists every table column the sync engine reads and writes.
var FieldNames = []string{FieldTask, FieldProject, FieldStatus, FieldTags, FieldPriority, FieldUpdated}

// Record is one task flattened for remote storage. The table has no native
// nesting, so hierarchy is encoded into the Task title as a "Parent > Child"
// path.
type Record struct {
	RemoteID string // store-assigned identifier, empty until created
	Task     string // flattened title path
	Project  string
	Status   string // mirrors the local column name
	Tags     []string
	Priority string
	Updated  string // last-modified instant, markdown timestamp layout
}

// Fields returns the record's writable table fields.
func (r *Record) Fields() map[string]any {
	return map[string]any{
		FieldTask:     r.Task,
		FieldProject:  r.Project,
		FieldStatus:   r.Status,
		FieldTags:     r.Tags,
		FieldPriority: r.Priority,
		FieldUpdated:  r.Updated,
	}
}

// NormalizeTags renders a tag list into a comparable string, order ignored.
func NormalizeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

// SplitTags parses a delimited tag string back into a list.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// RecordStore is the remote table capability the sync engine consumes.
// Every call may block on network I/O and honors the context.
type RecordStore interface {
	// FetchAll returns the records belonging to one project.
	FetchAll(ctx context.Context, project string) ([]Record, error)

	// Create inserts a record and returns it with RemoteID set.
	Create(ctx context.Context, rec Record) (*Record, error)

	// Update overwrites the given fields of an existing record.
	Update(ctx context.Context, remoteID string, fields map[string]any) error

	// Delete removes a record.
	Delete(ctx context.Context, remoteID string) error

	// Close releases the store's resources.
	Close() error
}
