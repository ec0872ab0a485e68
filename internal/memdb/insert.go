package memdb

import (
	"context"

	"github.com/google/uuid"
)

// InsertBuilder appends records to a collection, assigning identifiers and
// stamping creation/update instants. No validation against the entity's
// declared shape is performed; that responsibility stays with the caller.
type InsertBuilder struct {
	ref     TableRef
	records []Record
	shape   shapeMode
}

// Insert starts a write chain appending one or more records.
func (t TableRef) Insert(records ...Record) *InsertBuilder {
	return &InsertBuilder{ref: t, records: records}
}

// Single shapes the result as one row instead of a sequence.
func (b *InsertBuilder) Single() *InsertBuilder {
	b.shape = shapeSingle
	return b
}

// Execute appends the records and echoes them in the requested shape.
func (b *InsertBuilder) Execute(ctx context.Context) Result {
	table, err := b.ref.resolve()
	if err != nil {
		return Result{Err: err}
	}

	now := FormatTime(b.ref.store.Now())

	table.mu.Lock()
	defer table.mu.Unlock()

	inserted := make([]Record, 0, len(b.records))
	for _, rec := range b.records {
		if rec == nil {
			rec = Record{}
		}
		if id, ok := rec["id"].(string); !ok || id == "" {
			rec["id"] = uuid.NewString()
		}
		rec["created_at"] = now
		rec["updated_at"] = now
		table.rows = append(table.rows, rec)
		inserted = append(inserted, rec)
	}

	if b.shape == shapeSingle {
		if len(inserted) == 0 {
			return Result{Err: ErrNoRows}
		}
		return Result{Row: inserted[0]}
	}
	return Result{Rows: inserted}
}
