package memdb

import "context"

// UpdateBuilder shallow-merges a patch into every record matching the
// composed predicates. The mutation happens in the shared backing store and
// is visible to all subsequent reads.
type UpdateBuilder struct {
	ref   TableRef
	patch Record
	cond  conditions
	shape shapeMode
}

// Update starts a write chain applying patch to matching records.
func (t TableRef) Update(patch Record) *UpdateBuilder {
	return &UpdateBuilder{ref: t, patch: patch}
}

func (b *UpdateBuilder) Eq(field string, value any) *UpdateBuilder {
	b.cond.add(predicate{field: field, op: opEq, value: value})
	return b
}

func (b *UpdateBuilder) In(field string, values ...any) *UpdateBuilder {
	b.cond.add(predicate{field: field, op: opIn, values: values})
	return b
}

func (b *UpdateBuilder) Is(field string, value any) *UpdateBuilder {
	b.cond.add(predicate{field: field, op: opIs, value: value})
	return b
}

// Single shapes the result as the first mutated row.
func (b *UpdateBuilder) Single() *UpdateBuilder {
	b.shape = shapeSingle
	return b
}

// Execute mutates matching records in place and stamps updated_at. Zero
// matches is not an error: the result is empty and nothing is stamped.
func (b *UpdateBuilder) Execute(ctx context.Context) Result {
	table, err := b.ref.resolve()
	if err != nil {
		return Result{Err: err}
	}

	now := FormatTime(b.ref.store.Now())

	table.mu.Lock()
	defer table.mu.Unlock()

	var mutated []Record
	for _, rec := range table.rows {
		ok, err := b.cond.matchesAll(rec)
		if err != nil {
			return Result{Err: err}
		}
		if !ok {
			continue
		}
		for field, value := range b.patch {
			rec[field] = value
		}
		rec["updated_at"] = now
		mutated = append(mutated, rec)
	}

	if b.shape == shapeSingle {
		if len(mutated) == 0 {
			return Result{}
		}
		return Result{Row: mutated[0]}
	}
	return Result{Rows: mutated}
}
