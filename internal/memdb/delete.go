package memdb

import "context"

// DeleteBuilder removes matching records from a collection.
type DeleteBuilder struct {
	ref  TableRef
	cond conditions
}

// Delete starts a chain removing every record matching the composed
// predicates.
func (t TableRef) Delete() *DeleteBuilder {
	return &DeleteBuilder{ref: t}
}

func (b *DeleteBuilder) Eq(field string, value any) *DeleteBuilder {
	b.cond.add(predicate{field: field, op: opEq, value: value})
	return b
}

func (b *DeleteBuilder) In(field string, values ...any) *DeleteBuilder {
	b.cond.add(predicate{field: field, op: opIn, values: values})
	return b
}

func (b *DeleteBuilder) Lt(field string, value any) *DeleteBuilder {
	b.cond.add(predicate{field: field, op: opLt, value: value})
	return b
}

// Execute removes matching records. The result carries no rows.
func (b *DeleteBuilder) Execute(ctx context.Context) Result {
	table, err := b.ref.resolve()
	if err != nil {
		return Result{Err: err}
	}

	table.mu.Lock()
	defer table.mu.Unlock()

	kept := table.rows[:0]
	for _, rec := range table.rows {
		ok, err := b.cond.matchesAll(rec)
		if err != nil {
			return Result{Err: err}
		}
		if !ok {
			kept = append(kept, rec)
		}
	}
	table.rows = kept
	return Result{}
}
