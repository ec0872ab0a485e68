package memdb

import (
	"context"
	"sort"
)

type shapeMode int

const (
	shapeRows shapeMode = iota
	shapeSingle
	shapeMaybeSingle
)

type orderSpec struct {
	column     string
	descending bool
}

// SelectBuilder composes a query over one collection. The pipeline at execute
// time is: filter, count snapshot, stable order, paginate, shape.
type SelectBuilder struct {
	ref       TableRef
	cond      conditions
	order     *orderSpec
	offset    int
	limit     int
	hasLimit  bool
	shape     shapeMode
	withCount bool
}

// Select starts a read chain against the collection.
func (t TableRef) Select() *SelectBuilder {
	return &SelectBuilder{ref: t}
}

// Eq keeps records whose field equals value.
func (q *SelectBuilder) Eq(field string, value any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opEq, value: value})
	return q
}

// Neq keeps records whose field differs from value.
func (q *SelectBuilder) Neq(field string, value any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opNeq, value: value})
	return q
}

func (q *SelectBuilder) Gt(field string, value any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opGt, value: value})
	return q
}

func (q *SelectBuilder) Gte(field string, value any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opGte, value: value})
	return q
}

func (q *SelectBuilder) Lt(field string, value any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opLt, value: value})
	return q
}

func (q *SelectBuilder) Lte(field string, value any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opLte, value: value})
	return q
}

// Like matches a %-wildcard pattern against the string form of the field.
func (q *SelectBuilder) Like(field, pattern string) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opLike, value: pattern})
	return q
}

// ILike is the explicitly case-insensitive pattern match.
func (q *SelectBuilder) ILike(field, pattern string) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opILike, value: pattern})
	return q
}

// In keeps records whose field equals any of the supplied values.
func (q *SelectBuilder) In(field string, values ...any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opIn, values: values})
	return q
}

// Is is exact equality, including nil for null checks.
func (q *SelectBuilder) Is(field string, value any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opIs, value: value})
	return q
}

// NotIs keeps records whose field differs from value, covering negated null
// checks via NotIs(field, nil).
func (q *SelectBuilder) NotIs(field string, value any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opNotIs, value: value})
	return q
}

// Contains keeps records whose array-valued field contains every element.
func (q *SelectBuilder) Contains(field string, elements ...any) *SelectBuilder {
	q.cond.add(predicate{field: field, op: opContains, values: elements})
	return q
}

// Or keeps records matching any of the structured clauses.
func (q *SelectBuilder) Or(clauses ...OrClause) *SelectBuilder {
	q.cond.add(predicate{op: opOr, clauses: clauses})
	return q
}

// Order stable-sorts the filtered set by column before pagination. Null
// values sort last ascending and first descending.
func (q *SelectBuilder) Order(column string, descending bool) *SelectBuilder {
	q.order = &orderSpec{column: column, descending: descending}
	return q
}

func (q *SelectBuilder) Limit(n int) *SelectBuilder {
	q.limit = n
	q.hasLimit = true
	return q
}

func (q *SelectBuilder) Offset(n int) *SelectBuilder {
	q.offset = n
	return q
}

// Range paginates by inclusive row positions within the filtered, ordered set.
func (q *SelectBuilder) Range(from, to int) *SelectBuilder {
	q.offset = from
	q.limit = to - from + 1
	q.hasLimit = true
	return q
}

// Single resolves to exactly one row: ErrNoRows on zero matches and
// ErrMultipleRows when more than one row survives the pipeline.
func (q *SelectBuilder) Single() *SelectBuilder {
	q.shape = shapeSingle
	return q
}

// MaybeSingle resolves to the first row or a nil row, never an error.
func (q *SelectBuilder) MaybeSingle() *SelectBuilder {
	q.shape = shapeMaybeSingle
	return q
}

// WithCount requests the exact size of the filtered set, captured before
// pagination.
func (q *SelectBuilder) WithCount() *SelectBuilder {
	q.withCount = true
	return q
}

// Execute resolves the chain against the shared store.
func (q *SelectBuilder) Execute(ctx context.Context) Result {
	table, err := q.ref.resolve()
	if err != nil {
		return Result{Err: err}
	}

	table.mu.RLock()
	defer table.mu.RUnlock()

	var matched []Record
	for _, rec := range table.rows {
		ok, err := q.cond.matchesAll(rec)
		if err != nil {
			return Result{Err: err}
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	var count *int
	if q.withCount {
		n := len(matched)
		count = &n
	}

	if q.order != nil {
		sortRecords(matched, *q.order)
	}

	matched = paginate(matched, q.offset, q.limit, q.hasLimit)

	switch q.shape {
	case shapeSingle:
		switch len(matched) {
		case 0:
			return Result{Count: count, Err: ErrNoRows}
		case 1:
			return Result{Row: matched[0], Count: count}
		default:
			return Result{Count: count, Err: ErrMultipleRows}
		}
	case shapeMaybeSingle:
		if len(matched) == 0 {
			return Result{Count: count}
		}
		return Result{Row: matched[0], Count: count}
	default:
		return Result{Rows: matched, Count: count}
	}
}

func sortRecords(recs []Record, spec orderSpec) {
	sort.SliceStable(recs, func(i, j int) bool {
		a := recs[i][spec.column]
		b := recs[j][spec.column]
		if a == nil || b == nil {
			if a == nil && b == nil {
				return false
			}
			// Nulls last ascending, first descending.
			if spec.descending {
				return a == nil
			}
			return b == nil
		}
		cmp, ok := compareValues(a, b)
		if !ok {
			return false
		}
		if spec.descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

func paginate(recs []Record, offset, limit int, hasLimit bool) []Record {
	if offset > 0 {
		if offset >= len(recs) {
			return nil
		}
		recs = recs[offset:]
	}
	if hasLimit && limit >= 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}
