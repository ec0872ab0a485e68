package memdb

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type operator int

const (
	opEq operator = iota
	opNeq
	opGt
	opGte
	opLt
	opLte
	opLike
	opILike
	opIn
	opIs
	opNotIs
	opContains
	opOr
)

// OrClause is one alternative inside a disjunctive filter group. Only the
// pattern-match operators are supported inside a group; anything else is a
// validation error.
type OrClause struct {
	Field string
	Op    string
	Value string
}

const (
	OpLike  = "like"
	OpILike = "ilike"
)

// predicate is one composed condition, evaluated independently per record.
// All predicates on a builder are ANDed together.
type predicate struct {
	field   string
	op      operator
	value   any
	values  []any
	clauses []OrClause
}

func (p predicate) matches(rec Record) (bool, error) {
	switch p.op {
	case opEq, opIs:
		return valuesEqual(rec[p.field], p.value), nil
	case opNeq, opNotIs:
		return !valuesEqual(rec[p.field], p.value), nil
	case opGt, opGte, opLt, opLte:
		cmp, ok := compareValues(rec[p.field], p.value)
		if !ok {
			return false, nil
		}
		switch p.op {
		case opGt:
			return cmp > 0, nil
		case opGte:
			return cmp >= 0, nil
		case opLt:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case opLike, opILike:
		pattern, ok := p.value.(string)
		if !ok {
			return false, nil
		}
		return matchPattern(pattern, rec[p.field]), nil
	case opIn:
		for _, candidate := range p.values {
			if valuesEqual(rec[p.field], candidate) {
				return true, nil
			}
		}
		return false, nil
	case opContains:
		elems, ok := arrayValue(rec[p.field])
		if !ok {
			return false, nil
		}
		for _, want := range p.values {
			found := false
			for _, have := range elems {
				if valuesEqual(have, want) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil
	case opOr:
		for _, clause := range p.clauses {
			if clause.Op != OpLike && clause.Op != OpILike {
				return false, &ValidationError{Field: clause.Field, Op: clause.Op}
			}
			if matchPattern(clause.Value, rec[clause.Field]) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// matchPattern matches a %-wildcard pattern against the string form of a
// field value. Both pattern operators fold case; the emulated service behaved
// that way for like as well as ilike, and callers depend on it.
func matchPattern(pattern string, value any) bool {
	if value == nil {
		return false
	}
	parts := strings.Split(pattern, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile("(?is)^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return false
	}
	return re.MatchString(fmt.Sprintf("%v", value))
}

// valuesEqual compares for equality with numeric coercion, so an int stored
// by a caller matches a float64 that arrived through JSON decoding.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := numericValue(a); aok {
		if bf, bok := numericValue(b); bok {
			return af == bf
		}
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
	}
}

// compareValues orders two values: lexicographically when both are strings,
// chronologically for instants, numerically otherwise. ok is false when the
// operands are not comparable (including nil on either side).
func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs), true
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Compare(bt), true
		}
	}
	af, aok := numericValue(a)
	bf, bok := numericValue(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func arrayValue(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	case []string:
		out := make([]any, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// conditions is the shared predicate list the select, update and delete
// builders compose into.
type conditions struct {
	preds []predicate
}

func (c *conditions) add(p predicate) {
	c.preds = append(c.preds, p)
}

func (c *conditions) matchesAll(rec Record) (bool, error) {
	for _, p := range c.preds {
		ok, err := p.matches(rec)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
