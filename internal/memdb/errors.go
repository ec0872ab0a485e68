package memdb

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRows is returned by strict single-row resolution with zero matches.
	ErrNoRows = errors.New("memdb: no rows in result set")
	// ErrMultipleRows is returned by strict single-row resolution when more
	// than one row matches.
	ErrMultipleRows = errors.New("memdb: more than one row in single-row result")
	// ErrUnknownProcedure is returned by the RPC side channel for names it
	// does not recognise.
	ErrUnknownProcedure = errors.New("memdb: unknown procedure")
)

// UnknownTableError reports a logical name outside the enumerated table set.
type UnknownTableError struct {
	Name string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("memdb: unknown table %q", e.Name)
}

// ValidationError reports a disjunctive-group clause the composer cannot
// evaluate. It surfaces at execute time and fails the whole query instead of
// silently never matching.
type ValidationError struct {
	Field string
	Op    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("memdb: unsupported or-clause operator %q on field %q", e.Op, e.Field)
}
