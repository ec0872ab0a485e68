// Package memdb is an in-process stand-in for the hosted relational data
// service the compliance tool talks to in production. It keeps every logical
// collection in memory and exposes the same chainable select/insert/update/
// delete surface, so application code runs unmodified against it.
package memdb

import (
	"sync"
	"time"
)

// Record is one row of a table. Timestamps are stored as fixed-width UTC
// strings (see FormatTime) so lexicographic ordering matches chronological.
type Record map[string]any

const (
	TableRequests     = "data_subject_requests"
	TablePiiLocations = "pii_locations"
	TableTasks        = "action_tasks"
	TableConsent      = "consent_records"
	TableAuditLog     = "audit_log"
	TableActivities   = "request_activities"
)

var tableNames = []string{
	TableRequests,
	TablePiiLocations,
	TableTasks,
	TableConsent,
	TableAuditLog,
	TableActivities,
}

// timeLayout keeps fractional seconds at a fixed width; RFC3339Nano trims
// trailing zeros, which breaks lexicographic ordering of equal-second values.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// Table is one shared mutable collection. The mutex makes each executor's
// filter-then-mutate pass atomic with respect to other writers.
type Table struct {
	mu   sync.RWMutex
	name string
	rows []Record
}

func (t *Table) Name() string {
	return t.name
}

// Len reports the current row count.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Store owns the backing tables. Every caller resolves collections through it
// and receives the same shared handles; there is no ambient global instance,
// a fresh store is constructed per process or per test.
type Store struct {
	clock  func() time.Time
	tables map[string]*Table
}

type Option func(*Store)

// WithClock overrides the timestamp source used for created_at/updated_at
// stamping and for derived time computations.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		clock:  time.Now,
		tables: make(map[string]*Table, len(tableNames)),
	}
	for _, name := range tableNames {
		s.tables[name] = &Table{name: name}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's current instant.
func (s *Store) Now() time.Time {
	return s.clock()
}

// Table resolves a logical name to its backing collection. Names are an
// enumerated set; anything else is rejected rather than routed to an empty
// placeholder.
func (s *Store) Table(name string) (*Table, error) {
	table, ok := s.tables[name]
	if !ok {
		return nil, &UnknownTableError{Name: name}
	}
	return table, nil
}

// Client is the query surface over a store.
type Client struct {
	store *Store
}

func NewClient(store *Store) *Client {
	return &Client{store: store}
}

// From selects the logical collection that subsequent chained calls operate on.
func (c *Client) From(table string) TableRef {
	return TableRef{store: c.store, name: table}
}

// TableRef is a named collection bound to a store, ready to start a chain.
type TableRef struct {
	store *Store
	name  string
}

func (t TableRef) resolve() (*Table, error) {
	return t.store.Table(t.name)
}
