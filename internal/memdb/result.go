package memdb

// Result is the uniform envelope every executor resolves to. Count is nil
// unless exact counting was requested; Row is only set by the single-row
// shapes. Returned records are live handles into the shared store, not
// private copies.
type Result struct {
	Rows  []Record
	Row   Record
	Count *int
	Err   error
}

// First returns the first row of a multi-row result, or nil.
func (r Result) First() Record {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}
