package model

import "time"

// Aggregate is the cross-instance-visible collection of results for one job,
// held in the shared aggregate store while the job is collecting. The event
// log's consumer groups give no guarantee that all results for a job land on
// the same arbiter instance, so this state can never live in process memory.
type Aggregate struct {
	JobID string
	// Results maps reporter name to the first result merged for that
	// reporter. Duplicate deliveries never replace an existing entry.
	Results map[string]Result
	// AnchoredAt is the arrival time of the first result; the wait timeout
	// is measured from here.
	AnchoredAt time.Time
	// Resolved is advisory: the decisions uniqueness constraint is what
	// actually guarantees a single decision, this flag only short-circuits
	// repeat work.
	Resolved bool
}

// HasAll reports whether every expected reporter has a merged result.
func (a *Aggregate) HasAll(expected []string) bool {
	for _, name := range expected {
		if _, ok := a.Results[name]; !ok {
			return false
		}
	}
	return len(expected) > 0
}

// MissingFrom returns the expected reporters without a merged result, in the
// order given.
func (a *Aggregate) MissingFrom(expected []string) []string {
	var missing []string
	for _, name := range expected {
		if _, ok := a.Results[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
