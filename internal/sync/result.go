package sync

import (
	"fmt"
	"time"
)

// Outcome classifies what happened to one record.
type Outcome int

// Record outcomes.
const (
	Skipped Outcome = iota
	Created
	Updated
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "skipped"
	}
}

// Result aggregates the outcomes of one run.
type Result struct {
	Category Category  `json:"category" yaml:"category"`
	RunID    string    `json:"run_id" yaml:"run_id"`
	Fetched  int       `json:"fetched" yaml:"fetched"`
	Created  int       `json:"created" yaml:"created"`
	Updated  int       `json:"updated" yaml:"updated"`
	Skipped  int       `json:"skipped" yaml:"skipped"`
	SyncedAt time.Time `json:"synced_at" yaml:"synced_at"`
}

// Total returns the number of records written.
func (r Result) Total() int { return r.Created + r.Updated }

func (r *Result) count(o Outcome) {
	switch o {
	case Created:
		r.Created++
	case Updated:
		r.Updated++
	default:
		r.Skipped++
	}
}

// Summary returns a one-line description of the result.
func (r Result) Summary() string {
	return fmt.Sprintf("%s: fetched %d, created %d, updated %d, skipped %d",
		r.Category, r.Fetched, r.Created, r.Updated, r.Skipped)
}
