package syncer

import (
	"fmt"
	"time"
)

// Phase names a step of a sync run
type Phase string

const (
	PhaseLoad    Phase = "load"
	PhaseFetch   Phase = "fetch"
	PhaseAlign   Phase = "align"
	PhaseMerge   Phase = "merge"
	PhasePersist Phase = "persist"
)

// PhaseError is the failure of one phase. A failure in any phase before PhasePersist leaves
// the local store untouched. A PhasePersist failure may leave it truncated or partially
// written, since the store is overwritten in place.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Outcome is how a successful run ended
type Outcome string

const (
	// OutcomeNoLocalState means there was no local store to update; nothing was fetched
	OutcomeNoLocalState Outcome = "no_local_state"
	// OutcomeUpToDate means the remote snapshot had nothing newer; nothing was written
	OutcomeUpToDate Outcome = "up_to_date"
	// OutcomeUpdated means new draws were merged and the store was rewritten
	OutcomeUpdated Outcome = "updated"
	// OutcomeDryRun means new draws were found but the write was skipped
	OutcomeDryRun Outcome = "dry_run"
)

// Result describes a completed run
type Result struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Outcome    Outcome   `json:"outcome" yaml:"outcome"`
	StorePath  string    `json:"store_path" yaml:"store_path"`
	SourceURL  string    `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// LocalRows is the number of rows in the store before the run
	LocalRows int `json:"local_rows" yaml:"local_rows"`
	// MaxIssue is the largest local issue; nil when the store holds no valid issue
	MaxIssue *int64 `json:"max_issue" yaml:"max_issue"`
	// RemoteRows counts remote rows with a valid issue
	RemoteRows int `json:"remote_rows" yaml:"remote_rows"`
	// NewIssues lists the merged issues in the order they were written
	NewIssues []int64 `json:"new_issues" yaml:"new_issues"`
	// Truncated is set when the fixed-width column fallback was applied
	Truncated bool `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	// TotalRows is the number of rows in the store after the run
	TotalRows int `json:"total_rows" yaml:"total_rows"`
}

// NewCount returns the number of rows added
func (r *Result) NewCount() int {
	return len(r.NewIssues)
}
