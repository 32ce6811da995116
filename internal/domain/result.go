package domain

import (
	"strings"
	"time"
)

// Attempt records one source tried for an entity and, when it failed, why.
type Attempt struct {
	SourceID string
	Err      *StageError // nil for the attempt that succeeded
}

// HarvestResult is the outcome of the full fallback chain for one entity:
// either at least one record from exactly one source, or the failure reasons
// of every source tried. Records from different sources are never merged.
type HarvestResult struct {
	Entity     Entity
	Records    []Record
	SourceUsed string // id of the source that produced Records; empty on failure
	Attempts   []Attempt

	// DroppedRows counts structurally rejected rows across all attempts, so
	// "skip dirty rows" is visible instead of silent.
	DroppedRows int
}

// Succeeded reports whether any source yielded records.
func (r HarvestResult) Succeeded() bool {
	return r.SourceUsed != "" && len(r.Records) > 0
}

// FailureReason concatenates each attempted source's failure into one
// operator-readable string, e.g. "infobanjir-page: fetch: permanent_http: 404".
func (r HarvestResult) FailureReason() string {
	var parts []string
	for _, a := range r.Attempts {
		if a.Err == nil {
			continue
		}
		parts = append(parts, a.SourceID+": "+a.Err.Error())
	}
	return strings.Join(parts, "; ")
}

// Dataset is the aggregated result of one run: one HarvestResult per
// requested entity, in request order, regardless of per-entity outcome.
type Dataset struct {
	Domain       DataDomain
	Results      []HarvestResult
	TotalRecords int
	GeneratedAt  time.Time
}

// Successes returns the results that produced records, in dataset order.
func (d Dataset) Successes() []HarvestResult {
	var out []HarvestResult
	for _, r := range d.Results {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Failures returns the results whose whole fallback chain was exhausted.
func (d Dataset) Failures() []HarvestResult {
	var out []HarvestResult
	for _, r := range d.Results {
		if !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// JobSubmission is what the migration scheduler returns when a job start is
// accepted. Body keeps the raw response for operators; schedulers differ in
// what they include.
type JobSubmission struct {
	JobName string
	Body    []byte
}
