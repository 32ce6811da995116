package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a stage failure. Every error crossing a stage
// boundary carries exactly one kind; nothing propagates as a bare string.
type FailureKind string

const (
	KindTransientNetwork FailureKind = "transient_network"
	KindPermanentHTTP    FailureKind = "permanent_http"
	KindTableNotFound    FailureKind = "table_not_found"
	KindMalformedTable   FailureKind = "malformed_table"
	KindEmptyResult      FailureKind = "empty_result"
	KindNotConfigured    FailureKind = "not_configured"
	KindUploadFailure    FailureKind = "upload_failure"
	KindTriggerFailure   FailureKind = "trigger_failure"
)

// Pipeline stage names used in StageError.
const (
	StageFetch     = "fetch"
	StageLocate    = "locate"
	StageReconcile = "reconcile"
	StageNormalize = "normalize"
	StageUpload    = "upload"
	StageTrigger   = "trigger"
)

// StageError is a typed failure from one pipeline stage for one source.
type StageError struct {
	Kind     FailureKind
	Stage    string
	SourceID string
	Err      error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps cause as a classified failure of stage for sourceID.
func NewStageError(kind FailureKind, stage, sourceID string, cause error) *StageError {
	return &StageError{Kind: kind, Stage: stage, SourceID: sourceID, Err: cause}
}

// KindOf extracts the failure kind from an error chain. Unclassified errors
// report as transient so callers err on the side of retrying the next source.
func KindOf(err error) FailureKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransientNetwork
}
