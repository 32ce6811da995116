package pipeline

import (
	"context"
	"log/slog"

	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/observability"
)

// Uploader persists an encoded dataset and returns the object key it was
// written under.
type Uploader interface {
	Upload(ctx context.Context, content []byte) (string, error)
}

// JobTrigger starts the downstream migration job.
type JobTrigger interface {
	Start(ctx context.Context) (domain.JobSubmission, error)
}

// TriggerState records whether the migration trigger ran after an upload.
type TriggerState int

const (
	TriggerNotAttempted TriggerState = iota
	TriggerSucceeded
	TriggerFailed
)

// PublishOutcome is the result of one upload-then-trigger sequence.
type PublishOutcome struct {
	ObjectKey  string
	UploadErr  *domain.StageError
	Trigger    TriggerState
	Submission domain.JobSubmission
	TriggerErr *domain.StageError
}

// Uploaded reports whether the dataset reached the object store.
func (o PublishOutcome) Uploaded() bool {
	return o.UploadErr == nil
}

// Publish uploads the encoded dataset and, strictly after a successful
// upload, starts the migration job. A failed upload means the trigger is
// never attempted. A failed trigger after a successful upload is reported
// distinctly: the data is persisted, only the migration did not start. A nil
// trigger leaves the outcome at TriggerNotAttempted.
func Publish(ctx context.Context, content []byte, uploader Uploader, trigger JobTrigger, logger *slog.Logger, metrics *observability.Metrics) PublishOutcome {
	var out PublishOutcome

	key, err := uploader.Upload(ctx, content)
	if err != nil {
		out.UploadErr = domain.NewStageError(domain.KindUploadFailure, domain.StageUpload, "", err)
		metrics.Uploads.WithLabelValues("failure").Inc()
		logger.Error("upload failed", "error", err)
		return out
	}
	out.ObjectKey = key
	metrics.Uploads.WithLabelValues("success").Inc()
	logger.Info("dataset uploaded", "object_key", key, "bytes", len(content))

	if trigger == nil {
		return out
	}

	sub, err := trigger.Start(ctx)
	if err != nil {
		out.Trigger = TriggerFailed
		out.TriggerErr = domain.NewStageError(domain.KindTriggerFailure, domain.StageTrigger, "", err)
		metrics.Triggers.WithLabelValues("failure").Inc()
		logger.Error("migration trigger failed after successful upload", "object_key", key, "error", err)
		return out
	}
	out.Trigger = TriggerSucceeded
	out.Submission = sub
	metrics.Triggers.WithLabelValues("success").Inc()
	logger.Info("migration job started", "job", sub.JobName, "object_key", key)
	return out
}
