package repositories

import (
	"context"
	"time"

	"formflow/internal/models"
	"formflow/internal/pagination"
)

// SubmissionRepository defines the interface for submission data access.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	// List returns one page of submissions ordered by submission time. An
	// empty formID lists submissions of every form.
	List(ctx context.Context, formID string, params pagination.Params) ([]models.Submission, int64, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	TimestampsSince(ctx context.Context, since time.Time) ([]time.Time, error)
}
