package repositories

import (
	"context"
	"time"

	"formflow/internal/models"
	"formflow/internal/pagination"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMSubmissionRepository is a GORM implementation of SubmissionRepository.
type GORMSubmissionRepository struct {
	db *gorm.DB
}

// NewGORMSubmissionRepository creates a new instance of GORMSubmissionRepository.
func NewGORMSubmissionRepository(db *gorm.DB) *GORMSubmissionRepository {
	return &GORMSubmissionRepository{db: db}
}

// Create inserts a submission. Id and timestamp are filled when unset.
func (r *GORMSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.New().String()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}
	submission.SubmittedAt = submission.SubmittedAt.UTC()
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return errors.Wrapf(err, "failed to create submission for form %s", submission.FormID)
	}
	return nil
}

// List returns a page of submissions and the total matching count.
func (r *GORMSubmissionRepository) List(ctx context.Context, formID string, params pagination.Params) ([]models.Submission, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Submission{})
		if formID != "" {
			q = q.Where("form_id = ?", formID)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count submissions")
	}

	var submissions []models.Submission
	err := scope().
		Order(clause.OrderByColumn{Column: clause.Column{Name: "submitted_at"}, Desc: params.SortOrder != pagination.Asc}).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&submissions).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list submissions")
	}
	return submissions, total, nil
}

// Count returns the number of submissions across all forms.
func (r *GORMSubmissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count submissions")
	}
	return count, nil
}

// CountSince counts submissions at or after since.
func (r *GORMSubmissionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submitted_at >= ?", since.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count recent submissions")
	}
	return count, nil
}

// TimestampsSince returns the submission time of every submission at or
// after since.
func (r *GORMSubmissionRepository) TimestampsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submitted_at >= ?", since.UTC()).
		Pluck("submitted_at", &stamps).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load submission timestamps")
	}
	return stamps, nil
}
