package services

import (
	"context"
	"encoding/json"
	"time"

	"formflow/internal/apperrors"
	"formflow/internal/models"
	"formflow/internal/pagination"
	"formflow/internal/repositories"
	"formflow/internal/schema"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// SubmissionService validates and records responses to published forms.
type SubmissionService struct {
	forms     repositories.FormRepository
	subs      repositories.SubmissionRepository
	publisher EventPublisher
	log       *logrus.Logger
	now       func() time.Time
}

// NewSubmissionService creates a new SubmissionService. publisher may be nil.
func NewSubmissionService(forms repositories.FormRepository, subs repositories.SubmissionRepository, publisher EventPublisher, log *logrus.Logger) *SubmissionService {
	return &SubmissionService{
		forms:     forms,
		subs:      subs,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Submit records data as a response to the form identified by token.
// Only required fields are checked; values are stored as sent.
func (s *SubmissionService) Submit(ctx context.Context, token string, data map[string]any) (*models.Submission, error) {
	form, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !form.IsPublished {
		return nil, apperrors.ErrFormNotPublished
	}

	fields, err := schema.ParseRequirements(form.Fields)
	if err != nil {
		return nil, errors.Wrapf(err, "parse fields of form %s", form.ID)
	}
	if err := checkRequired(fields, data); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encode submission data")
	}
	submission := &models.Submission{
		FormID:      form.ID,
		Data:        datatypes.JSON(raw),
		SubmittedAt: s.now().UTC(),
	}
	if err := s.subs.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.log.WithField("form_id", form.ID).WithField("submission_id", submission.ID).Info("submission recorded")
	publishEvent(s.publisher, s.log, Event{
		Type:         EventSubmissionCreated,
		FormID:       form.ID,
		SubmissionID: submission.ID,
		At:           submission.SubmittedAt,
	})
	return submission, nil
}

// checkRequired fails on the first required field whose value is absent
// or the empty string.
func checkRequired(fields []schema.Requirement, data map[string]any) error {
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := data[f.ID]
		if !ok {
			return apperrors.Validation("Field %q is required", f.Label)
		}
		if str, isString := v.(string); isString && str == "" {
			return apperrors.Validation("Field %q is required", f.Label)
		}
	}
	return nil
}

// List returns a page of submissions. An empty token lists every form's
// submissions; otherwise token is resolved like a form lookup.
func (s *SubmissionService) List(ctx context.Context, token string, params pagination.Params) ([]models.Submission, pagination.Meta, error) {
	formID := ""
	if token != "" {
		form, err := s.resolve(ctx, token)
		if err != nil {
			return nil, pagination.Meta{}, err
		}
		formID = form.ID
	}

	submissions, total, err := s.subs.List(ctx, formID, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return submissions, params.Meta(total), nil
}

func (s *SubmissionService) resolve(ctx context.Context, token string) (*models.Form, error) {
	form, err := s.forms.GetByIDOrSlug(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrFormNotFound
		}
		return nil, err
	}
	return form, nil
}
