package services

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"formflow/internal/apperrors"
	"formflow/internal/models"
	"formflow/internal/repositories"
	"formflow/internal/schema"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// FormService stores form definitions.
type FormService struct {
	repo      repositories.FormRepository
	publisher EventPublisher
	log       *logrus.Logger
	now       func() time.Time
}

// NewFormService creates a new FormService. publisher may be nil.
func NewFormService(repo repositories.FormRepository, publisher EventPublisher, log *logrus.Logger) *FormService {
	return &FormService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Upsert validates p and stores it under formID. Every mutable field is
// replaced on update; nothing is merged. The bool result is true when the
// form was created.
func (s *FormService) Upsert(ctx context.Context, formID string, p *schema.FormPayload) (*models.Form, bool, error) {
	if formID == "" {
		return nil, false, apperrors.Validation("formId is required")
	}
	if err := schema.Validate(p); err != nil {
		return nil, false, err
	}

	details := p.FormDetails
	if details.Slug != "" {
		if !schema.ValidSlug(details.Slug) {
			return nil, false, apperrors.Validation("form slug is invalid")
		}
		taken, err := s.repo.SlugTaken(ctx, details.Slug, formID)
		if err != nil {
			return nil, false, err
		}
		if taken {
			return nil, false, apperrors.Conflict("form slug already in use")
		}
	}

	var fields bytes.Buffer
	if err := json.Compact(&fields, p.FormFields); err != nil {
		return nil, false, apperrors.Validation("formFields must be an array")
	}

	now := s.now().UTC()
	form := &models.Form{
		ID:            formID,
		InternalTitle: details.InternalTitle,
		PublicTitle:   nullable(details.PublicTitle),
		Description:   nullable(details.Description),
		Slug:          nullable(details.Slug),
		IsPublished:   details.IsPublished != nil && *details.IsPublished,
		Fields:        datatypes.JSON(fields.Bytes()),
		UpdatedAt:     now,
	}

	isNew := false
	existing, err := s.repo.GetByID(ctx, formID)
	switch {
	case err == nil:
		form.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, form); err != nil {
			return nil, false, err
		}
	case errors.Is(err, repositories.ErrNotFound):
		// A new id must not shadow another form's slug.
		taken, err := s.repo.SlugTaken(ctx, formID, formID)
		if err != nil {
			return nil, false, err
		}
		if taken {
			return nil, false, apperrors.Conflict("form id already in use as a slug")
		}
		isNew = true
		form.CreatedAt = now
		if err := s.repo.Create(ctx, form); err != nil {
			return nil, false, err
		}
	default:
		return nil, false, err
	}

	s.log.WithField("form_id", formID).WithField("created", isNew).Info("form saved")
	publishEvent(s.publisher, s.log, Event{Type: EventFormSaved, FormID: formID, At: now})
	return form, isNew, nil
}

// GetByIDOrSlug resolves token against form ids and slugs.
func (s *FormService) GetByIDOrSlug(ctx context.Context, token string) (*models.Form, error) {
	form, err := s.repo.GetByIDOrSlug(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrFormNotFound
		}
		return nil, err
	}
	return form, nil
}

// GetAll returns every form.
func (s *FormService) GetAll(ctx context.Context) ([]models.Form, error) {
	return s.repo.GetAll(ctx)
}

// Delete resolves token and removes the form together with its
// submissions. It returns the deleted form's id.
func (s *FormService) Delete(ctx context.Context, token string) (string, error) {
	form, err := s.GetByIDOrSlug(ctx, token)
	if err != nil {
		return "", err
	}
	if err := s.repo.DeleteWithSubmissions(ctx, form.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperrors.ErrFormNotFound
		}
		return "", err
	}
	s.log.WithField("form_id", form.ID).Info("form deleted")
	publishEvent(s.publisher, s.log, Event{Type: EventFormDeleted, FormID: form.ID, At: s.now().UTC()})
	return form.ID, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
