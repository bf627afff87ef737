package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"formflow/internal/apperrors"
	"formflow/internal/logging"
	"formflow/internal/models"
	"formflow/internal/schema"
	"formflow/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func payload(title, slug string, published bool, fields string) *schema.FormPayload {
	return &schema.FormPayload{
		FormDetails: &schema.FormDetails{
			InternalTitle: title,
			Slug:          slug,
			IsPublished:   boolPtr(published),
		},
		FormFields: json.RawMessage(fields),
	}
}

func TestFormService_UpsertCreates(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFormRepository)
	pub := new(MockPublisher)
	svc := services.NewFormService(repo, pub, logging.Discard())

	repo.On("SlugTaken", ctx, "contact-us", "f1").Return(false, nil).Once()
	repo.On("GetByID", ctx, "f1").Return(nil, notFound("form")).Once()
	repo.On("SlugTaken", ctx, "f1", "f1").Return(false, nil).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*models.Form")).Return(nil).Once()
	pub.On("PublishEvent", services.EventFormSaved, mock.AnythingOfType("services.Event")).Return(nil).Once()

	form, created, err := svc.Upsert(ctx, "f1", payload("Contact", "contact-us", true,
		`[ {"id":"name","type":"text","label":"Name","required":true} ]`))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "f1", form.ID)
	assert.Equal(t, "Contact", form.InternalTitle)
	require.NotNil(t, form.Slug)
	assert.Equal(t, "contact-us", *form.Slug)
	assert.Nil(t, form.PublicTitle)
	assert.Nil(t, form.Description)
	assert.True(t, form.IsPublished)
	assert.JSONEq(t, `[{"id":"name","type":"text","label":"Name","required":true}]`, string(form.Fields))
	assert.Equal(t, form.CreatedAt, form.UpdatedAt)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestFormService_UpsertReplacesAndKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFormRepository)
	svc := services.NewFormService(repo, nil, logging.Discard())

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.On("GetByID", ctx, "f1").Return(&models.Form{ID: "f1", CreatedAt: created}, nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(f *models.Form) bool {
		return f.ID == "f1" && f.InternalTitle == "Renamed" && !f.IsPublished && f.Slug == nil
	})).Return(nil).Once()

	form, isNew, err := svc.Upsert(ctx, "f1", payload("Renamed", "", false, `[]`))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created, form.CreatedAt)
	assert.True(t, form.UpdatedAt.After(created))
	repo.AssertExpectations(t)
}

func TestFormService_UpsertValidation(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFormRepository)
	svc := services.NewFormService(repo, nil, logging.Discard())

	tests := []struct {
		name    string
		formID  string
		payload *schema.FormPayload
		message string
	}{
		{"missing id", "", payload("T", "", false, `[]`), "formId is required"},
		{"missing title", "f1", payload("", "", false, `[]`), "formDetails.internalTitle is required"},
		{"fields not array", "f1", payload("T", "", false, `{}`), "formFields must be an array"},
		{"bad type", "f1", payload("T", "", false, `[{"id":"a","type":"color","label":"A"}]`), "Invalid field type: color"},
		{"bad slug", "f1", payload("T", "Bad Slug", false, `[]`), "form slug is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Upsert(ctx, tt.formID, tt.payload)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
			assert.Equal(t, tt.message, err.Error())
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestFormService_UpsertSlugConflict(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFormRepository)
	svc := services.NewFormService(repo, nil, logging.Discard())

	repo.On("SlugTaken", ctx, "taken", "f2").Return(true, nil).Once()
	_, _, err := svc.Upsert(ctx, "f2", payload("T", "taken", false, `[]`))
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	repo.AssertExpectations(t)
}

func TestFormService_UpsertNewIDMatchingSlug(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFormRepository)
	svc := services.NewFormService(repo, nil, logging.Discard())

	repo.On("GetByID", ctx, "contact-us").Return(nil, notFound("form")).Once()
	repo.On("SlugTaken", ctx, "contact-us", "contact-us").Return(true, nil).Once()

	_, _, err := svc.Upsert(ctx, "contact-us", payload("T", "", false, `[]`))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Equal(t, "form id already in use as a slug", err.Error())
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFormService_PublishFailureDoesNotFailUpsert(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFormRepository)
	pub := new(MockPublisher)
	svc := services.NewFormService(repo, pub, logging.Discard())

	repo.On("GetByID", ctx, "f1").Return(nil, notFound("form")).Once()
	repo.On("SlugTaken", ctx, "f1", "f1").Return(false, nil).Once()
	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	pub.On("PublishEvent", services.EventFormSaved, mock.Anything).Return(errors.New("broker down")).Once()

	_, _, err := svc.Upsert(ctx, "f1", payload("T", "", false, `[]`))
	assert.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestFormService_GetByIDOrSlug(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFormRepository)
	svc := services.NewFormService(repo, nil, logging.Discard())

	repo.On("GetByIDOrSlug", ctx, "contact-us").Return(&models.Form{ID: "f1"}, nil).Once()
	form, err := svc.GetByIDOrSlug(ctx, "contact-us")
	require.NoError(t, err)
	assert.Equal(t, "f1", form.ID)

	repo.On("GetByIDOrSlug", ctx, "missing").Return(nil, notFound("form")).Once()
	_, err = svc.GetByIDOrSlug(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrFormNotFound)
	repo.AssertExpectations(t)
}

func TestFormService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFormRepository)
	pub := new(MockPublisher)
	svc := services.NewFormService(repo, pub, logging.Discard())

	repo.On("GetByIDOrSlug", ctx, "contact-us").Return(&models.Form{ID: "f1"}, nil).Once()
	repo.On("DeleteWithSubmissions", ctx, "f1").Return(nil).Once()
	pub.On("PublishEvent", services.EventFormDeleted, mock.MatchedBy(func(ev services.Event) bool {
		return ev.FormID == "f1"
	})).Return(nil).Once()

	id, err := svc.Delete(ctx, "contact-us")
	require.NoError(t, err)
	assert.Equal(t, "f1", id)

	repo.On("GetByIDOrSlug", ctx, "gone").Return(nil, notFound("form")).Once()
	_, err = svc.Delete(ctx, "gone")
	assert.ErrorIs(t, err, apperrors.ErrFormNotFound)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}
