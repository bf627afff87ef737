package main

import (
	"context"

	"formflow/internal/apperrors"
	"formflow/internal/repositories"
	"formflow/internal/schema"
	"formflow/internal/services"
	"formflow/pkg/formbuilder"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// seedForms stores a published demo form unless one with the same id exists.
func seedForms(ctx context.Context, db *gorm.DB, log *logrus.Logger) {
	formService := services.NewFormService(repositories.NewGORMFormRepository(db), nil, log)

	const title = "Customer Feedback"
	b := formbuilder.New("demo-feedback")
	b.SetDetails(schema.FormDetails{
		InternalTitle: title,
		PublicTitle:   "Tell us what you think",
		Description:   "A short survey about your last visit.",
		Slug:          schema.GenerateSlug(title),
	})
	b.SetPublished(true)

	for _, ft := range []schema.FieldType{schema.FieldText, schema.FieldEmail, schema.FieldSelect, schema.FieldTextarea} {
		preset, _ := formbuilder.PresetFor(ft)
		id := b.AddField(preset.Field())
		if ft == schema.FieldText || ft == schema.FieldEmail {
			b.UpdateField(id, func(f *schema.FieldDefinition) { f.Required = true })
		}
	}

	if _, err := formService.GetByIDOrSlug(ctx, b.FormID()); err == nil {
		log.WithField("form_id", b.FormID()).Info("demo form already present")
		return
	} else if !errors.Is(err, apperrors.ErrFormNotFound) {
		log.WithError(err).Error("error checking demo form")
		return
	}

	payload, err := b.Payload()
	if err != nil {
		log.WithError(err).Error("error building demo form")
		return
	}
	if _, _, err := formService.Upsert(ctx, payload.FormID, payload); err != nil {
		log.WithError(err).Error("error seeding demo form")
		return
	}
	log.WithField("form_id", payload.FormID).Info("seeded demo form")
}
