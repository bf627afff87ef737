package repositories

import (
	"context"

	"formflow/internal/models"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GORMFormRepository is a GORM implementation of FormRepository.
type GORMFormRepository struct {
	db *gorm.DB
}

// NewGORMFormRepository creates a new instance of GORMFormRepository.
func NewGORMFormRepository(db *gorm.DB) *GORMFormRepository {
	return &GORMFormRepository{db: db}
}

// GetAll returns every form in store order.
func (r *GORMFormRepository) GetAll(ctx context.Context) ([]models.Form, error) {
	var forms []models.Form
	if err := r.db.WithContext(ctx).Find(&forms).Error; err != nil {
		return nil, errors.Wrap(err, "failed to get all forms")
	}
	return forms, nil
}

// GetByID retrieves a form by its identifier only.
func (r *GORMFormRepository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	var form models.Form
	if err := r.db.WithContext(ctx).Take(&form, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "form with ID %s", id)
		}
		return nil, errors.Wrapf(err, "failed to get form by ID %s", id)
	}
	return &form, nil
}

// GetByIDOrSlug retrieves the form whose id or slug equals token.
func (r *GORMFormRepository) GetByIDOrSlug(ctx context.Context, token string) (*models.Form, error) {
	var form models.Form
	err := r.db.WithContext(ctx).
		Where("id = ?", token).
		Or("slug = ?", token).
		Take(&form).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "form with ID or slug %s", token)
		}
		return nil, errors.Wrapf(err, "failed to get form by ID or slug %s", token)
	}
	return &form, nil
}

// SlugTaken checks slug against the ids and slugs of other forms.
func (r *GORMFormRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Form{}).
		Where("id <> ?", excludeID).
		Where(r.db.Where("id = ?", slug).Or("slug = ?", slug)).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check slug")
	}
	return count > 0, nil
}

// Create inserts a form with its caller-supplied id.
func (r *GORMFormRepository) Create(ctx context.Context, form *models.Form) error {
	if err := r.db.WithContext(ctx).Create(form).Error; err != nil {
		return errors.Wrapf(err, "failed to create form %s", form.ID)
	}
	return nil
}

// Update overwrites every mutable column of an existing form, including
// zero values.
func (r *GORMFormRepository) Update(ctx context.Context, form *models.Form) error {
	res := r.db.WithContext(ctx).Model(&models.Form{}).
		Where("id = ?", form.ID).
		Select("internal_title", "public_title", "description", "slug", "is_published", "fields", "updated_at").
		Updates(form)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update form %s", form.ID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "form with ID %s for update", form.ID)
	}
	return nil
}

// DeleteWithSubmissions removes a form and everything submitted to it.
func (r *GORMFormRepository) DeleteWithSubmissions(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Submission{}, "form_id = ?", id).Error; err != nil {
			return errors.Wrapf(err, "failed to delete submissions of form %s", id)
		}
		res := tx.Delete(&models.Form{}, "id = ?", id)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to delete form %s", id)
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ErrNotFound, "form with ID %s for deletion", id)
		}
		return nil
	})
}

// Count returns the number of forms.
func (r *GORMFormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Form{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count forms")
	}
	return count, nil
}

// AllFields returns the raw field list of every form.
func (r *GORMFormRepository) AllFields(ctx context.Context) ([]datatypes.JSON, error) {
	var fields []datatypes.JSON
	if err := r.db.WithContext(ctx).Model(&models.Form{}).Pluck("fields", &fields).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load form fields")
	}
	return fields, nil
}
