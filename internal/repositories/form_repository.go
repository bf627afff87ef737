package repositories

import (
	"context"

	"formflow/internal/models"

	"gorm.io/datatypes"
)

// FormRepository defines the interface for form data access.
type FormRepository interface {
	GetAll(ctx context.Context) ([]models.Form, error)
	GetByID(ctx context.Context, id string) (*models.Form, error)
	// GetByIDOrSlug matches id = token OR slug = token. When both an id and
	// a different form's slug match, which row wins is left to the store.
	GetByIDOrSlug(ctx context.Context, token string) (*models.Form, error)
	// SlugTaken reports whether slug is used as the id or slug of a form
	// other than excludeID.
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, form *models.Form) error
	Update(ctx context.Context, form *models.Form) error
	// DeleteWithSubmissions removes the form's submissions and then the
	// form in a single transaction.
	DeleteWithSubmissions(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	AllFields(ctx context.Context) ([]datatypes.JSON, error)
}
