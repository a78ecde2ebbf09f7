package pages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
)

// Repository persists admin-authored static pages.
type Repository interface {
	List(ctx context.Context) ([]models.Page, error)
	FindBySlug(ctx context.Context, slug string) (*models.Page, error)
	Create(ctx context.Context, page *models.Page) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pages repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	if err := r.db.WithContext(ctx).First(&page, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *repository) Create(ctx context.Context, page *models.Page) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Page, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&models.Page{}).
			Where("id = ?", id).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	var page models.Page
	if err := r.db.WithContext(ctx).First(&page, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Page{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
