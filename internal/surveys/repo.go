package surveys

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/pagination"
)

// Repository exposes survey persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, survey *models.Survey) (*models.Survey, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Survey, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountForCreatorBetween(ctx context.Context, creatorID uuid.UUID, from, to time.Time) (int64, error)
	CreateQuestion(ctx context.Context, question *models.Question) (*models.Question, error)
	FindQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	CreateChoice(ctx context.Context, choice *models.Choice) (*models.Choice, error)
	DeleteChoice(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a surveys repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	if err := r.db.WithContext(ctx).Create(survey).Error; err != nil {
		return nil, err
	}
	return survey, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	var survey models.Survey
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC, questions.created_at ASC")
		}).
		Preload("Questions.Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("choices.created_at ASC")
		}).
		First(&survey, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *repository) ListByCreator(ctx context.Context, creatorID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Survey, error) {
	query := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var surveys []models.Survey
	if err := query.Find(&surveys).Error; err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Survey{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Survey{}, "id = ?", id).Error
}

// CountForCreatorBetween counts surveys created in [from, to).
func (r *repository) CountForCreatorBetween(ctx context.Context, creatorID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Survey{}).
		Where("creator_id = ? AND created_at >= ? AND created_at < ?", creatorID, from, to).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateQuestion(ctx context.Context, question *models.Question) (*models.Question, error) {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return nil, err
	}
	return question, nil
}

func (r *repository) FindQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Preload("Choices").
		First(&question, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *repository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Question{}, "id = ?", id).Error
}

func (r *repository) CreateChoice(ctx context.Context, choice *models.Choice) (*models.Choice, error) {
	if err := r.db.WithContext(ctx).Create(choice).Error; err != nil {
		return nil, err
	}
	return choice, nil
}

func (r *repository) DeleteChoice(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Choice{}, "id = ?", id).Error
}
