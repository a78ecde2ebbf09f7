package participation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
)

// Repository persists participant answers.
type Repository interface {
	CreateResponses(ctx context.Context, responses []models.SurveyResponse) error
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.SurveyResponse, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a participation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateResponses(ctx context.Context, responses []models.SurveyResponse) error {
	if len(responses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&responses).Error
}

func (r *repository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.SurveyResponse, error) {
	var responses []models.SurveyResponse
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}
