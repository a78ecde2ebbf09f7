package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// Question belongs to one survey and drives the aggregation shape of its responses.
type Question struct {
	ID        uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SurveyID  uuid.UUID          `gorm:"column:survey_id;type:uuid;not null;index"`
	Text      string             `gorm:"column:text;not null"`
	Type      enums.QuestionType `gorm:"column:type;type:question_type;not null"`
	Position  int                `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Choices []Choice `gorm:"foreignKey:QuestionID"`
}
