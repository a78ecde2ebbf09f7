package models

import (
	"time"

	"github.com/google/uuid"
)

// Choice is a selectable option on a poll or ranking question.
type Choice struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	QuestionID uuid.UUID `gorm:"column:question_id;type:uuid;not null;index"`
	Label      string    `gorm:"column:label;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
