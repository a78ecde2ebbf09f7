package models

import (
	"time"

	"github.com/google/uuid"
)

// Survey is owned by exactly one user and editable for a fixed 30-day window.
type Survey struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID     uuid.UUID `gorm:"column:creator_id;type:uuid;not null;index"`
	Title         string    `gorm:"column:title;not null"`
	Description   string    `gorm:"column:description"`
	EditableUntil time.Time `gorm:"column:editable_until;not null"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	BackgroundURL *string   `gorm:"column:background_url"`
	LogoURL       *string   `gorm:"column:logo_url"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Questions []Question `gorm:"foreignKey:SurveyID"`
}

// IsEditable reports whether the survey is still inside its edit window.
func (s Survey) IsEditable(now time.Time) bool {
	return !now.Truncate(24 * time.Hour).After(s.EditableUntil)
}
