package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// User represents the canonical identity entity, keyed by phone number.
type User struct {
	ID                     uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PhoneNumber            string                 `gorm:"column:phone_number;not null;uniqueIndex"`
	FirstName              string                 `gorm:"column:first_name"`
	LastName               string                 `gorm:"column:last_name"`
	Tier                   enums.SubscriptionTier `gorm:"column:tier;type:subscription_tier;not null;default:'free'"`
	SubscriptionExpiresAt  *time.Time             `gorm:"column:subscription_expires_at"`
	PasswordHash           *string                `gorm:"column:password_hash"`
	IsActive               bool                   `gorm:"column:is_active;not null;default:true"`
	IsStaff                bool                   `gorm:"column:is_staff;not null;default:false"`
	IsSuspended            bool                   `gorm:"column:is_suspended;not null;default:false"`
	LastLoginAt            *time.Time             `gorm:"column:last_login_at"`
	CreatedAt              time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
