package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// SubscriptionPackage is admin-managed reference data describing a purchasable tier.
type SubscriptionPackage struct {
	ID                  uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string                 `gorm:"column:name;not null"`
	Tier                enums.SubscriptionTier `gorm:"column:tier;type:subscription_tier;not null"`
	PriceToman          decimal.Decimal        `gorm:"column:price_toman;type:numeric(12,0);not null"`
	DurationInMonths    int                    `gorm:"column:duration_in_months;not null"`
	MaxSurveysPerMonth  *int                   `gorm:"column:max_surveys_per_month"`
	IsActive            bool                   `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
