package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// Payment tracks one gateway payment attempt, keyed by the gateway authority token.
type Payment struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	PackageID   uuid.UUID           `gorm:"column:package_id;type:uuid;not null"`
	Authority   string              `gorm:"column:authority;not null;uniqueIndex"`
	Status      enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'unpaid'"`
	AmountRial  decimal.Decimal     `gorm:"column:amount_rial;type:numeric(14,0);not null"`
	RefID       *string             `gorm:"column:ref_id"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
