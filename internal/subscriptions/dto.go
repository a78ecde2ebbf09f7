package subscriptions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// PackageDTO is the API shape of a purchasable subscription package.
type PackageDTO struct {
	ID                 uuid.UUID              `json:"id"`
	Name               string                 `json:"name"`
	Tier               enums.SubscriptionTier `json:"tier"`
	PriceToman         decimal.Decimal        `json:"price_toman"`
	DurationInMonths   int                    `json:"duration_in_months"`
	MaxSurveysPerMonth *int                   `json:"max_surveys_per_month,omitempty"`
	IsActive           bool                   `json:"is_active"`
}

// CreatePackageInput is the staff payload for adding a package.
type CreatePackageInput struct {
	Name               string          `json:"name" validate:"required"`
	Tier               string          `json:"tier" validate:"required"`
	PriceToman         decimal.Decimal `json:"price_toman" validate:"required"`
	DurationInMonths   int             `json:"duration_in_months" validate:"required,min=1"`
	MaxSurveysPerMonth *int            `json:"max_surveys_per_month,omitempty"`
}

// UpdatePackageInput is the staff payload for partial package updates.
type UpdatePackageInput struct {
	Name               *string          `json:"name,omitempty"`
	PriceToman         *decimal.Decimal `json:"price_toman,omitempty"`
	DurationInMonths   *int             `json:"duration_in_months,omitempty"`
	MaxSurveysPerMonth *int             `json:"max_surveys_per_month,omitempty"`
	IsActive           *bool            `json:"is_active,omitempty"`
}

// PurchaseResult carries the gateway handshake outcome for the buyer.
type PurchaseResult struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	Authority  string    `json:"authority"`
	PaymentURL string    `json:"payment_url"`
	AmountRial int64     `json:"amount_rial"`
}

// CallbackResult reports how a gateway return was settled.
type CallbackResult struct {
	PaymentID             uuid.UUID           `json:"payment_id"`
	Status                enums.PaymentStatus `json:"status"`
	RefID                 *string             `json:"ref_id,omitempty"`
	Tier                  *string             `json:"tier,omitempty"`
	SubscriptionExpiresAt *time.Time          `json:"subscription_expires_at,omitempty"`
}

// PaymentDTO is the API shape of one payment attempt.
type PaymentDTO struct {
	ID         uuid.UUID           `json:"id"`
	PackageID  uuid.UUID           `json:"package_id"`
	Authority  string              `json:"authority"`
	Status     enums.PaymentStatus `json:"status"`
	AmountRial decimal.Decimal     `json:"amount_rial"`
	RefID      *string             `json:"ref_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

func packageFromModel(pkg *models.SubscriptionPackage) PackageDTO {
	return PackageDTO{
		ID:                 pkg.ID,
		Name:               pkg.Name,
		Tier:               pkg.Tier,
		PriceToman:         pkg.PriceToman,
		DurationInMonths:   pkg.DurationInMonths,
		MaxSurveysPerMonth: pkg.MaxSurveysPerMonth,
		IsActive:           pkg.IsActive,
	}
}

func paymentFromModel(payment *models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:         payment.ID,
		PackageID:  payment.PackageID,
		Authority:  payment.Authority,
		Status:     payment.Status,
		AmountRial: payment.AmountRial,
		RefID:      payment.RefID,
		CreatedAt:  payment.CreatedAt,
	}
}
