package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                    uuid.UUID              `json:"id"`
	PhoneNumber           string                 `json:"phone_number"`
	FirstName             string                 `json:"first_name"`
	LastName              string                 `json:"last_name"`
	Tier                  enums.SubscriptionTier `json:"tier"`
	SubscriptionExpiresAt *time.Time             `json:"subscription_expires_at,omitempty"`
	IsActive              bool                   `json:"is_active"`
	IsStaff               bool                   `json:"is_staff,omitempty"`
	IsSuspended           bool                   `json:"is_suspended,omitempty"`
	LastLoginAt           *time.Time             `json:"last_login_at,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// UpdateProfileDTO carries the fields a user may change on their own account.
type UpdateProfileDTO struct {
	FirstName *string
	LastName  *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                    u.ID,
		PhoneNumber:           u.PhoneNumber,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Tier:                  u.Tier,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
		IsActive:              u.IsActive,
		IsStaff:               u.IsStaff,
		IsSuspended:           u.IsSuspended,
		LastLoginAt:           u.LastLoginAt,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}
