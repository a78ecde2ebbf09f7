package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Tier    enums.SubscriptionTier
	IsStaff bool
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  uuid.UUID              `json:"user_id"`
	Tier    enums.SubscriptionTier `json:"tier"`
	IsStaff bool                   `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}
