package auth

import (
	"github.com/pollpulse/pollpulse-backend/internal/users"
)

// RequestCodeRequest starts the OTP handshake for a phone number.
type RequestCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

// RequestCodeResponse reports how long the delivered code stays valid.
type RequestCodeResponse struct {
	ExpiresInSeconds int `json:"expires_in_seconds"`
}

// VerifyCodeRequest completes the OTP handshake.
type VerifyCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Code        string `json:"code" validate:"required"`
}

// AdminLoginRequest authenticates a staff account with a password.
type AdminLoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// LoginResponse carries the token pair plus the authenticated user.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	IsNewUser    bool           `json:"is_new_user,omitempty"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest exchanges an expired access token plus refresh token for a new pair.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse carries the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
