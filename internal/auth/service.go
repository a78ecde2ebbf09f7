package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/internal/users"
	pkgAuth "github.com/pollpulse/pollpulse-backend/pkg/auth"
	"github.com/pollpulse/pollpulse-backend/pkg/auth/session"
	"github.com/pollpulse/pollpulse-backend/pkg/config"
	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/security"
	"github.com/pollpulse/pollpulse-backend/pkg/sms"
)

const (
	invalidCodeMessage        = "invalid or expired code"
	invalidCredentialsMessage = "invalid credentials"
	accountSuspendedMessage   = "account suspended"
)

// phoneRe accepts Iranian mobile numbers: 09 followed by nine digits.
var phoneRe = regexp.MustCompile(`^09\d{9}$`)

// Service defines the behavior needed by the auth controller.
type Service interface {
	RequestCode(ctx context.Context, req RequestCodeRequest) (*RequestCodeResponse, error)
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*LoginResponse, error)
	AdminLogin(ctx context.Context, req AdminLoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetOrCreateByPhone(ctx context.Context, phone string) (*models.User, bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type otpStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	OTPKey(phone string) string
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	users   userRepository
	store   otpStore
	sender  sms.Sender
	session sessionManager
	jwtCfg  config.JWTConfig
	otpCfg  config.OTPConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	OTPStore       otpStore
	SMSSender      sms.Sender
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	OTPConfig      config.OTPConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.OTPStore == nil {
		return nil, fmt.Errorf("otp store is required")
	}
	if params.SMSSender == nil {
		return nil, fmt.Errorf("sms sender is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.OTPConfig.CodeLength <= 0 || params.OTPConfig.TTL <= 0 || params.OTPConfig.MaxAttempts <= 0 {
		return nil, fmt.Errorf("otp config must have positive code length, ttl, and max attempts")
	}
	return &service{
		users:   params.UserRepo,
		store:   params.OTPStore,
		sender:  params.SMSSender,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		otpCfg:  params.OTPConfig,
	}, nil
}

// otpCredential is the Redis-persisted state of a pending code. The record
// carries its own expiry so failed-attempt rewrites cannot extend the window.
type otpCredential struct {
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *service) RequestCode(ctx context.Context, req RequestCodeRequest) (*RequestCodeResponse, error) {
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	code, err := security.GenerateOTPCode(s.otpCfg.CodeLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp code")
	}

	now := time.Now().UTC()
	credential := otpCredential{
		Code:      code,
		Attempts:  0,
		ExpiresAt: now.Add(s.otpCfg.TTL),
	}
	if err := s.storeCredential(ctx, phone, credential, s.otpCfg.TTL); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("PollPulse verification code: %s", code)
	if err := s.sender.Send(ctx, phone, message); err != nil {
		// undeliverable codes are useless and would count against the caller
		_ = s.store.Del(ctx, s.store.OTPKey(phone))
		return nil, err
	}

	return &RequestCodeResponse{ExpiresInSeconds: int(s.otpCfg.TTL.Seconds())}, nil
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*LoginResponse, error) {
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}

	key := s.store.OTPKey(phone)
	credential, err := s.loadCredential(ctx, key)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if now.After(credential.ExpiresAt) {
		_ = s.store.Del(ctx, key)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}

	credential.Attempts++
	if credential.Attempts > s.otpCfg.MaxAttempts {
		_ = s.store.Del(ctx, key)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}

	if subtle.ConstantTimeCompare([]byte(credential.Code), []byte(code)) != 1 {
		remaining := time.Until(credential.ExpiresAt)
		if remaining > 0 {
			_ = s.storeCredential(ctx, phone, *credential, remaining)
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}

	// single-use: consume before issuing tokens
	if err := s.store.Del(ctx, key); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume otp credential")
	}

	user, isNew, err := s.users.GetOrCreateByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get or create user")
	}
	if err := s.ensureLoginAllowed(user); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user, now)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  tokens.access,
		RefreshToken: tokens.refresh,
		IsNewUser:    isNew,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) AdminLogin(ctx context.Context, req AdminLoginRequest) (*LoginResponse, error) {
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if !user.IsStaff || user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	valid, err := security.VerifyPassword(req.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if err := s.ensureLoginAllowed(user); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  tokens.access,
		RefreshToken: tokens.refresh,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if err := s.ensureLoginAllowed(user); err != nil {
		return nil, err
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:  user.ID,
		Tier:    user.Tier,
		IsStaff: user.IsStaff,
		JTI:     newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

type tokenPair struct {
	access  string
	refresh string
}

func (s *service) issueTokens(ctx context.Context, user *models.User, now time.Time) (*tokenPair, error) {
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:  user.ID,
		Tier:    user.Tier,
		IsStaff: user.IsStaff,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &tokenPair{access: accessToken, refresh: refreshToken}, nil
}

func (s *service) ensureLoginAllowed(user *models.User) error {
	if user.IsSuspended {
		return pkgerrors.New(pkgerrors.CodeForbidden, accountSuspendedMessage)
	}
	if !user.IsActive {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return nil
}

func (s *service) storeCredential(ctx context.Context, phone string, credential otpCredential, ttl time.Duration) error {
	raw, err := json.Marshal(credential)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode otp credential")
	}
	if err := s.store.Set(ctx, s.store.OTPKey(phone), string(raw), ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store otp credential")
	}
	return nil
}

func (s *service) loadCredential(ctx context.Context, key string) (*otpCredential, error) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load otp credential")
	}
	var credential otpCredential
	if err := json.Unmarshal([]byte(raw), &credential); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode otp credential")
	}
	return &credential, nil
}

func normalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if !phoneRe.MatchString(phone) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number must match 09XXXXXXXXX").
			WithDetails(map[string]string{"phone_number": "expected the 09 mobile format with 11 digits"})
	}
	return phone, nil
}
