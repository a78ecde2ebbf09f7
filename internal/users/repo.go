package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the provided transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByPhone retrieves the user matching the provided phone number.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateByPhone returns the user for the phone number, creating a free-tier
// account on first login.
func (r *Repository) GetOrCreateByPhone(ctx context.Context, phone string) (*models.User, bool, error) {
	user, err := r.FindByPhone(ctx, phone)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	created := &models.User{
		PhoneNumber: phone,
		Tier:        enums.SubscriptionTierFree,
		IsActive:    true,
	}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdateProfile applies partial profile changes for the given user.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) (*models.User, error) {
	updates := map[string]any{}
	if dto.FirstName != nil {
		updates["first_name"] = *dto.FirstName
	}
	if dto.LastName != nil {
		updates["last_name"] = *dto.LastName
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// UpdateSubscription moves the user to the purchased tier with a fresh expiry.
func (r *Repository) UpdateSubscription(ctx context.Context, id uuid.UUID, tier enums.SubscriptionTier, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tier":                    tier,
			"subscription_expires_at": expiresAt,
		}).Error
}

// SetSuspended toggles the suspension flag for the given user.
func (r *Repository) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("is_suspended", suspended).Error
}

// List pages through users newest first using a keyset cursor.
func (r *Repository) List(ctx context.Context, limit int, before *time.Time, beforeID *uuid.UUID) ([]models.User, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if before != nil && beforeID != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", *before, *before, *beforeID)
	}
	var out []models.User
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LockByID loads the user row with FOR UPDATE, serializing concurrent writers.
func (r *Repository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := tx.WithContext(ctx).
		Clauses(forUpdateClause()).
		First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func forUpdateClause() clause.Expression {
	return clause.Locking{Strength: "UPDATE"}
}
