package subscriptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
)

// Repository persists subscription packages and payment attempts.
type Repository interface {
	ListPackages(ctx context.Context, activeOnly bool) ([]models.SubscriptionPackage, error)
	FindPackageByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPackage, error)
	CreatePackage(ctx context.Context, pkg *models.SubscriptionPackage) error
	UpdatePackage(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.SubscriptionPackage, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindPaymentByAuthority(ctx context.Context, authority string) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
	// SettlePayment moves a payment from one status to another only if it is
	// still in the expected status, reporting whether this caller won the move.
	SettlePayment(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, refID *string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a subscriptions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPackages(ctx context.Context, activeOnly bool) ([]models.SubscriptionPackage, error) {
	query := r.db.WithContext(ctx).Order("price_toman ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var packages []models.SubscriptionPackage
	if err := query.Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *repository) FindPackageByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPackage, error) {
	var pkg models.SubscriptionPackage
	if err := r.db.WithContext(ctx).First(&pkg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repository) CreatePackage(ctx context.Context, pkg *models.SubscriptionPackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

func (r *repository) UpdatePackage(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.SubscriptionPackage, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&models.SubscriptionPackage{}).
			Where("id = ?", id).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return r.FindPackageByID(ctx, id)
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindPaymentByAuthority(ctx context.Context, authority string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "authority = ?", authority).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) SettlePayment(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, refID *string) (bool, error) {
	updates := map[string]any{"status": to}
	if refID != nil {
		updates["ref_id"] = *refID
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
