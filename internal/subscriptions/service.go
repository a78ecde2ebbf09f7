package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
	"github.com/pollpulse/pollpulse-backend/pkg/zarinpal"
)

// callbackStatusOK is the status the gateway appends when the payer approved.
const callbackStatusOK = "OK"

// Gateway subscriptions are sold in 30-day months, matching the billing
// period the packages advertise.
const subscriptionMonth = 30 * 24 * time.Hour

var tomanToRial = decimal.NewFromInt(10)

type userStore interface {
	UpdateSubscription(ctx context.Context, id uuid.UUID, tier enums.SubscriptionTier, expiresAt time.Time) error
}

// Service sells subscription packages through the payment gateway.
type Service interface {
	ListPackages(ctx context.Context) ([]PackageDTO, error)
	ListAllPackages(ctx context.Context) ([]PackageDTO, error)
	CreatePackage(ctx context.Context, input CreatePackageInput) (*PackageDTO, error)
	UpdatePackage(ctx context.Context, id uuid.UUID, input UpdatePackageInput) (*PackageDTO, error)

	Purchase(ctx context.Context, userID uuid.UUID, packageID uuid.UUID) (*PurchaseResult, error)
	SettleCallback(ctx context.Context, authority, status string) (*CallbackResult, error)
	ListPayments(ctx context.Context, userID uuid.UUID) ([]PaymentDTO, error)
}

type service struct {
	repo        Repository
	users       userStore
	gateway     zarinpal.Gateway
	callbackURL string
	logger      *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build a subscriptions service.
type ServiceParams struct {
	Repo        Repository
	Users       userStore
	Gateway     zarinpal.Gateway
	CallbackURL string
	Logger      *logger.Logger
	Now         func() time.Time
}

// NewService builds a subscriptions service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if strings.TrimSpace(params.CallbackURL) == "" {
		return nil, fmt.Errorf("payment callback url is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        params.Repo,
		users:       params.Users,
		gateway:     params.Gateway,
		callbackURL: params.CallbackURL,
		logger:      params.Logger,
		now:         now,
	}, nil
}

func (s *service) ListPackages(ctx context.Context) ([]PackageDTO, error) {
	return s.listPackages(ctx, true)
}

func (s *service) ListAllPackages(ctx context.Context) ([]PackageDTO, error) {
	return s.listPackages(ctx, false)
}

func (s *service) listPackages(ctx context.Context, activeOnly bool) ([]PackageDTO, error) {
	packages, err := s.repo.ListPackages(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list packages")
	}
	out := make([]PackageDTO, 0, len(packages))
	for i := range packages {
		out = append(out, packageFromModel(&packages[i]))
	}
	return out, nil
}

func (s *service) CreatePackage(ctx context.Context, input CreatePackageInput) (*PackageDTO, error) {
	tier, err := enums.ParseSubscriptionTier(input.Tier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription tier")
	}
	if input.PriceToman.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package price cannot be negative")
	}

	pkg := &models.SubscriptionPackage{
		Name:               strings.TrimSpace(input.Name),
		Tier:               tier,
		PriceToman:         input.PriceToman,
		DurationInMonths:   input.DurationInMonths,
		MaxSurveysPerMonth: input.MaxSurveysPerMonth,
		IsActive:           true,
	}
	if pkg.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package name is required")
	}
	if err := s.repo.CreatePackage(ctx, pkg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create package")
	}
	dto := packageFromModel(pkg)
	return &dto, nil
}

func (s *service) UpdatePackage(ctx context.Context, id uuid.UUID, input UpdatePackageInput) (*PackageDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.PriceToman != nil {
		if input.PriceToman.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "package price cannot be negative")
		}
		updates["price_toman"] = *input.PriceToman
	}
	if input.DurationInMonths != nil {
		if *input.DurationInMonths < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "package duration must be at least one month")
		}
		updates["duration_in_months"] = *input.DurationInMonths
	}
	if input.MaxSurveysPerMonth != nil {
		updates["max_surveys_per_month"] = *input.MaxSurveysPerMonth
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	pkg, err := s.repo.UpdatePackage(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update package")
	}
	dto := packageFromModel(pkg)
	return &dto, nil
}

// Purchase opens a gateway handshake for the package and records an unpaid
// payment keyed by the gateway authority. The caller is redirected to the
// returned payment URL; settlement happens in SettleCallback.
func (s *service) Purchase(ctx context.Context, userID uuid.UUID, packageID uuid.UUID) (*PurchaseResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	pkg, err := s.repo.FindPackageByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
	}
	if !pkg.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
	}

	amountRial := pkg.PriceToman.Mul(tomanToRial)
	if !amountRial.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package is not purchasable")
	}

	request, err := s.gateway.RequestPayment(ctx, zarinpal.RequestParams{
		AmountRial:  amountRial.IntPart(),
		CallbackURL: s.callbackURL,
		Description: fmt.Sprintf("subscription package %s", pkg.Name),
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:     userID,
		PackageID:  pkg.ID,
		Authority:  request.Authority,
		Status:     enums.PaymentStatusUnpaid,
		AmountRial: amountRial,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"payment_id": payment.ID,
		"package_id": pkg.ID,
	}), "payment handshake opened")

	return &PurchaseResult{
		PaymentID:  payment.ID,
		Authority:  request.Authority,
		PaymentURL: s.gateway.StartPayURL(request.Authority),
		AmountRial: amountRial.IntPart(),
	}, nil
}

// SettleCallback resolves a gateway return. Settlement is idempotent: a
// payment already moved to a terminal status is reported as-is, and the
// compare-and-swap on status guarantees the subscription upgrade runs once
// even when the gateway retries the callback.
func (s *service) SettleCallback(ctx context.Context, authority, status string) (*CallbackResult, error) {
	authority = strings.TrimSpace(authority)
	if authority == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment authority is required")
	}

	payment, err := s.repo.FindPaymentByAuthority(ctx, authority)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status.IsTerminal() {
		return s.callbackResult(payment), nil
	}

	if !strings.EqualFold(status, callbackStatusOK) {
		return s.markFailed(ctx, payment)
	}

	verification, err := s.gateway.VerifyPayment(ctx, zarinpal.VerifyParams{
		AmountRial: payment.AmountRial.IntPart(),
		Authority:  payment.Authority,
	})
	if err != nil {
		// A verify exception settles the attempt as failed; the payer can
		// start a fresh handshake.
		if _, failErr := s.markFailed(ctx, payment); failErr != nil {
			return nil, failErr
		}
		return nil, err
	}
	if !zarinpal.Succeeded(verification.Code) {
		return s.markFailed(ctx, payment)
	}

	var refID *string
	if verification.RefID != "" {
		refID = &verification.RefID
	}
	claimed, err := s.repo.SettlePayment(ctx, payment.ID, enums.PaymentStatusUnpaid, enums.PaymentStatusPaid, refID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
	}
	payment.Status = enums.PaymentStatusPaid
	payment.RefID = refID
	if !claimed {
		// Lost the race to a concurrent callback; the winner applied the upgrade.
		return s.callbackResult(payment), nil
	}

	pkg, err := s.repo.FindPackageByID(ctx, payment.PackageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
	}
	expiresAt := s.now().UTC().Add(time.Duration(pkg.DurationInMonths) * subscriptionMonth)
	if err := s.users.UpdateSubscription(ctx, payment.UserID, pkg.Tier, expiresAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply subscription")
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"payment_id": payment.ID,
		"tier":       pkg.Tier,
	}), "payment settled")

	result := s.callbackResult(payment)
	tier := string(pkg.Tier)
	result.Tier = &tier
	result.SubscriptionExpiresAt = &expiresAt
	return result, nil
}

func (s *service) ListPayments(ctx context.Context, userID uuid.UUID) ([]PaymentDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	payments, err := s.repo.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	out := make([]PaymentDTO, 0, len(payments))
	for i := range payments {
		out = append(out, paymentFromModel(&payments[i]))
	}
	return out, nil
}

func (s *service) markFailed(ctx context.Context, payment *models.Payment) (*CallbackResult, error) {
	if _, err := s.repo.SettlePayment(ctx, payment.ID, enums.PaymentStatusUnpaid, enums.PaymentStatusFailed, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
	}
	payment.Status = enums.PaymentStatusFailed
	return s.callbackResult(payment), nil
}

func (s *service) callbackResult(payment *models.Payment) *CallbackResult {
	return &CallbackResult{
		PaymentID: payment.ID,
		Status:    payment.Status,
		RefID:     payment.RefID,
	}
}
