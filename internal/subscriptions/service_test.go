package subscriptions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
	"github.com/pollpulse/pollpulse-backend/pkg/zarinpal"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

type stubRepo struct {
	packages map[uuid.UUID]*models.SubscriptionPackage
	payments map[uuid.UUID]*models.Payment
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		packages: map[uuid.UUID]*models.SubscriptionPackage{},
		payments: map[uuid.UUID]*models.Payment{},
	}
}

func (s *stubRepo) ListPackages(ctx context.Context, activeOnly bool) ([]models.SubscriptionPackage, error) {
	var out []models.SubscriptionPackage
	for _, pkg := range s.packages {
		if activeOnly && !pkg.IsActive {
			continue
		}
		out = append(out, *pkg)
	}
	return out, nil
}

func (s *stubRepo) FindPackageByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPackage, error) {
	if pkg, ok := s.packages[id]; ok {
		clone := *pkg
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) CreatePackage(ctx context.Context, pkg *models.SubscriptionPackage) error {
	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}
	clone := *pkg
	s.packages[pkg.ID] = &clone
	return nil
}

func (s *stubRepo) UpdatePackage(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.SubscriptionPackage, error) {
	pkg, ok := s.packages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if active, ok := updates["is_active"].(bool); ok {
		pkg.IsActive = active
	}
	if name, ok := updates["name"].(string); ok {
		pkg.Name = name
	}
	clone := *pkg
	return &clone, nil
}

func (s *stubRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	clone := *payment
	s.payments[payment.ID] = &clone
	return nil
}

func (s *stubRepo) FindPaymentByAuthority(ctx context.Context, authority string) (*models.Payment, error) {
	for _, payment := range s.payments {
		if payment.Authority == authority {
			clone := *payment
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range s.payments {
		if payment.UserID == userID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (s *stubRepo) SettlePayment(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, refID *string) (bool, error) {
	payment, ok := s.payments[id]
	if !ok || payment.Status != from {
		return false, nil
	}
	payment.Status = to
	if refID != nil {
		payment.RefID = refID
	}
	return true, nil
}

type stubUserStore struct {
	tier      enums.SubscriptionTier
	expiresAt time.Time
	calls     int
}

func (s *stubUserStore) UpdateSubscription(ctx context.Context, id uuid.UUID, tier enums.SubscriptionTier, expiresAt time.Time) error {
	s.tier = tier
	s.expiresAt = expiresAt
	s.calls++
	return nil
}

type stubGateway struct {
	authority  string
	verifyCode int
	verifyErr  error
	refID      string
	requested  *zarinpal.RequestParams
	verified   *zarinpal.VerifyParams
}

func (s *stubGateway) RequestPayment(ctx context.Context, params zarinpal.RequestParams) (*zarinpal.RequestResult, error) {
	s.requested = &params
	return &zarinpal.RequestResult{Authority: s.authority, Code: zarinpal.CodeSuccess}, nil
}

func (s *stubGateway) VerifyPayment(ctx context.Context, params zarinpal.VerifyParams) (*zarinpal.VerifyResult, error) {
	s.verified = &params
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &zarinpal.VerifyResult{Code: s.verifyCode, RefID: s.refID}, nil
}

func (s *stubGateway) StartPayURL(authority string) string {
	return "https://pay.example.com/" + authority
}

type fixture struct {
	svc     Service
	repo    *stubRepo
	users   *stubUserStore
	gateway *stubGateway
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    newStubRepo(),
		users:   &stubUserStore{},
		gateway: &stubGateway{authority: "A0001", verifyCode: zarinpal.CodeSuccess, refID: "201399"},
		now:     time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		Repo:        f.repo,
		Users:       f.users,
		Gateway:     f.gateway,
		CallbackURL: "https://app.example.com/payments/callback",
		Logger:      testLogger(),
		Now:         func() time.Time { return f.now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func seedPackage(f *fixture, priceToman int64, months int, tier enums.SubscriptionTier, active bool) *models.SubscriptionPackage {
	pkg := &models.SubscriptionPackage{
		ID:               uuid.New(),
		Name:             "plan",
		Tier:             tier,
		PriceToman:       decimal.NewFromInt(priceToman),
		DurationInMonths: months,
		IsActive:         active,
	}
	f.repo.packages[pkg.ID] = pkg
	return pkg
}

func TestListPackagesReturnsActiveOnly(t *testing.T) {
	f := newFixture(t)
	seedPackage(f, 50000, 1, enums.SubscriptionTierMonthly, true)
	seedPackage(f, 120000, 3, enums.SubscriptionTierQuarterly, false)

	packages, err := f.svc.ListPackages(context.Background())
	if err != nil {
		t.Fatalf("list packages: %v", err)
	}
	if len(packages) != 1 || packages[0].Tier != enums.SubscriptionTierMonthly {
		t.Fatalf("expected only the active monthly package, got %+v", packages)
	}

	all, err := f.svc.ListAllPackages(context.Background())
	if err != nil {
		t.Fatalf("list all packages: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both packages for staff, got %d", len(all))
	}
}

func TestPurchaseOpensHandshakeInRial(t *testing.T) {
	f := newFixture(t)
	pkg := seedPackage(f, 50000, 1, enums.SubscriptionTierMonthly, true)
	userID := uuid.New()

	result, err := f.svc.Purchase(context.Background(), userID, pkg.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if f.gateway.requested == nil || f.gateway.requested.AmountRial != 500000 {
		t.Fatalf("expected 500000 rial requested, got %+v", f.gateway.requested)
	}
	if result.Authority != "A0001" {
		t.Fatalf("expected gateway authority, got %q", result.Authority)
	}
	if result.PaymentURL != "https://pay.example.com/A0001" {
		t.Fatalf("unexpected payment url %q", result.PaymentURL)
	}

	payment, err := f.repo.FindPaymentByAuthority(context.Background(), "A0001")
	if err != nil {
		t.Fatalf("expected payment recorded: %v", err)
	}
	if payment.Status != enums.PaymentStatusUnpaid || payment.UserID != userID {
		t.Fatalf("unexpected payment record %+v", payment)
	}
}

func TestPurchaseRejectsInactivePackage(t *testing.T) {
	f := newFixture(t)
	pkg := seedPackage(f, 50000, 1, enums.SubscriptionTierMonthly, false)

	_, err := f.svc.Purchase(context.Background(), uuid.New(), pkg.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive package, got %v", err)
	}
}

func TestSettleCallbackUpgradesSubscription(t *testing.T) {
	f := newFixture(t)
	pkg := seedPackage(f, 120000, 3, enums.SubscriptionTierQuarterly, true)
	userID := uuid.New()

	if _, err := f.svc.Purchase(context.Background(), userID, pkg.ID); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	result, err := f.svc.SettleCallback(context.Background(), "A0001", "OK")
	if err != nil {
		t.Fatalf("settle callback: %v", err)
	}
	if result.Status != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", result.Status)
	}
	if result.RefID == nil || *result.RefID != "201399" {
		t.Fatalf("expected ref id stored, got %v", result.RefID)
	}
	if f.gateway.verified == nil || f.gateway.verified.AmountRial != 1200000 {
		t.Fatalf("expected verification with recorded amount, got %+v", f.gateway.verified)
	}
	if f.users.tier != enums.SubscriptionTierQuarterly {
		t.Fatalf("expected quarterly tier applied, got %s", f.users.tier)
	}
	wantExpiry := f.now.Add(3 * 30 * 24 * time.Hour)
	if !f.users.expiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %s, got %s", wantExpiry, f.users.expiresAt)
	}
}

func TestSettleCallbackIsIdempotent(t *testing.T) {
	f := newFixture(t)
	pkg := seedPackage(f, 50000, 1, enums.SubscriptionTierMonthly, true)
	userID := uuid.New()

	if _, err := f.svc.Purchase(context.Background(), userID, pkg.ID); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := f.svc.SettleCallback(context.Background(), "A0001", "OK"); err != nil {
		t.Fatalf("first callback: %v", err)
	}

	result, err := f.svc.SettleCallback(context.Background(), "A0001", "OK")
	if err != nil {
		t.Fatalf("second callback: %v", err)
	}
	if result.Status != enums.PaymentStatusPaid {
		t.Fatalf("expected paid on replay, got %s", result.Status)
	}
	if f.users.calls != 1 {
		t.Fatalf("expected subscription applied once, got %d", f.users.calls)
	}
}

func TestSettleCallbackCancelledByPayer(t *testing.T) {
	f := newFixture(t)
	pkg := seedPackage(f, 50000, 1, enums.SubscriptionTierMonthly, true)

	if _, err := f.svc.Purchase(context.Background(), uuid.New(), pkg.ID); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	result, err := f.svc.SettleCallback(context.Background(), "A0001", "NOK")
	if err != nil {
		t.Fatalf("settle callback: %v", err)
	}
	if result.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if f.users.calls != 0 {
		t.Fatalf("expected no subscription change, got %d calls", f.users.calls)
	}
	if f.gateway.verified != nil {
		t.Fatal("cancelled payments must not be verified with the gateway")
	}
}

func TestSettleCallbackGatewayDecline(t *testing.T) {
	f := newFixture(t)
	f.gateway.verifyCode = -51
	pkg := seedPackage(f, 50000, 1, enums.SubscriptionTierMonthly, true)

	if _, err := f.svc.Purchase(context.Background(), uuid.New(), pkg.ID); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	result, err := f.svc.SettleCallback(context.Background(), "A0001", "OK")
	if err != nil {
		t.Fatalf("settle callback: %v", err)
	}
	if result.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed on gateway decline, got %s", result.Status)
	}
	if f.users.calls != 0 {
		t.Fatalf("expected no subscription change, got %d calls", f.users.calls)
	}
}

func TestSettleCallbackVerifyErrorFailsPayment(t *testing.T) {
	f := newFixture(t)
	f.gateway.verifyErr = pkgerrors.New(pkgerrors.CodeDependency, "payment gateway unreachable")
	pkg := seedPackage(f, 50000, 1, enums.SubscriptionTierMonthly, true)

	if _, err := f.svc.Purchase(context.Background(), uuid.New(), pkg.ID); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	_, err := f.svc.SettleCallback(context.Background(), "A0001", "OK")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	payment, findErr := f.repo.FindPaymentByAuthority(context.Background(), "A0001")
	if findErr != nil {
		t.Fatalf("find payment: %v", findErr)
	}
	if payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected payment failed after verify error, got %s", payment.Status)
	}
	if f.users.calls != 0 {
		t.Fatalf("expected no subscription change, got %d calls", f.users.calls)
	}
}

func TestSettleCallbackUnknownAuthority(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SettleCallback(context.Background(), "A9999", "OK")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreatePackageValidatesTier(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePackage(context.Background(), CreatePackageInput{
		Name:             "bogus",
		Tier:             "platinum",
		PriceToman:       decimal.NewFromInt(1000),
		DurationInMonths: 1,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	created, err := f.svc.CreatePackage(context.Background(), CreatePackageInput{
		Name:             "monthly",
		Tier:             "monthly",
		PriceToman:       decimal.NewFromInt(50000),
		DurationInMonths: 1,
	})
	if err != nil {
		t.Fatalf("create package: %v", err)
	}
	if !created.IsActive || created.Tier != enums.SubscriptionTierMonthly {
		t.Fatalf("unexpected created package %+v", created)
	}
}
