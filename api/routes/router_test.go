package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pollpulse/pollpulse-backend/internal/auth"
	"github.com/pollpulse/pollpulse-backend/internal/pages"
	"github.com/pollpulse/pollpulse-backend/internal/participation"
	"github.com/pollpulse/pollpulse-backend/internal/results"
	"github.com/pollpulse/pollpulse-backend/internal/subscriptions"
	"github.com/pollpulse/pollpulse-backend/internal/surveys"
	"github.com/pollpulse/pollpulse-backend/internal/users"
	pkgauth "github.com/pollpulse/pollpulse-backend/pkg/auth"
	"github.com/pollpulse/pollpulse-backend/pkg/config"
	"github.com/pollpulse/pollpulse-backend/pkg/enums"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
	"github.com/pollpulse/pollpulse-backend/pkg/pagination"
	"github.com/pollpulse/pollpulse-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) RequestCode(ctx context.Context, req auth.RequestCodeRequest) (*auth.RequestCodeResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) VerifyCode(ctx context.Context, req auth.VerifyCodeRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) AdminLogin(ctx context.Context, req auth.AdminLoginRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	panic("unimplemented")
}

type stubUsersService struct{}

func (stubUsersService) Me(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: id, Tier: enums.SubscriptionTierFree}, nil
}

func (stubUsersService) UpdateProfile(ctx context.Context, id uuid.UUID, dto users.UpdateProfileDTO) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) List(ctx context.Context, params pagination.Params) (*users.UserListDTO, error) {
	return &users.UserListDTO{}, nil
}

func (stubUsersService) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) (*users.UserDTO, error) {
	panic("unimplemented")
}

type stubSurveysService struct{}

func (stubSurveysService) Create(ctx context.Context, input surveys.CreateSurveyInput) (*surveys.SurveyDTO, error) {
	panic("unimplemented")
}

func (stubSurveysService) Get(ctx context.Context, id uuid.UUID) (*surveys.SurveyDTO, error) {
	return &surveys.SurveyDTO{ID: id}, nil
}

func (stubSurveysService) GetOwned(ctx context.Context, creatorID, id uuid.UUID) (*surveys.SurveyDTO, error) {
	panic("unimplemented")
}

func (stubSurveysService) List(ctx context.Context, creatorID uuid.UUID, params pagination.Params) (*surveys.SurveyListDTO, error) {
	return &surveys.SurveyListDTO{}, nil
}

func (stubSurveysService) Update(ctx context.Context, input surveys.UpdateSurveyInput) (*surveys.SurveyDTO, error) {
	panic("unimplemented")
}

func (stubSurveysService) Delete(ctx context.Context, creatorID, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubSurveysService) AddQuestion(ctx context.Context, input surveys.AddQuestionInput) (*surveys.SurveyDTO, error) {
	panic("unimplemented")
}

func (stubSurveysService) DeleteQuestion(ctx context.Context, creatorID, surveyID, questionID uuid.UUID) error {
	panic("unimplemented")
}

func (stubSurveysService) AddChoice(ctx context.Context, input surveys.AddChoiceInput) (*surveys.SurveyDTO, error) {
	panic("unimplemented")
}

func (stubSurveysService) DeleteChoice(ctx context.Context, creatorID, surveyID, questionID, choiceID uuid.UUID) error {
	panic("unimplemented")
}

type stubParticipationService struct{}

func (stubParticipationService) Submit(ctx context.Context, input participation.SubmitInput) (*participation.SubmitResult, error) {
	panic("unimplemented")
}

type stubResultsService struct{}

func (stubResultsService) SurveyResults(ctx context.Context, creatorID, surveyID uuid.UUID) (*results.SurveyResults, error) {
	panic("unimplemented")
}

type stubSubscriptionsService struct{}

func (stubSubscriptionsService) ListPackages(ctx context.Context) ([]subscriptions.PackageDTO, error) {
	return nil, nil
}

func (stubSubscriptionsService) ListAllPackages(ctx context.Context) ([]subscriptions.PackageDTO, error) {
	return nil, nil
}

func (stubSubscriptionsService) CreatePackage(ctx context.Context, input subscriptions.CreatePackageInput) (*subscriptions.PackageDTO, error) {
	panic("unimplemented")
}

func (stubSubscriptionsService) UpdatePackage(ctx context.Context, id uuid.UUID, input subscriptions.UpdatePackageInput) (*subscriptions.PackageDTO, error) {
	panic("unimplemented")
}

func (stubSubscriptionsService) Purchase(ctx context.Context, userID, packageID uuid.UUID) (*subscriptions.PurchaseResult, error) {
	panic("unimplemented")
}

func (stubSubscriptionsService) SettleCallback(ctx context.Context, authority, status string) (*subscriptions.CallbackResult, error) {
	panic("unimplemented")
}

func (stubSubscriptionsService) ListPayments(ctx context.Context, userID uuid.UUID) ([]subscriptions.PaymentDTO, error) {
	panic("unimplemented")
}

type stubPagesService struct{}

func (stubPagesService) List(ctx context.Context) ([]pages.PageDTO, error) {
	return nil, nil
}

func (stubPagesService) GetBySlug(ctx context.Context, slug string) (*pages.PageDTO, error) {
	panic("unimplemented")
}

func (stubPagesService) Create(ctx context.Context, input pages.CreatePageInput) (*pages.PageDTO, error) {
	panic("unimplemented")
}

func (stubPagesService) Update(ctx context.Context, id uuid.UUID, input pages.UpdatePageInput) (*pages.PageDTO, error) {
	panic("unimplemented")
}

func (stubPagesService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: zerolog.Disabled, Output: io.Discard})
	return NewRouter(RouterParams{
		Config:               cfg,
		Logger:               logg,
		DB:                   stubPinger{},
		Redis:                (*redis.Client)(nil),
		Session:              stubSessionChecker{},
		AuthService:          stubAuthService{},
		UsersService:         stubUsersService{},
		SurveysService:       stubSurveysService{},
		ParticipationService: stubParticipationService{},
		ResultsService:       stubResultsService{},
		SubscriptionsService: stubSubscriptionsService{},
		PagesService:         stubPagesService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, isStaff bool) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:  uuid.New(),
		Tier:    enums.SubscriptionTierFree,
		IsStaff: isStaff,
		JTI:     uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthenticatedGroupRejectsMissingToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAuthenticatedGroupSucceedsWithToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for /me got %d", resp.Code)
	}
}

func TestAdminGroupRequiresStaff(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	regular := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	regular.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, regular)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff got %d", resp.Code)
	}

	staff := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, true))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff got %d", resp.Code)
	}
}

func TestPublicSurveyDetailNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/surveys/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public survey detail got %d", resp.Code)
	}
}

func TestPublicPackagesNeedNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/packages", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public packages got %d", resp.Code)
	}
}
