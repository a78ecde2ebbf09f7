package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pollpulse/pollpulse-backend/api/controllers"
	"github.com/pollpulse/pollpulse-backend/api/middleware"
	"github.com/pollpulse/pollpulse-backend/internal/auth"
	"github.com/pollpulse/pollpulse-backend/internal/pages"
	"github.com/pollpulse/pollpulse-backend/internal/participation"
	"github.com/pollpulse/pollpulse-backend/internal/results"
	"github.com/pollpulse/pollpulse-backend/internal/subscriptions"
	"github.com/pollpulse/pollpulse-backend/internal/surveys"
	"github.com/pollpulse/pollpulse-backend/internal/users"
	"github.com/pollpulse/pollpulse-backend/pkg/auth/session"
	"github.com/pollpulse/pollpulse-backend/pkg/config"
	"github.com/pollpulse/pollpulse-backend/pkg/db"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
	"github.com/pollpulse/pollpulse-backend/pkg/metrics"
	"github.com/pollpulse/pollpulse-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *redis.Client
	Session session.AccessSessionChecker

	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	AuthService          auth.Service
	UsersService         users.Service
	SurveysService       surveys.Service
	ParticipationService participation.Service
	ResultsService       results.Service
	SubscriptionsService subscriptions.Service
	PagesService         pages.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if p.HTTPMetrics != nil {
		r.Use(middleware.Metrics(p.HTTPMetrics))
	}

	otpPolicy := middleware.NewOTPRateLimitPolicy(
		"request-otp",
		cfg.AuthRateLimit.OTPWindow,
		cfg.AuthRateLimit.OTPIPLimit,
		cfg.AuthRateLimit.OTPPhoneLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.MetricsHandler != nil {
		r.Handle("/metrics", p.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.OTPRateLimit(otpPolicy, p.Redis, logg)).Post("/request-otp", controllers.AuthRequestCode(p.AuthService, logg))
		r.Post("/verify-otp", controllers.AuthVerifyCode(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Participant-facing surface, no token required.
		r.Get("/packages", controllers.PackageList(p.SubscriptionsService, logg))
		r.Get("/surveys/{surveyId}", controllers.PublicSurveyDetail(p.SurveysService, logg))
		r.Post("/surveys/{surveyId}/responses", controllers.SurveySubmit(p.ParticipationService, logg))
		r.Get("/payments/callback", controllers.PaymentCallback(p.SubscriptionsService, logg))
		r.Get("/pages", controllers.PageList(p.PagesService, logg))
		r.Get("/pages/{slug}", controllers.PageDetail(p.PagesService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Session, logg))

			r.Get("/me", controllers.UserMe(p.UsersService, logg))
			r.Patch("/me", controllers.UserUpdateMe(p.UsersService, logg))

			r.Get("/surveys", controllers.SurveyList(p.SurveysService, logg))
			r.Post("/surveys", controllers.SurveyCreate(p.SurveysService, logg))
			r.Get("/surveys/{surveyId}/detail", controllers.SurveyDetail(p.SurveysService, logg))
			r.Patch("/surveys/{surveyId}", controllers.SurveyUpdate(p.SurveysService, logg))
			r.Delete("/surveys/{surveyId}", controllers.SurveyDelete(p.SurveysService, logg))
			r.Get("/surveys/{surveyId}/results", controllers.SurveyResults(p.ResultsService, logg))
			r.Post("/surveys/{surveyId}/questions", controllers.SurveyAddQuestion(p.SurveysService, logg))
			r.Delete("/surveys/{surveyId}/questions/{questionId}", controllers.SurveyDeleteQuestion(p.SurveysService, logg))
			r.Post("/surveys/{surveyId}/questions/{questionId}/choices", controllers.SurveyAddChoice(p.SurveysService, logg))
			r.Delete("/surveys/{surveyId}/questions/{questionId}/choices/{choiceId}", controllers.SurveyDeleteChoice(p.SurveysService, logg))

			r.Post("/packages/{packageId}/purchase", controllers.PackagePurchase(p.SubscriptionsService, logg))
			r.Get("/payments", controllers.PaymentList(p.SubscriptionsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.AdminAuthLogin(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Session, logg))
			r.Use(middleware.RequireStaff(logg))

			r.Get("/users", controllers.AdminUserList(p.UsersService, logg))
			r.Post("/users/{userId}/suspend", controllers.AdminUserSuspend(p.UsersService, logg))
			r.Post("/users/{userId}/unsuspend", controllers.AdminUserUnsuspend(p.UsersService, logg))

			r.Get("/packages", controllers.AdminPackageList(p.SubscriptionsService, logg))
			r.Post("/packages", controllers.AdminPackageCreate(p.SubscriptionsService, logg))
			r.Patch("/packages/{packageId}", controllers.AdminPackageUpdate(p.SubscriptionsService, logg))

			r.Post("/pages", controllers.AdminPageCreate(p.PagesService, logg))
			r.Patch("/pages/{pageId}", controllers.AdminPageUpdate(p.PagesService, logg))
			r.Delete("/pages/{pageId}", controllers.AdminPageDelete(p.PagesService, logg))
		})
	})

	return r
}
