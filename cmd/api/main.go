package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pollpulse/pollpulse-backend/api/routes"
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
	"github.com/pollpulse/pollpulse-backend/pkg/migrate"
	"github.com/pollpulse/pollpulse-backend/pkg/redis"
	"github.com/pollpulse/pollpulse-backend/pkg/sms"
	"github.com/pollpulse/pollpulse-backend/pkg/zarinpal"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	smsClient, err := sms.NewClient(context.Background(), cfg.SMS, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms client", err)
		os.Exit(1)
	}

	gateway, err := zarinpal.NewClient(context.Background(), cfg.Zarinpal, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	surveyRepo := surveys.NewRepository(dbClient.DB())
	participationRepo := participation.NewRepository(dbClient.DB())
	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())
	pageRepo := pages.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		OTPStore:       redisClient,
		SMSSender:      smsClient,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		OTPConfig:      cfg.OTP,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	surveysService, err := surveys.NewService(surveys.ServiceParams{
		Repo:     surveyRepo,
		UserRepo: userRepo,
		TxRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create surveys service", err)
		os.Exit(1)
	}

	participationService, err := participation.NewService(participation.ServiceParams{
		Repo:       participationRepo,
		SurveyRepo: surveyRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create participation service", err)
		os.Exit(1)
	}

	resultsService, err := results.NewService(results.ServiceParams{
		SurveyRepo:   surveyRepo,
		ResponseRepo: participationRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create results service", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:        subscriptionRepo,
		Users:       userRepo,
		Gateway:     gateway,
		CallbackURL: cfg.Zarinpal.CallbackURL,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	pagesService, err := pages.NewService(pageRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pages service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			Session:              sessionManager,
			HTTPMetrics:          httpMetrics,
			MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			AuthService:          authService,
			UsersService:         usersService,
			SurveysService:       surveysService,
			ParticipationService: participationService,
			ResultsService:       resultsService,
			SubscriptionsService: subscriptionsService,
			PagesService:         pagesService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
