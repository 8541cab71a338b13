package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/sementes/sementes-api/internal/config"
	"github.com/sementes/sementes-api/internal/domain/auth"
	"github.com/sementes/sementes-api/internal/domain/cashback"
	"github.com/sementes/sementes-api/internal/domain/cycle"
	"github.com/sementes/sementes-api/internal/domain/experience"
	"github.com/sementes/sementes-api/internal/domain/fund"
	"github.com/sementes/sementes-api/internal/domain/profile"
	"github.com/sementes/sementes-api/internal/domain/settlement"
	"github.com/sementes/sementes-api/internal/domain/user"
	"github.com/sementes/sementes-api/internal/middleware"
	"github.com/sementes/sementes-api/internal/pkg/database"
	"github.com/sementes/sementes-api/internal/pkg/jwt"
	"github.com/sementes/sementes-api/internal/pkg/logger"
	pkgresponse "github.com/sementes/sementes-api/internal/pkg/response"
	"github.com/sementes/sementes-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Sementes API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// R2 storage for settlement payment proofs. Optional: without
	// credentials settlements simply skip the proof check.
	var proofStorage storage.ProofStorage
	if cfg.R2AccountID != "" {
		r2, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 storage")
		}
		proofStorage = r2
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	tokenRepo := auth.NewRefreshTokenRepository(db)
	profileRepo := profile.NewRepository(db)
	settlementRepo := settlement.NewRepository(db)
	fundRepo := fund.NewRepository(db)
	cycleRepo := cycle.NewRepository(db)
	cashbackRepo := cashback.NewRepository(db)
	experienceRepo := experience.NewRepository(db)

	// ---------- Services ----------
	authService := auth.NewService(userRepo, tokenRepo, jwtService)
	userService := user.NewService(userRepo)
	cycleService := cycle.NewService(cycleRepo, cfg.CycleDuration, cfg.SeasonDuration)
	experienceService := experience.NewService(experienceRepo)

	// ---------- Adapters ----------
	buyerLedger := &buyerLedgerAdapter{users: userRepo}
	fundLedger := &fundLedgerAdapter{users: userRepo}
	cashbackLedger := &cashbackLedgerAdapter{users: userRepo}
	settlementCycles := &settlementCycleClockAdapter{cycles: cycleService}
	fundCycles := &fundCycleClockAdapter{cycles: cycleService}

	fundService := fund.NewService(fundRepo, fundLedger, fundCycles)
	settlementService := settlement.NewService(
		settlementRepo,
		buyerLedger,
		fundRepo,
		profileRepo,
		settlementCycles,
		experienceService,
		proofStorage,
		settlement.Rates{
			SettlementBps: cfg.SettlementRateBps,
			BuyerBps:      cfg.BuyerShareBps,
			PlatformBps:   cfg.PlatformShareBps,
		},
	)
	cashbackService := cashback.NewService(cashbackRepo, cashbackLedger, cfg.CashbackCodeTTL)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userService)
	profileHandler := profile.NewHandler(profileRepo)
	settlementHandler := settlement.NewHandler(settlementService)
	fundHandler := fund.NewHandler(fundService, cfg.DistributionTriggerSecret)
	cycleHandler := cycle.NewHandler(cycleService)
	cashbackHandler := cashback.NewHandler(cashbackService)
	experienceHandler := experience.NewHandler(experienceService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/users", userHandler.Routes(authMiddleware))
		r.Mount("/profiles", profileHandler.Routes(authMiddleware))
		r.Mount("/cycles", cycleHandler.Routes(authMiddleware))
		r.Mount("/funds", fundHandler.Routes(authMiddleware))
		r.Mount("/xp", experienceHandler.Routes(authMiddleware))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(redis, "cashback", 30, time.Minute))
			r.Mount("/cashback", cashbackHandler.Routes(authMiddleware))
		})

		r.Mount("/", settlementHandler.Routes(authMiddleware))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(redis, "webhooks", 120, time.Minute))
		r.Mount("/webhooks", settlementHandler.WebhookRoutes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// Adapter implementations to bridge interface mismatches

// buyerLedgerAdapter pins the transaction type for settlement credits
type buyerLedgerAdapter struct {
	users *user.Repository
}

func (a *buyerLedgerAdapter) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID, description string) error {
	return a.users.CreditTx(ctx, tx, userID, amount, user.TransactionTypeCashback, referenceID, description)
}

func (a *buyerLedgerAdapter) AddScoreTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, points int64) error {
	return a.users.AddScoreTx(ctx, tx, userID, points)
}

// fundLedgerAdapter pins the transaction type for distribution credits
type fundLedgerAdapter struct {
	users *user.Repository
}

func (a *fundLedgerAdapter) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID, description string) error {
	return a.users.CreditTx(ctx, tx, userID, amount, user.TransactionTypeFundShare, referenceID, description)
}

// cashbackLedgerAdapter pins the transaction type for code redemptions
type cashbackLedgerAdapter struct {
	users *user.Repository
}

func (a *cashbackLedgerAdapter) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID, description string) error {
	return a.users.CreditTx(ctx, tx, userID, amount, user.TransactionTypeCodeRedeem, referenceID, description)
}

// settlementCycleClockAdapter adapts cycle.Service to settlement.CycleClock
type settlementCycleClockAdapter struct {
	cycles *cycle.Service
}

func (a *settlementCycleClockAdapter) Current(ctx context.Context) (settlement.CycleWindow, error) {
	number, start, end, err := a.cycles.CurrentWindow(ctx)
	if err != nil {
		return settlement.CycleWindow{}, err
	}
	return settlement.CycleWindow{Number: number, Start: start, End: end}, nil
}

// fundCycleClockAdapter adapts cycle.Service to fund.CycleClock
type fundCycleClockAdapter struct {
	cycles *cycle.Service
}

func (a *fundCycleClockAdapter) Current(ctx context.Context) (fund.CycleWindow, error) {
	number, start, end, err := a.cycles.CurrentWindow(ctx)
	if err != nil {
		return fund.CycleWindow{}, err
	}
	return fund.CycleWindow{Number: number, Start: start, End: end}, nil
}
