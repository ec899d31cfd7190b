package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "petition/docs"
	"petition/internal/config"
	"petition/internal/handlers"
	"petition/internal/middleware"
	"petition/internal/ratelimit"
	"petition/internal/repositories"
	"petition/internal/repositories/memory"
	"petition/internal/routes"
	"petition/internal/services"
	"petition/internal/utils"
)

type App struct {
	cfg     *config.Config
	log     *zap.Logger
	store   repositories.Store
	router  *gin.Engine
	closers []func() error
}

// New wires every dependency. Call Close when done, even if Run was never
// called.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	limiter, err := a.openLimiter(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := handlers.RegisterValidators(cfg.Verification.PhonePattern); err != nil {
		a.Close()
		return nil, err
	}

	// === Clients ===
	captchaClient := utils.NewCaptchaClient(cfg.Captcha.ServerKey, cfg.Captcha.URL, cfg.Captcha.Timeout)
	smsClient := utils.NewSMSAeroClient(
		cfg.SMS.Email,
		cfg.SMS.APIKey,
		cfg.SMS.Sign,
		cfg.SMS.Channel,
		cfg.SMS.BaseURL,
		cfg.SMS.Timeout,
		cfg.SMS.DryRun,
		log.Named("sms"),
	)
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	issuer := services.NewCodeIssuer(store, cfg.Verification.CodeTTL)
	verifier := services.NewVerifier(store, cfg.Verification.MaxAttempts)
	voteService := services.NewVoteService(
		store,
		issuer,
		verifier,
		captchaClient,
		smsClient,
		limiter,
		emailService,
		services.VoteLimits{
			Window:   cfg.RateLimit.Window,
			PerPhone: cfg.RateLimit.PerPhone,
			PerIP:    cfg.RateLimit.PerIP,
		},
		log.Named("vote"),
	)
	votingService := services.NewVotingService(store, log.Named("voting"))
	userService := services.NewUserService(store, log.Named("users"))
	authService := services.NewAuthService(store, tokens, log.Named("auth"))

	// === Handlers ===
	voteHandler := handlers.NewVoteHandler(voteService, votingService, log)
	userHandler := handlers.NewUserHandler(userService, log)
	votingHandler := handlers.NewVotingHandler(votingService, log)
	authHandler := handlers.NewAuthHandler(authService, handlers.CookieSettings{
		Secure: cfg.Auth.CookieSecure,
		Domain: cfg.Auth.CookieDomain,
	}, log)
	healthHandler := handlers.NewHealthHandler(store)

	// === Gin ===
	if cfg.Log.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.Named("http")))
	router.Use(middleware.BlockSuspicious(cfg.RateLimit.BlockAgents))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authService,
		voteHandler,
		userHandler,
		votingHandler,
		authHandler,
		healthHandler,
	)
	a.router = router
	return a, nil
}

func (a *App) Router() http.Handler { return a.router }

func (a *App) Store() repositories.Store { return a.store }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.log.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Close releases the database and redis connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context) (repositories.Store, error) {
	if a.cfg.Database.Driver == "memory" {
		a.log.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := OpenPostgres(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	if err := repositories.CreateSchema(ctx, db); err != nil {
		return nil, err
	}
	return repositories.NewPostgresStore(db), nil
}

func (a *App) openLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	if a.cfg.RateLimit.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(), nil
	}
	client, err := ratelimit.NewRedisClient(ctx, a.cfg.RateLimit.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return ratelimit.NewRedisLimiter(client, a.log.Named("ratelimit")), nil
}

// OpenPostgres opens and pings the pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
