package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"identity/internal/config"
	"identity/internal/domain"
	"identity/internal/intent"
	"identity/internal/observability/logging"
	"identity/internal/observability/metrics"
	"identity/internal/ratelimit"
	"identity/internal/retention"
	"identity/internal/service/impl"
	"identity/internal/session"
	"identity/internal/store"
	httpx "identity/internal/transport/http"
	"identity/pkg/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "identity",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	cfg := config.Load()
	metrics.MustRegister("identity")

	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: env == "dev"})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(&domain.Identity{}, &domain.Preference{}); err != nil {
		logger.Error("automigrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)
	svc := impl.NewIdentityServiceImpl(st)

	// Process-scoped state: created here, wiped by the schedulers below,
	// trimmed when the sweeper reaps identities.
	memory := session.NewMemory(cfg.SessionTurns)
	limiter := ratelimit.NewFixedWindow(cfg.RateLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter.StartResetLoop(ctx, cfg.RateWindow, logger)

	sweeper := retention.NewSweeper(st,
		time.Duration(cfg.RetentionDays)*24*time.Hour,
		cfg.SweepInterval,
		logger,
		func(deviceIDs []string) {
			for _, id := range deviceIDs {
				memory.Clear(id)
				limiter.Forget(id)
			}
		},
	)
	sweeper.Start(ctx)

	var classifier intent.Classifier
	if cfg.IntentBaseURL != "" {
		classifier = intent.NewClient(cfg.IntentBaseURL, cfg.IntentAPIKey, 15*time.Second)
	} else {
		logger.Warn("INTENT_BASE_URL not set, /v1/chat will report the collaborator unavailable")
		classifier = unavailableClassifier{}
	}

	router := httpx.NewRouter(httpx.RouterConfig{
		Pipeline: httpx.PipelineConfig{
			CookieName:     cfg.CookieName,
			CookieMaxAge:   cfg.CookieMaxAge,
			CookieSecure:   cfg.CookieSecure,
			ResolveTimeout: cfg.ResolveTimeout,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, svc, limiter, memory, classifier, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("identity service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// unavailableClassifier stands in when no collaborator is configured.
type unavailableClassifier struct{}

func (unavailableClassifier) Classify(ctx context.Context, deviceID string, history []session.Turn, text string) (intent.Result, error) {
	return intent.Result{}, intent.ErrUnavailable
}
