package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healthhub/portal/internal/config"
	"github.com/healthhub/portal/internal/domain/access"
	"github.com/healthhub/portal/internal/domain/appointment"
	"github.com/healthhub/portal/internal/domain/billing"
	"github.com/healthhub/portal/internal/domain/dashboard"
	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/domain/records"
	"github.com/healthhub/portal/internal/platform/auth"
	"github.com/healthhub/portal/internal/platform/db"
	"github.com/healthhub/portal/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "portal-server",
		Short:        "HealthHub patient, doctor and admin portal",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(profilesCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(remindersCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// authConfig maps the configured auth mode onto the authentication
// middleware's settings.
func authConfig(cfg *config.Config, revocations *auth.RevocationStore, logger zerolog.Logger) auth.Config {
	ac := auth.Config{
		Issuer:      cfg.AuthIssuer,
		Audience:    cfg.AuthAudience,
		Revocations: revocations,
		Logger:      logger,
	}
	switch cfg.ResolvedAuthMode() {
	case config.AuthModeDevelopment:
		ac.Mode = auth.ModeDevelopment
	case config.AuthModeJWKS:
		ac.Mode = auth.ModeJWKS
		ac.Keys = auth.NewJWKSCache(cfg.AuthJWKSURL, time.Hour)
	default:
		ac.Mode = auth.ModeSecret
		ac.Secret = []byte(cfg.AuthJWTSecret)
	}
	return ac
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 {
		rl.RequestsPerSecond = 50
	}
	if rl.Burst <= 0 {
		rl.Burst = 100
	}
	return rl
}

// routes holds what newServer needs beyond the app's services.
type routes struct {
	guard       *access.Guard
	revocations *auth.RevocationStore
	limiter     *middleware.RateLimiter
	prober      db.Prober
}

func newServer(a *app, r routes) *echo.Echo {
	cfg, logger := a.cfg, a.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger, auth.PublicSkipper))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", auth.DevIdentityHeader},
	}))
	e.Use(r.limiter.Middleware(auth.PublicSkipper))
	e.Use(auth.Authenticate(authConfig(cfg, r.revocations, logger)))
	e.Use(r.guard.Sessions())
	e.Use(middleware.Audit(logger, nil))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if r.prober != nil {
		e.GET("/health/db", db.HealthHandler(r.prober))
	}

	api := e.Group("/api/v1")
	patient := api.Group("/patient", r.guard.Require(identity.RolePatient))
	doctor := api.Group("/doctor", r.guard.Require(identity.RoleDoctor))
	admin := api.Group("/admin", r.guard.Require(identity.RoleAdmin))

	access.NewHandler(r.guard, r.revocations, logger).WithPatients(a.resolver).RegisterRoutes(api)
	identity.NewHandler(a.resolver).RegisterRoutes(api, admin, r.guard.Require(identity.RolePatient))
	appointment.NewHandler(a.appointments).RegisterRoutes(patient, doctor)
	records.NewHandler(a.records).RegisterRoutes(patient, doctor)
	billing.NewHandler(a.bills).RegisterRoutes(patient, admin)
	dashboard.NewHandler(a.aggregator).RegisterRoutes(patient, doctor, admin)

	return e
}

func runServer(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}
	defer a.Close()
	logger.Info().Str("timezone", a.loc.String()).Msg("connected to database")

	notifier := auth.NewNotifier()
	notifier.OnChange(a.resolver.OnSessionChange)
	revocations := auth.NewRevocationStore(time.Minute)
	defer revocations.Close()

	limiter := middleware.NewRateLimiter(rateLimitConfig(cfg))
	go pruneLimiter(ctx, limiter, time.Minute)

	guard := access.NewGuard(a.resolver, notifier, 5*time.Second, logger)
	e := newServer(a, routes{
		guard:       guard,
		revocations: revocations,
		limiter:     limiter,
		prober:      db.NewProber(a.pool),
	})

	scheduler, err := a.reminders.Schedule(cfg.ReminderCron)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()
	logger.Info().Str("schedule", cfg.ReminderCron).Msg("reminder job scheduled")

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func pruneLimiter(ctx context.Context, rl *middleware.RateLimiter, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Prune()
		}
	}
}
