package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	echomw "github.com/labstack/echo/v5/middleware"
	"github.com/pocketbase/dbx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"event-market/config"
	"event-market/migrations"
	"event-market/models"
	"event-market/monitoring"
	"event-market/security"
	"event-market/utils"

	"event-market/internal/handlers"
	"event-market/internal/services"
	"event-market/internal/storage"
)

func Start() error {
	// Load configuration
	cfg := config.LoadConfig()

	// Open database
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return err
	}
	db, err := dbx.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Apply(db); err != nil {
		return err
	}

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}
	notifier := services.NewNotifier(pn)

	// Banner storage
	bannerStore, err := storage.NewLocalBannerStore(cfg.BannerDir)
	if err != nil {
		return err
	}

	// Initialize services
	paymentService := services.NewPaymentService(redisClient, cfg.PaymentSessionTTL)
	eventService := services.NewEventService(db, redisClient)
	registrationService := services.NewRegistrationService(db, paymentService, notifier)
	invitationService := services.NewInvitationService(db, notifier)
	outletService := services.NewOutletService(db)

	// Initialize handlers
	organizerHandler := handlers.NewOrganizerHandler(
		eventService, registrationService, invitationService, outletService, bannerStore)
	merchantHandler := handlers.NewMerchantHandler(
		eventService, registrationService, invitationService, outletService, paymentService, bannerStore)

	monitoring.NewMonitor(redisClient)
	syncPublishedEventsToRedis(db, redisClient)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(requestLogger())
	e.Use(security.Authenticate(cfg.JWTSecret))

	limiter := security.NewRateLimiter(redisClient, cfg.RequestsPerMinute)

	// Organizer endpoints
	eo := e.Group("/api/v1/eo", security.RequireRole(models.RoleOrganizer))
	eo.GET("/events", organizerHandler.ListEvents)
	eo.POST("/events", organizerHandler.CreateEvent)
	eo.GET("/events/:eventId", organizerHandler.EventDetail)
	eo.PUT("/events/:eventId", organizerHandler.UpdateEvent)
	eo.DELETE("/events/:eventId", organizerHandler.DeleteEvent)
	eo.POST("/events/:eventId/publish", organizerHandler.PublishEvent)
	eo.GET("/events/:eventId/registrations", organizerHandler.ListRegistrations)
	eo.GET("/events/:eventId/registrations/:regId", organizerHandler.RegistrationDetail)
	eo.POST("/events/:eventId/registrations/accept", organizerHandler.AcceptRegistrations)
	eo.POST("/events/:eventId/registrations/reject", organizerHandler.RejectRegistrations)
	eo.GET("/events/:eventId/available-outlets", organizerHandler.AvailableOutlets)
	eo.GET("/outlets/:outletId", organizerHandler.OutletDetail)
	eo.POST("/events/:eventId/invitations/:outletId", organizerHandler.Invite)

	// Merchant endpoints
	sme := e.Group("/api/v1/sme", security.RequireRole(models.RoleMerchant))
	sme.GET("/events", merchantHandler.ListEvents, limiter.Limit())
	sme.GET("/events/:eventId", merchantHandler.EventDetail, limiter.Limit())
	sme.POST("/events/:eventId/register", merchantHandler.Register)
	sme.GET("/registrations", merchantHandler.ListRegistrations)
	sme.GET("/registrations/:regId", merchantHandler.RegistrationDetail)
	sme.POST("/registrations/:regId/pay", merchantHandler.Pay)
	sme.GET("/invitations", merchantHandler.ListInvitations)
	sme.GET("/invitations/:invId", merchantHandler.InvitationDetail)
	sme.POST("/invitations/:invId/accept", merchantHandler.AcceptInvitation)
	sme.POST("/invitations/:invId/reject", merchantHandler.RejectInvitation)
	sme.GET("/outlets", merchantHandler.ListOutlets)
	sme.PATCH("/outlets/:outletId/event-open", merchantHandler.SetOutletEventOpen)

	// Banner images are public
	e.GET("/api/v1/banners/:ref", merchantHandler.ServeBanner, limiter.Limit())

	// Test endpoint for payment simulation
	if cfg.Environment == "development" {
		e.POST("/api/v1/test/simulate-payment", merchantHandler.SimulatePayment)
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		if err := db.DB().PingContext(c.Request().Context()); err != nil {
			return c.JSON(503, map[string]string{"status": "unhealthy", "error": err.Error()})
		}
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(503, map[string]string{"status": "unhealthy", "error": err.Error()})
		}
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	e.GET("/metrics", func(c echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// syncPublishedEventsToRedis rebuilds the published-events mirror on startup
// so the gauge and any stale set survive restarts.
func syncPublishedEventsToRedis(db *dbx.DB, redisClient *redis.Client) {
	ctx := context.Background()

	var ids []string
	err := db.NewQuery("SELECT id FROM events WHERE status = 'published'").Column(&ids)
	if err != nil {
		slog.Error("sync published events", "error", err)
		return
	}

	redisClient.Del(ctx, "events:published")
	if len(ids) > 0 {
		members := make([]any, 0, len(ids))
		for _, id := range ids {
			members = append(members, id)
		}
		if err := redisClient.SAdd(ctx, "events:published", members...).Err(); err != nil {
			slog.Error("sync published events", "error", err)
			return
		}
	}
	slog.Info("synced published events to redis", "count", len(ids))
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Info("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start).String(),
			)
			return err
		}
	}
}
