package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/internal/availability"
	"github.com/richxcame/bus-booking/internal/bookings"
	"github.com/richxcame/bus-booking/internal/fares"
	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/internal/hiring"
	"github.com/richxcame/bus-booking/internal/history"
	"github.com/richxcame/bus-booking/internal/ledger"
	"github.com/richxcame/bus-booking/internal/notifications"
	"github.com/richxcame/bus-booking/internal/payments"
	"github.com/richxcame/bus-booking/internal/tickets"
	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/config"
	"github.com/richxcame/bus-booking/pkg/database"
	"github.com/richxcame/bus-booking/pkg/eventbus"
	"github.com/richxcame/bus-booking/pkg/logger"
	"github.com/richxcame/bus-booking/pkg/middleware"
	"github.com/richxcame/bus-booking/pkg/redis"
	"github.com/richxcame/bus-booking/pkg/validation"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("api")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     cfg.Server.ServiceName + "@" + version,
		}); err != nil {
			logger.Warn("Sentry initialization failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := database.RunMigrations(&cfg.Database); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()
	} else {
		logger.Warn("Event bus disabled, notifications will not be published")
	}
	notifier := notifications.NewEmitter(bus)

	// Domain wiring
	fleetSvc := fleet.NewService(fleet.NewRepository(db))
	checker := availability.NewChecker(availability.NewRepository(db))
	seatLocker := availability.NewSeatLocker(redisClient)
	ledgerSvc := ledger.NewService(ledger.NewRepository(db))
	historyRepo := history.NewRepository(db)
	calculator := fares.NewCalculator(&cfg.Business)

	bookingSvc := bookings.NewService(
		bookings.NewRepository(db), fleetSvc, checker, seatLocker,
		calculator, ledgerSvc, historyRepo, notifier,
	)
	hiringSvc := hiring.NewService(
		hiring.NewRepository(db), fleetSvc, checker,
		ledgerSvc, historyRepo, notifier, &cfg.Business,
	)
	paymentSvc := payments.NewService(
		payments.NewPaystackClient(&cfg.Paystack), bookingSvc, hiringSvc, notifier,
	)
	ticketSvc := tickets.NewService(tickets.NewRepository(db), bookingSvc, fleetSvc)

	fleetHandler := fleet.NewHandler(fleetSvc)
	bookingHandler := bookings.NewHandler(bookingSvc)
	hiringHandler := hiring.NewHandler(hiringSvc)
	paymentHandler := payments.NewHandler(paymentSvc)
	ticketHandler := tickets.NewHandler(ticketSvc)

	router := newRouter(cfg)

	router.GET("/healthz", common.HealthCheckWithDeps(cfg.Server.ServiceName, version, map[string]func() error{
		"database": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.Ping(ctx)
		},
		"redis": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		},
		"eventbus": func() error {
			if !cfg.NATS.Enabled {
				return nil
			}
			return bus.Healthy()
		},
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	// Public catalogue
	api.GET("/routes", fleetHandler.ListRoutes)
	api.GET("/routes/:id", fleetHandler.GetRoute)
	api.GET("/buses", fleetHandler.ListBuses)
	api.GET("/buses/:id", fleetHandler.GetBus)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		authed.POST("/bookings", bookingHandler.CreateBooking)
		authed.GET("/bookings", bookingHandler.ListMyBookings)
		authed.GET("/bookings/:id", bookingHandler.GetBooking)
		authed.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
		authed.GET("/bookings/:id/ledger", bookingHandler.GetBookingLedger)
		authed.GET("/bookings/:id/history", bookingHandler.GetBookingHistory)
		authed.GET("/bookings/:id/verifications", ticketHandler.GetVerifications)

		authed.POST("/hirings", hiringHandler.RequestHiring)
		authed.GET("/hirings", hiringHandler.ListMyHirings)
		authed.GET("/hirings/:id", hiringHandler.GetHiring)
		authed.POST("/hirings/:id/cancel", hiringHandler.CancelHiring)
		authed.GET("/hirings/:id/ledger", hiringHandler.GetHiringLedger)
		authed.GET("/hirings/:id/history", hiringHandler.GetHiringHistory)

		authed.POST("/payments/initialize", paymentHandler.InitializePayment)
		authed.POST("/payments/verify", paymentHandler.VerifyPayment)

		authed.GET("/tickets/:reference", ticketHandler.GetTicket)
	}

	boarding := api.Group("")
	boarding.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RequireRole(middleware.RoleConductor, middleware.RoleAdmin))
	{
		boarding.POST("/tickets/:reference/verify", ticketHandler.VerifyTicket)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("/buses", fleetHandler.RegisterBus)
		admin.PATCH("/buses/:id/status", fleetHandler.UpdateBusStatus)
		admin.POST("/routes", fleetHandler.CreateRoute)
		admin.PATCH("/routes/:id/fare", fleetHandler.UpdateRouteFare)
		admin.DELETE("/routes/:id", fleetHandler.DeactivateRoute)

		admin.GET("/hirings/pending", hiringHandler.ListPendingHirings)
		admin.POST("/hirings/:id/approve", hiringHandler.ApproveHiring)
		admin.POST("/hirings/:id/reject", hiringHandler.RejectHiring)
		admin.POST("/hirings/:id/start", hiringHandler.StartHiring)
		admin.POST("/hirings/:id/complete", hiringHandler.CompleteHiring)

		admin.POST("/bookings/:id/complete", bookingHandler.CompleteBooking)
		admin.POST("/bookings/:id/no-show", bookingHandler.MarkNoShow)
		admin.POST("/bookings/:id/recalculate-fare", bookingHandler.RecalculateFare)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("API server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}

func newRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	validation.RegisterGinValidators()

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))

	if cfg.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.Use(timeout.New(
		timeout.WithTimeout(time.Duration(cfg.Server.RequestTimeout)*time.Second),
		timeout.WithHandler(func(c *gin.Context) { c.Next() }),
	))

	return router
}
