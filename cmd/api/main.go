package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	adminapi "ticketly/internal/admin/api"
	"ticketly/internal/auth"
	bookingapi "ticketly/internal/booking/api"
	bookingdb "ticketly/internal/booking/db"
	"ticketly/internal/booking/pass"
	"ticketly/internal/checkout"
	checkoutapi "ticketly/internal/checkout/api"
	"ticketly/internal/config"
	"ticketly/internal/database/migrations"
	"ticketly/internal/events"
	eventsapi "ticketly/internal/events/api"
	eventsdb "ticketly/internal/events/db"
	"ticketly/internal/kafka"
	"ticketly/internal/logger"
	"ticketly/internal/sse"
	"ticketly/internal/users"
	usersapi "ticketly/internal/users/api"
	usersdb "ticketly/internal/users/db"
	"ticketly/internal/utils"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()

	// --- PostgreSQL ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	log.Info("DATABASE", "Connected to Postgres")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, cfg.Database.MigrationsDir, log)
		if err := runner.MigrateUp(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}

	// --- Redis event cache ---
	var eventCache events.Cache = events.NoopCache{}
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("CACHE", fmt.Sprintf("Redis unavailable, serving uncached: %v", err))
	} else {
		log.Info("CACHE", "Connected to Redis")
		eventCache = events.NewRedisCache(redisClient, cfg.Redis.CacheTTL, log)
	}

	// --- Kafka ---
	var publisher checkout.Publisher
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.TopicConfirmed, cfg.Kafka.TopicFailed}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic setup failed, continuing without streaming: %v", err))
		} else {
			producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicConfirmed, cfg.Kafka.TopicFailed)
			defer producer.Close()
			publisher = producer
		}
	}

	// --- Stripe ---
	gateway, err := checkout.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Frontend.BaseURL, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Gateway init failed: %v", err))
	}

	// --- Wiring ---
	hub := sse.NewHub()
	sseHandler := sse.NewHandler(hub, log)

	eventStore := &eventsdb.DB{Bun: bunDB}
	bookingStore := &bookingdb.DB{Bun: bunDB}
	userStore := &usersdb.DB{Bun: bunDB}

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	eventService := events.NewService(eventStore, eventCache, hub, log)
	userService := users.NewService(userStore, issuer, log)
	checkoutService := checkout.NewService(
		eventStore, bookingStore, gateway, hub, publisher, eventCache, cfg.Stripe.Currency, log)

	eventHandler := &eventsapi.Handler{Events: eventService}
	userHandler := &usersapi.Handler{Users: userService}
	checkoutHandler := &checkoutapi.Handler{Checkout: checkoutService}
	bookingHandler := &bookingapi.Handler{
		Bookings: bookingStore,
		Passes:   pass.NewGenerator(cfg.Auth.QRSecret),
	}
	adminHandler := &adminapi.Handler{
		Events:   eventService,
		EventsDB: eventStore,
		Bookings: bookingStore,
		Users:    userStore,
	}

	authenticate := auth.Middleware(issuer)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler(time.Now()))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)
		r.With(authenticate).Get("/auth/me", userHandler.Me)

		r.Get("/events", eventHandler.ListEvents)
		r.Get("/events/{eventId}", eventHandler.GetEvent)

		r.Post("/reservations/confirm", checkoutHandler.ConfirmReservation)
		r.With(authenticate).Post("/reservations", checkoutHandler.CreateReservation)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/bookings", bookingHandler.ListBookings)
			r.Get("/bookings/{bookingId}/qr", bookingHandler.GetEntryPass)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate, auth.RequireAdmin)
			r.Post("/events", eventHandler.CreateEvent)
			r.Put("/events/{eventId}", eventHandler.UpdateEvent)
			r.Patch("/events/{eventId}/status", eventHandler.UpdateEventStatus)
			r.Delete("/events/{eventId}", eventHandler.DeleteEvent)
			r.Get("/admin/stats", adminHandler.GetStats)
			r.Get("/admin/events", adminHandler.ListEvents)
		})

		r.Get("/live", sseHandler.HandleLive)
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Ticketly API running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("SERVER", fmt.Sprintf("Forced shutdown: %v", err))
		os.Exit(1)
	}

	log.Info("SERVER", "Server exited gracefully")
}

func healthHandler(startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", map[string]any{
			"uptime": time.Since(startedAt).Round(time.Second).String(),
		}))
	}
}
