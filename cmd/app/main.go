package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/availability"
	"github.com/Tesudeix/Yuki/internal/booking"
	"github.com/Tesudeix/Yuki/internal/bootstrap"
	"github.com/Tesudeix/Yuki/internal/catalog"
	"github.com/Tesudeix/Yuki/internal/config"
	"github.com/Tesudeix/Yuki/internal/db"
	"github.com/Tesudeix/Yuki/internal/email"
	"github.com/Tesudeix/Yuki/internal/events"
	"github.com/Tesudeix/Yuki/internal/logger"
	"github.com/Tesudeix/Yuki/internal/obs"
	"github.com/Tesudeix/Yuki/internal/server"
	"github.com/Tesudeix/Yuki/internal/user"
)

const serviceName = "yuki-salon-api"

type eventPublisher interface {
	booking.EventPublisher
	Close() error
}

// @title Yuki Salon API
// @version 1.0
// @description Availability and booking ledger for salon appointments.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("development")
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Env)
	defer logger.Sync()
	logger.Info("Starting salon API", "env", cfg.Env, "write_mode", cfg.WriteMode, "timezone", cfg.Timezone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.OTELEndpoint, cfg.Env)
	if err != nil {
		logger.Fatalf("Failed to init tracing: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	if err := api.RegisterValidators(); err != nil {
		logger.Fatalf("Failed to register validators: %v", err)
	}

	emailService := email.New(email.Settings{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	}, cfg.RedisAddr)
	defer emailService.Close()
	if err := emailService.Ping(ctx); err != nil {
		logger.Warn("Redis unreachable, confirmation emails will fail", "error", err)
	}
	go emailService.Start(ctx)

	var publisher eventPublisher = events.Nop{}
	if cfg.RabbitURL != "" {
		p, err := events.NewPublisher(cfg.RabbitURL, cfg.BookingExchange)
		if err != nil {
			logger.Error("Event publishing disabled", "error", err)
		} else {
			publisher = p
			logger.Info("Publishing booking events", "exchange", cfg.BookingExchange)
		}
	}
	defer publisher.Close()

	userRepo := user.NewRepository(database)
	catalogRepo := catalog.NewRepository(database)
	slotRepo := availability.NewRepository(database)

	userService := user.NewService(userRepo, cfg.JWTSecret)
	catalogService := catalog.NewService(catalogRepo)
	availabilityService := availability.NewService(slotRepo, catalogService, availability.SystemClock(), cfg.Location())
	bookingService := booking.NewService(booking.NewRepository(database), availabilityService, catalogService, booking.Options{
		WriteMode: cfg.WriteMode,
		Publisher: publisher,
		Notifier:  email.NewBookingNotifier(emailService, userService),
	})

	boot := bootstrap.New(userRepo, catalogRepo, slotRepo, availability.SystemClock(), cfg.Location())
	if cfg.AdminEmail != "" {
		if _, err := boot.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatalf("Failed to ensure admin account: %v", err)
		}
	}
	if cfg.SeedDemo {
		if _, err := boot.EnsureDemoData(ctx); err != nil {
			logger.Error("Demo data not seeded", "error", err)
		}
	}

	srv := server.New(cfg, database, emailService, server.Services{
		Users:        userService,
		Catalog:      catalogService,
		Availability: availabilityService,
		Bookings:     bookingService,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Errorf("Error flushing traces: %v", err)
	}

	logger.Info("Server stopped")
}
