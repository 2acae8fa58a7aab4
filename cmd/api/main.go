package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/config"
	"github.com/noah-isme/fablab-print-api/internal/database"
	"github.com/noah-isme/fablab-print-api/internal/handler"
	"github.com/noah-isme/fablab-print-api/internal/middleware"
	"github.com/noah-isme/fablab-print-api/internal/repository"
	"github.com/noah-isme/fablab-print-api/internal/router"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	layout, err := storage.NewLayout(cfg.StoragePath)
	if err != nil {
		log.Fatalf("failed to resolve storage root: %v", err)
	}
	if err := layout.EnsureDirs(); err != nil {
		log.Fatalf("failed to prepare storage directories: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, diagnostics cache and redis events disabled")
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, broker events disabled")
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	jobRepo := repository.NewJobRepository(db)
	eventRepo := repository.NewEventRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	txManager := repository.NewTxManager(db)

	eventService := service.NewEventService(eventRepo, logger)
	staffService := service.NewStaffService(staffRepo, validate, logger)
	if cfg.SeedStaffOnStart {
		if _, err := staffService.Seed(ctx); err != nil {
			log.Fatalf("failed to seed staff: %v", err)
		}
	}

	files := service.NewFileSynchronizer(layout, logger)
	mailer := service.NewMailer(service.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, logger)
	publisher := service.NewEventPublisher(natsConn, cfg.NATSSubject, redisClient, cfg.RedisChannel, logger)

	jobService := service.NewJobService(service.JobDependencies{
		Jobs:          jobRepo,
		Tx:            txManager,
		Events:        eventService,
		Staff:         staffService,
		Files:         files,
		Tokens:        service.NewTokenService(cfg.ConfirmSecret, cfg.ConfirmMaxAge),
		Mailer:        mailer,
		Publisher:     publisher,
		Validator:     validate,
		PublicBaseURL: cfg.PublicBaseURL,
	}, logger)
	submitService := service.NewSubmitService(jobRepo, txManager, eventService, files, mailer, publisher, validate, cfg.UploadMaxBytes, logger)
	auditService := service.NewAuditService(layout, jobRepo, eventService, staffService, publisher, logger)
	statsService := service.NewStatsService(jobRepo, redisClient, cfg.StatsCacheTTL, logger)
	authService := service.NewAuthService(cfg.Workstations, cfg.JWTSecret, cfg.JWTTTL, validate, logger)

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"storage": func(context.Context) error {
			return layout.EnsureDirs()
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		// Leave room for the multipart envelope so oversize files reach the size check.
		BodyLimit: int(cfg.UploadMaxBytes) + 1<<20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authService, logger),
		SubmitHandler:    handler.NewSubmitHandler(submitService, jobService, logger),
		JobHandler:       handler.NewJobHandler(jobService, logger),
		StaffHandler:     handler.NewStaffHandler(staffService, logger),
		AuditHandler:     handler.NewAuditHandler(auditService, logger),
		AnalyticsHandler: handler.NewAnalyticsHandler(eventService, statsService, logger),
		HealthProbes:     probes,
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("storage", layout.Root()).Msg("print queue api started")
	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
