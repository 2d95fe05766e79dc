package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/retry"

	"teacha/internal/app"
	"teacha/internal/config"
	"teacha/internal/database"
	apphttp "teacha/internal/http"
	"teacha/internal/http/handlers"
	"teacha/internal/http/metrics"
	httpmw "teacha/internal/http/middleware"
	"teacha/internal/http/response"
	"teacha/internal/integration/identity"
	"teacha/internal/integration/mailer"
	"teacha/internal/observability"
	"teacha/internal/repository/postgres"
	"teacha/internal/security"
	"teacha/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger("teacha-engine", cfg.LogLevel)
	db := database.NewPostgres(database.PostgresConfig{
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdle:     cfg.DBConnMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	defer db.Close()
	redisClient := database.NewRedis(cfg.RedisAddr)
	if redisClient != nil {
		defer redisClient.Close()
	}

	offerRepo := postgres.NewOfferRepository(db)
	applicationRepo := postgres.NewApplicationRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	jwtProvider := security.NewJWTProvider(cfg.JWTSecret)
	directory := identity.NewClient(cfg.IdentityBaseURL, cfg.IdentityInternalKey, &http.Client{Timeout: 5 * time.Second})
	var mailClient *mailer.Client
	if cfg.SMTPHost != "" {
		mailClient = mailer.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}

	notificationService := app.NewNotificationService(notificationRepo, directory, mailClient, logger)
	conversationService := app.NewConversationService(conversationRepo, messageRepo, logger)
	offerService := app.NewOfferService(offerRepo, notificationService, logger)
	applicationService := app.NewApplicationService(applicationRepo, offerRepo, notificationService, conversationService, directory, logger)

	var limiter httpmw.Limiter
	if redisClient != nil {
		limiter = httpmw.NewRedisLimiter(redisClient)
	} else {
		limiter = httpmw.NewMemoryLimiter()
	}

	collector := metrics.NewCollector()
	response.SetErrorCollector(collector)

	router := apphttp.NewRouter(apphttp.RouterDependencies{
		OfferHandler:        handlers.NewOfferHandler(offerService),
		ApplicationHandler:  handlers.NewApplicationHandler(applicationService, limiter),
		ConversationHandler: handlers.NewConversationHandler(conversationService, limiter),
		NotificationHandler: handlers.NewNotificationHandler(notificationService),
		MetricsHandler:      handlers.NewMetricsHandler(collector),
		AuthMiddleware:      httpmw.NewAuthMiddleware(jwtProvider),
		Metrics:             collector,
		RequestTimeout:      cfg.RequestTimeout,
	})
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweeper := worker.NewSweeper(offerRepo, cfg.SweepInterval, retry.Strategy{Attempts: 3, Delay: time.Second}, logger)
	go sweeper.Run(sweepCtx)

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("engine started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
