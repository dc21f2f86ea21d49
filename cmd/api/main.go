package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/whatsapp-notifier/internal/config"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/database"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/http/handlers"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/http/server"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/integration/twilio"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/logger"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/mail"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/queue"
	"github.com/xavierca1/whatsapp-notifier/internal/usecase"
)

// Version is set by build flags.
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	if !cfg.Twilio.Configured() {
		log.Warn("⚠️ TWILIO_SID or TWILIO_AUTH not set, sends will be rejected by Twilio")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Twilio
	sender := twilio.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, log.Named("twilio"))

	// 2. Journal, events and alerts (all optional)
	var (
		recorder   usecase.DispatchRecorder
		notifier   usecase.FailureNotifier
		dbPinger   handlers.Pinger
		amqpState  handlers.ConnectionState
		dispatches *handlers.DispatchHandler
	)

	if cfg.Database.Enabled() {
		db, err := database.NewDBConnection(cfg.Database.URL)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}

		repo := database.NewDispatchRepository(db)
		recorder = repo
		dbPinger = db
		dispatches = handlers.NewDispatchHandler(repo)
		log.Info("dispatch journal enabled")

		if cfg.Queue.Enabled() {
			rabbitMQ, err := queue.NewRabbitMQ(cfg.Queue.URL)
			if err != nil {
				log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
			}
			defer rabbitMQ.Close()

			recorder = queue.NewProducer(rabbitMQ.Ch, "api")
			amqpState = rabbitMQ.Conn

			worker := queue.NewWorker(rabbitMQ.Ch, repo, log.Named("worker"))
			go func() {
				if err := worker.Start(ctx, queue.QueueName); err != nil {
					log.Error("dispatch worker stopped", zap.Error(err))
				}
			}()
			log.Info("dispatch events enabled", zap.String("queue", queue.QueueName))
		}
	} else if cfg.Queue.Enabled() {
		log.Warn("AMQP_URL ignored: dispatch events need DATABASE_URL for the journal worker")
	}

	if cfg.Mail.Enabled() {
		notifier = mail.NewAlertSender(
			cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password,
			cfg.Mail.From, cfg.Mail.AlertEmail,
		)
		log.Info("failure alerts enabled", zap.String("recipient", cfg.Mail.AlertEmail))
	}

	// 3. Use case
	sendUC := usecase.NewSendWhatsAppUseCase(sender, recorder, notifier, usecase.Template{
		To:         cfg.Template.To,
		From:       cfg.Template.From,
		ContentSID: cfg.Template.ContentSID,
		Variables:  cfg.Template.Variables,
	}, log.Named("usecase"))

	// 4. Router
	router := server.NewRouter(server.RouterConfig{
		Logger:         log.Named("http"),
		AllowedOrigins: cfg.AllowedOrigins,
		WhatsApp:       handlers.NewWhatsAppHandler(sendUC),
		Health:         handlers.NewHealthHandler(dbPinger, amqpState, cfg.Twilio.Configured(), Version),
		Dispatches:     dispatches,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("🔥 whatsapp-notifier listening", zap.String("addr", srv.Addr), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Let in-flight journal writes and alerts finish before the pools close.
	sendUC.Wait()

	log.Info("shut down complete")
}
