package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fees-module/config"
	"fees-module/db"
	apphttp "fees-module/http"
	"fees-module/http/handlers"
	"fees-module/http/middleware"
	svc "fees-module/http/services"
	"fees-module/logger"
	"fees-module/services"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Error initializing database: %v", err)
	}
	defer database.Close()

	publisher := services.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	mailer := services.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)

	fees := svc.NewFeesService(database)
	store := svc.NewPaymentStore(database, fees)
	payments := svc.NewPaymentService(database, fees, store, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	defaulters := svc.NewDefaulterService(database)
	notifier := svc.NewNotifier(mailer)

	auth := middleware.NewAuthenticator(cfg.JWTSecret)

	mux := http.NewServeMux()
	apphttp.SetupRoutes(mux, apphttp.Handlers{
		Students:      handlers.NewStudentHandler(database),
		FeeStructures: handlers.NewFeeStructureHandler(database),
		Payments:      handlers.NewPaymentHandler(fees, payments, store, notifier, publisher),
		Offline:       handlers.NewOfflineHandler(fees, store, notifier, publisher),
		Defaulters:    handlers.NewDefaulterHandler(defaulters),
		Receipts:      handlers.NewReceiptHandler(fees, store),
		Webhook:       handlers.NewWebhookHandler(payments, cfg.RazorpayWebhookSecret),
	}, auth, database)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepStaleOrders(sweepCtx, payments, cfg.OrderTTL)

	go func() {
		logger.Info("Server starting on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server: %v", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("Error closing Kafka producer: %v", err)
	}

	logger.Info("Server shutdown complete")
}

// sweepStaleOrders periodically expires PENDING gateway orders so
// abandoned checkouts do not accumulate.
func sweepStaleOrders(ctx context.Context, payments *svc.PaymentService, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := payments.ExpireStaleOrders(ctx, ttl)
			if err != nil {
				logger.Error("Order sweep failed: %v", err)
				continue
			}
			if n > 0 {
				logger.Info("Expired %d stale gateway orders", n)
			}
		}
	}
}
