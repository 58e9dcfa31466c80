package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiftlink/backend/internal/config"
	"github.com/shiftlink/backend/internal/database"
	"github.com/shiftlink/backend/internal/database/migrations"
	"github.com/shiftlink/backend/internal/jobs"
	"github.com/shiftlink/backend/internal/queue"
	"github.com/shiftlink/backend/internal/routes"
	"github.com/shiftlink/backend/internal/services/billing"
	"github.com/shiftlink/backend/internal/services/notification"
	"github.com/shiftlink/backend/internal/services/subscription"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	gateway := billing.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	var push notification.PushSender
	if cfg.FCM.ProjectID != "" && cfg.FCM.CredentialsFile != "" {
		fcm, err := notification.NewFCMClient(cfg.FCM.ProjectID, cfg.FCM.CredentialsFile)
		if err != nil {
			log.Printf("Push notifications disabled: %v", err)
		} else {
			push = fcm
		}
	} else {
		log.Println("Push notifications disabled: FCM not configured")
	}

	notifications := notification.NewService(db, push)
	subscriptions := subscription.NewService(db, gateway)

	jobQueue := queue.NewQueue(db)
	worker := queue.NewWorker(jobQueue)
	jobs.RegisterJobs(worker, jobQueue, db, notifications)
	worker.Start()
	defer worker.Stop()

	router := routes.SetupRouter(db, cfg, subscriptions, notifications)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
