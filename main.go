package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sinkandika/fyzy-web/internal/api"
	"github.com/sinkandika/fyzy-web/internal/cache"
	"github.com/sinkandika/fyzy-web/internal/config"
	"github.com/sinkandika/fyzy-web/internal/db"
	"github.com/sinkandika/fyzy-web/internal/email"
	"github.com/sinkandika/fyzy-web/internal/services"
	"github.com/sinkandika/fyzy-web/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	compositeSender := email.NewCompositeSender(email.NewSMTPSender(cfg))
	if logEmailsPath := os.Getenv("LOG_EMAILS"); logEmailsPath != "" {
		fileSender, err := email.NewFileSender(logEmailsPath)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender (LOG_EMAILS=%q): %v. Proceeding without file logging.", logEmailsPath, err)
		} else {
			compositeSender.AddSender(fileSender)
			log.Printf("LOG_EMAILS set to %q, email file logging enabled.", logEmailsPath)
		}
	}
	emailSender := email.Sender(compositeSender)

	invoiceService := services.NewInvoiceService(mongoDb)
	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()
	taskProcessor := tasks.NewTaskProcessor(cfg, invoiceService, emailSender, taskClient)

	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	// Service API always runs regardless of mode.
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Service API listening on :%s", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service API ListenAndServe error: %v", err)
		}
		log.Println("Service API server stopped.")
	}()

	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server
	sweepDone := make(chan struct{})

	log.Printf("Starting application in '%s' mode...", cfg.RunMode)

	apiMode := func() {
		log.Println("Starting main API server...")
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(cfg, mongoDb),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("Main API listening on :%s", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Main API ListenAndServe error: %v", err)
			}
			log.Println("Main API server stopped.")
		}()
	}

	bgMode := func() {
		log.Println("Starting background worker...")
		srv, mux := tasks.SetupServer(redisClient, taskProcessor)
		backgroundTaskSrv = srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(mux); err != nil {
				log.Fatalf("Background task server error: %v", err)
			}
			log.Println("Background task server stopped.")
		}()

		// Periodically enqueue the overdue sweep. The task itself is cheap
		// when nothing is due.
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(cfg.OverdueSweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if _, err := taskClient.Enqueue(tasks.NewOverdueCheckTask()); err != nil {
						log.Printf("Failed to enqueue overdue check task: %v", err)
					}
				case <-sweepDone:
					return
				}
			}
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode specified in config: %s.", cfg.RunMode)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Received signal: %s. Shutting down gracefully...", sig)
	case <-shutdownChan:
		log.Println("Shutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	close(sweepDone)

	log.Println("Shutting down Service API server...")
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Service API server shutdown error: %v", err)
	}

	if mainApiSrv != nil {
		log.Println("Shutting down Main API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("Main API server shutdown error: %v", err)
		}
	}

	if backgroundTaskSrv != nil {
		log.Println("Shutting down Background Task server...")
		backgroundTaskSrv.Shutdown()
	}

	log.Println("Waiting for servers to stop...")
	wg.Wait()

	log.Println("Server gracefully stopped")
}
