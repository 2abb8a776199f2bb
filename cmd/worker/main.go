package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"churchattend/internal/apiclient"
	"churchattend/internal/config"
	"churchattend/internal/messaging"
	"churchattend/internal/queue"
	"churchattend/internal/store"
)

// Worker consumes bulk message jobs and delivers them through the backend.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend == "memory" {
		log.Fatal("worker needs QUEUE_BACKEND=redis; the memory queue is drained by the api process")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable, will keep retrying", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, "church:jobs")
	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)

	if err := api.Health(ctx); err != nil {
		log.Printf("WARNING: backend not available: %v", err)
		log.Println("Worker will retry delivery when jobs arrive")
	} else {
		log.Println("Backend connected")
	}

	log.Println("worker started, waiting for jobs...")
	d := messaging.NewDispatcher(api, 200*time.Millisecond)
	if err := messaging.Run(ctx, q, d); err != nil && ctx.Err() == nil {
		log.Fatalf("queue consume failed: %v", err)
	}

	log.Println("worker stopped")
}
