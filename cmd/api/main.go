package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"churchattend/internal/apiclient"
	"churchattend/internal/attendance"
	"churchattend/internal/auth"
	"churchattend/internal/calendar"
	"churchattend/internal/chat"
	"churchattend/internal/config"
	"churchattend/internal/handler"
	"churchattend/internal/httpmiddleware"
	"churchattend/internal/messaging"
	"churchattend/internal/metrics"
	"churchattend/internal/notify"
	"churchattend/internal/queue"
	"churchattend/internal/recent"
	"churchattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc := cfg.Location()
	cutoff, err := attendance.ParseCutoff(cfg.LateCutoff, loc)
	if err != nil {
		return err
	}

	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)

	var redisClient *store.Redis
	if cfg.QueueBackend != "memory" || cfg.RecentBackend != "memory" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		mem := queue.NewInMemory(64)
		q = mem
		// no separate worker can reach an in-process queue
		go func() {
			if err := messaging.Run(ctx, mem, messaging.NewDispatcher(api, 200*time.Millisecond)); err != nil && ctx.Err() == nil {
				log.Printf("in-process dispatcher stopped: %v", err)
			}
		}()
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "church:jobs")
	}

	var recents recent.Cache
	if cfg.RecentBackend == "memory" {
		recents = recent.NewMemory()
	} else {
		recents = recent.NewRedis(redisClient.Client)
	}

	sessions := store.NewSessions(loc, nil)
	panels := chat.NewPanels(api)
	limiter := httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin, nil)

	ticker := calendar.NewTicker(api.Birthdays, loc, nil, 5*time.Second)
	if err := ticker.Start(ctx); err != nil {
		return err
	}
	defer ticker.Stop()

	sweeper := cron.New(cron.WithLocation(loc))
	if _, err := sweeper.AddFunc("@every 1m", func() {
		for _, id := range sessions.Sweep(cfg.SessionIdle) {
			panels.Drop(id)
		}
		limiter.Forget(cfg.SessionIdle)
		metrics.Sessions.Set(float64(sessions.Len()))
	}); err != nil {
		return err
	}
	sweeper.Start()
	defer func() { <-sweeper.Stop().Done() }()

	if err := handler.RegisterValidators(); err != nil {
		return err
	}
	h := handler.New(handler.Deps{
		API:      api,
		Sessions: sessions,
		Panels:   panels,
		Recent:   recents,
		Ticker:   ticker,
		Queue:    q,
		Notes:    notify.Builder{DismissAfter: cfg.NotifyDismiss},
		Cutoff:   cutoff,
		Loc:      loc,
	})

	r := gin.New()

	r.Use(gin.Recovery())

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		rctx := c.Request.Context()
		backendHealthy := api.Health(rctx) == nil
		body := gin.H{"status": "ok", "backend": backendHealthy}
		healthy := backendHealthy
		if redisClient != nil {
			redisHealthy := redisClient.Healthy(rctx)
			body["redis"] = redisHealthy
			healthy = healthy && redisHealthy
		}
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	})

	signer := auth.Signer{Issuer: cfg.SessionIssuer, Key: []byte(cfg.SessionSigningKey), TTL: cfg.SessionTTL}
	apiGroup := r.Group("/api",
		auth.Session(signer, cfg.Production()),
		limiter.Middleware(auth.RateKey),
	)
	h.Register(apiGroup)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // chat answers stream while they are revealed
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (backend %s)", cfg.HTTPPort, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
