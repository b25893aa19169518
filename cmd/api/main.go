package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/checkin"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/config"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/history"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/httpmiddleware"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/invitation"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/participant"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/profile"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/provision"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/qrimage"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/queue"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/session"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/settings"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Bootstrap(context.Background()); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "kajian:checkins")
	}

	sessionRepo := session.NewRepository(db.Client)
	participantRepo := participant.NewRepository(db.Client)
	profileRepo := profile.NewRepository(db.Client)
	invitationRepo := invitation.NewRepository(db.Client)
	attendanceRepo := checkin.NewRepository(db.Client)
	historyRepo := history.NewRepository(db.Client)

	settingsSvc := settings.NewService(redisClient.Client, cfg.DefaultGraceMinutes)
	sessionSvc := session.NewService(sessionRepo)
	participantSvc := participant.NewService(participantRepo, uuid.NewString, provision.QRToken)
	checkinSvc := checkin.NewService(sessionRepo, participantRepo, attendanceRepo, settingsSvc, q)
	coordinator := provision.NewCoordinator(participantRepo, profileRepo, invitationRepo, cfg.ProvisionTimeout, uuid.NewString)
	qrClient := qrimage.New(cfg.QRImageBaseURL, cfg.QRImageSize)

	srv := &server{
		cfg:          cfg,
		db:           db,
		redis:        redisClient,
		sessions:     sessionSvc,
		participants: participantSvc,
		profiles:     profileRepo,
		invitations:  invitationRepo,
		attendance:   attendanceRepo,
		history:      historyRepo,
		checkins:     checkinSvc,
		coordinator:  coordinator,
		settings:     settingsSvc,
		qr:           qrClient,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", srv.handleHealthz)
	srv.registerRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
