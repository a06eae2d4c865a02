package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fuelops/task-tracker/internal/app"
	"github.com/fuelops/task-tracker/internal/config"
	"github.com/fuelops/task-tracker/internal/constants"
	"github.com/fuelops/task-tracker/internal/handlers"
	"github.com/fuelops/task-tracker/internal/jobs"
	"github.com/fuelops/task-tracker/internal/logger"
	"github.com/fuelops/task-tracker/internal/middleware"
	"github.com/fuelops/task-tracker/internal/notify"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer a.Close()

	// Run migrations
	if err := a.Migrate(); err != nil {
		return err
	}

	store, err := sessionStore(cfg)
	if err != nil {
		return err
	}

	var reportJob *jobs.DailyReportJob
	if cfg.Report.Enabled {
		reportJob = jobs.NewDailyReportJob(a.Reports, cfg.Report.Schedule, cfg.Location(), zl)
		if err := reportJob.Start(); err != nil {
			return err
		}
		defer reportJob.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(zl))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Tracker API is running",
		})
	})

	if cfg.Storage.Driver == "local" {
		r.Static("/files", cfg.Storage.LocalDir)
	}

	handlers.RegisterRoutes(r.Group("/api"), handlers.Handlers{
		Auth:          handlers.NewAuthHandler(a.Auth, cfg.Session.Secure),
		Users:         handlers.NewUserHandler(a.Users),
		Tasks:         handlers.NewTaskHandler(a.Catalog),
		Assignments:   handlers.NewAssignmentHandler(a.Assignments, a.Attachments, a.Comments),
		Notifications: handlers.NewNotificationHandler(a.Notifications, notify.NewRegistry(), zl),
		Reports:       handlers.NewReportHandler(a.Reports),
	}, a.Auth, a.Assignments)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Event streams only end when the hub closes, so close it before waiting on the server.
	if err := a.Hub.Close(); err != nil {
		zl.Warn("failed to close notification hub", zap.Error(err))
	}
	return srv.Shutdown(shutdownCtx)
}

// sessionStore keeps sessions in redis when it is enabled, otherwise in signed cookies.
func sessionStore(cfg *config.Config) (sessions.Store, error) {
	opts := sessions.Options{
		Path:     "/",
		MaxAge:   constants.DefaultSessionDays * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if !cfg.Redis.Enabled {
		store := cookie.NewStore([]byte(cfg.Session.Secret))
		store.Options(opts)
		return store, nil
	}

	store, err := redisStore.NewStore(
		10,    // pool size
		"tcp", // network type
		cfg.Redis.Addr,
		"", // username
		cfg.Redis.Password,
		[]byte(cfg.Session.Secret),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis session store: %w", err)
	}
	store.Options(opts)
	return store, nil
}
