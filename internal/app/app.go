// Package app wires the configured infrastructure into the services shared by
// the HTTP server and the command line tools.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fuelops/task-tracker/internal/config"
	"github.com/fuelops/task-tracker/internal/database"
	"github.com/fuelops/task-tracker/internal/mailer"
	"github.com/fuelops/task-tracker/internal/realtime"
	"github.com/fuelops/task-tracker/internal/repository"
	"github.com/fuelops/task-tracker/internal/services"
	"github.com/fuelops/task-tracker/internal/storage"
)

// App holds the connections and services of one process.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	Hub    realtime.Hub
	Store  storage.ObjectStore

	UserRepo repository.UserRepository

	Auth          *services.AuthService
	Users         *services.UserService
	Notifications *services.NotificationService
	Attachments   *services.AttachmentService
	Assignments   *services.AssignmentService
	Catalog       *services.CatalogService
	Comments      *services.CommentService
	Reports       *services.ReportService
	AI            *services.AIService

	closers []func() error
}

// New connects to the database and the optional backends and builds the services.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	if cfg.Redis.Enabled {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, a.Redis.Close)
		a.Hub = realtime.NewRedisHub(a.Redis, log)
	} else {
		a.Hub = realtime.NewMemoryHub()
	}
	a.closers = append(a.closers, a.Hub.Close)

	switch cfg.Storage.Driver {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		a.Store = gcs
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Store = local
	}

	var mail mailer.Mailer
	if cfg.Mail.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.Mail, log)
	} else {
		log.Warn("mail.smtp_host is not set, reports will only be logged")
		mail = mailer.NewLogMailer(log)
	}

	if cfg.OpenAI.APIKey != "" {
		a.AI = services.NewAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Timeout)
	}

	loc := cfg.Location()
	users := repository.NewUserRepository(db)
	a.UserRepo = users
	tasks := repository.NewTaskRepository(db)
	assignments := repository.NewAssignmentRepository(db)

	a.Auth = services.NewAuthService(users, log)
	a.Users = services.NewUserService(users, log)
	a.Notifications = services.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewSoundPreferenceRepository(db),
		a.Hub,
		log,
	)
	a.Attachments = services.NewAttachmentService(assignments, a.Store, cfg.Storage.AttachmentCap, log)
	a.Assignments = services.NewAssignmentService(assignments, tasks, users, a.Attachments, a.Notifications, loc, log)
	a.Catalog = services.NewCatalogService(tasks, users, a.Assignments, a.Notifications, a.AI, log)
	a.Comments = services.NewCommentService(repository.NewCommentRepository(db), assignments)
	a.Reports = services.NewReportService(assignments, mail, cfg.Report.Recipient, loc, log)

	return a, nil
}

// Migrate brings the schema up to date.
func (a *App) Migrate() error {
	return database.Migrate(a.DB, a.Log)
}

// Close releases the connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
