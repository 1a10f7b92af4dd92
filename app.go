package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/granforum/forum/api"
	"github.com/granforum/forum/config"
	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/delivery"
	"github.com/granforum/forum/render"
	rh "github.com/granforum/forum/route-handlers"
	"github.com/granforum/forum/webhooks"
)

const webhookClientTimeout = 10 * time.Second

// app holds the process-wide components, built once and shared by reference.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *datastore.DB

	userRepo         *datastore.UserRepository
	groupRepo        *datastore.GroupRepository
	subscriptionRepo *datastore.SubscriptionRepository
	threadRepo       *datastore.ThreadRepository
	postRepo         *datastore.PostRepository
	jobRepo          *datastore.JobListingRepository
	attemptRepo      *datastore.NotificationAttemptRepository

	renderer *render.Renderer
	notifier *delivery.Notifier
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	dialect, err := datastore.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	db, err := datastore.Open(ctx, dialect, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("database setup failed: %w", err)
	}
	logger.Info("Database connection successful", "driver", string(db.Dialect()))

	a := &app{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		userRepo:         datastore.NewUserRepository(db),
		groupRepo:        datastore.NewGroupRepository(db),
		subscriptionRepo: datastore.NewSubscriptionRepository(db),
		threadRepo:       datastore.NewThreadRepository(db),
		postRepo:         datastore.NewPostRepository(db),
		jobRepo:          datastore.NewJobListingRepository(db),
		attemptRepo:      datastore.NewNotificationAttemptRepository(db),
		renderer:         render.NewRenderer(cfg.Server.PublicBaseURL),
	}

	mailSender := delivery.NewSMTPSender(delivery.SMTPConfig{
		Host:   cfg.SMTP.Host,
		Port:   cfg.SMTP.Port,
		Secure: cfg.SMTP.Secure,
		User:   cfg.SMTP.User,
		Pass:   cfg.SMTP.Pass,
	}, logger)
	emailChannel := delivery.NewEmailChannel(mailSender, cfg.Email.FromEmail, cfg.Email.FromName, logger)
	whatsAppChannel := delivery.NewWhatsAppChannel(
		&http.Client{Timeout: webhookClientTimeout},
		cfg.WhatsApp.WebhookURL,
		cfg.WhatsApp.WebhookSecret,
		uint(cfg.WhatsApp.WebhookAttempts),
		logger,
	)
	if !whatsAppChannel.Enabled() {
		logger.Warn("N8N_WHATSAPP_WEBHOOK not set, WhatsApp notifications are disabled")
	}
	a.notifier = delivery.NewNotifier(a.subscriptionRepo, a.attemptRepo, logger, emailChannel, whatsAppChannel)

	return a, nil
}

func (a *app) router() http.Handler {
	return api.SetupRoutes(api.Handlers{
		Users:         rh.NewUserHandler(a.userRepo),
		Groups:        rh.NewGroupHandler(a.groupRepo),
		Subscriptions: rh.NewSubscriptionHandler(a.subscriptionRepo, a.groupRepo, a.userRepo),
		Threads: rh.NewThreadHandler(
			a.threadRepo,
			a.postRepo,
			a.groupRepo,
			a.userRepo,
			a.notifier,
			a.renderer,
			a.cfg.Notify.TimeoutDuration(),
		),
		Jobs:          rh.NewJobHandler(a.jobRepo),
		Notifications: rh.NewNotificationHandler(a.attemptRepo, a.groupRepo),
		WhatsApp:      webhooks.NewInboundWhatsAppHandler(a.userRepo, a.threadRepo, a.postRepo, a.cfg.WhatsApp.WebhookSecret, a.logger),
	}, a.db, a.cfg.Server.PublicDir)
}

func (a *app) Close() error {
	return a.db.Close()
}
