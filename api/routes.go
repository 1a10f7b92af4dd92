package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/granforum/forum/route-handlers"
	"github.com/granforum/forum/webhooks"
	"github.com/granforum/forum/webutil"
)

const (
	apiBasePath      = "/api"
	usersBasePath    = "/users"
	groupsBasePath   = "/groups"
	threadsBasePath  = "/threads"
	jobsBasePath     = "/jobs"
	webhooksBasePath = "/webhooks"
)

const (
	subscribeSubPath     = "/subscribe"
	threadsSubPath       = "/threads"
	repliesSubPath       = "/replies"
	notificationsSubPath = "/notifications"
	importSubPath        = "/import"
	whatsAppSubPath      = "/whatsapp"
)

const (
	paramID = "id" // General parameter name for resource IDs

	healthCheckTimeout = 2 * time.Second
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Users         *rh.UserHandler
	Groups        *rh.GroupHandler
	Subscriptions *rh.SubscriptionHandler
	Threads       *rh.ThreadHandler
	Jobs          *rh.JobHandler
	Notifications *rh.NotificationHandler
	WhatsApp      *webhooks.InboundWhatsAppHandler
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SetupRoutes builds the router. When publicDir holds a built web client it is
// served for every non-API path.
func SetupRoutes(h Handlers, db Pinger, publicDir string) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Log every request
	r.Use(middleware.Recoverer) // Recover from panics
	r.Use(middleware.Timeout(webutil.RequestTimeout))
	r.Use(corsMiddleware())

	r.Route(apiBasePath, func(r chi.Router) {
		configureUserRoutes(r, h.Users)
		configureGroupRoutes(r, h.Groups, h.Subscriptions, h.Threads, h.Notifications)
		configureThreadRoutes(r, h.Threads)
		configureJobRoutes(r, h.Jobs)
		configureWebhookRoutes(r, h.WhatsApp)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			webutil.RespondWithError(w, http.StatusNotFound, "Route not found")
		})
	})

	r.Get("/healthz", handleHealthCheck(db))

	if spa := spaHandler(publicDir); spa != nil {
		r.NotFound(spa.ServeHTTP)
		slog.Info("Serving web client", "dir", publicDir)
	}

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	return basePath + "/{" + paramName + "}"
}

// --- User Routes ---
func configureUserRoutes(r chi.Router, handler *rh.UserHandler) {
	r.Route(usersBasePath, func(r chi.Router) {
		r.Post("/", webutil.MakeHandler(handler.HandleCreateUser))
		r.Get(pathWithParam("", paramID), webutil.MakeHandler(handler.HandleGetUser))
	})
}

// --- Group Routes ---
func configureGroupRoutes(
	r chi.Router,
	groups *rh.GroupHandler,
	subscriptions *rh.SubscriptionHandler,
	threads *rh.ThreadHandler,
	notifications *rh.NotificationHandler,
) {
	r.Route(groupsBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(groups.HandleGetGroups))
		r.Post("/", webutil.MakeHandler(groups.HandleCreateGroup))
		r.Route(pathWithParam("", paramID), func(r chi.Router) {
			r.Post(subscribeSubPath, webutil.MakeHandler(subscriptions.HandleSubscribe))
			r.Get(threadsSubPath, webutil.MakeHandler(threads.HandleGetGroupThreads))
			r.Post(threadsSubPath, webutil.MakeHandler(threads.HandleCreateThread))
			r.Get(notificationsSubPath, webutil.MakeHandler(notifications.HandleGetGroupNotifications))
		})
	})
}

// --- Thread Routes ---
func configureThreadRoutes(r chi.Router, handler *rh.ThreadHandler) {
	r.Route(pathWithParam(threadsBasePath, paramID), func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetThread))
		r.Post(repliesSubPath, webutil.MakeHandler(handler.HandleCreateReply))
	})
}

// --- Job Routes ---
func configureJobRoutes(r chi.Router, handler *rh.JobHandler) {
	r.Route(jobsBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetJobs))
		r.Post(importSubPath, webutil.MakeHandler(handler.HandleImportJobs))
	})
}

// --- Webhook Routes ---
func configureWebhookRoutes(r chi.Router, handler *webhooks.InboundWhatsAppHandler) {
	r.Post(webhooksBasePath+whatsAppSubPath, webutil.MakeHandler(handler.HandleInbound))
}

// handleHealthCheck responds OK when the database answers a ping.
func handleHealthCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
		if err := db.PingContext(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
