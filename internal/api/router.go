package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"kindklick/internal/api/handlers"
	"kindklick/internal/api/middleware"
	"kindklick/internal/metrics"
	"kindklick/internal/services"
)

// Services bundles everything the HTTP layer serves
type Services struct {
	Gate       *services.Gate
	Approvals  *services.ApprovalService
	Requests   *services.RequestService
	Settings   *services.SettingsService
	Navigator  *services.Navigator
	Dispatcher *services.Dispatcher
	Metrics    *metrics.Metrics
}

// Router sets up all HTTP routes
type Router struct {
	svc     Services
	logger  *slog.Logger
	version string
	backend string
}

// NewRouter creates a new Router
func NewRouter(svc Services, logger *slog.Logger, version, backend string) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{svc: svc, logger: logger, version: version, backend: backend}
}

// Setup registers all routes
func (r *Router) Setup() http.Handler {
	policyHandler := handlers.NewPolicyHandler(r.svc.Dispatcher, r.svc.Navigator, r.logger)
	settingsHandler := handlers.NewSettingsHandler(r.svc.Settings, r.logger)
	approvalsHandler := handlers.NewApprovalsHandler(r.svc.Approvals, r.logger)
	requestsHandler := handlers.NewRequestsHandler(r.svc.Requests, r.logger)
	authHandler := handlers.NewAuthHandler(r.svc.Gate, r.logger)
	systemHandler := handlers.NewSystemHandler(r.version, r.backend)

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logger(r.logger))
	mux.Use(middleware.CORS)

	mux.Get("/health", systemHandler.HandleHealth)
	if r.svc.Metrics != nil {
		mux.Handle("/metrics", r.svc.Metrics.Handler())
	}

	mux.Route("/api", func(api chi.Router) {
		api.Use(middleware.Credentials)

		api.Post("/messages", policyHandler.HandleMessage)
		api.Post("/navigate", policyHandler.HandleNavigate)
		api.Get("/evaluate", policyHandler.HandleEvaluate)

		api.Get("/settings", settingsHandler.HandleGet)
		api.Put("/settings", settingsHandler.HandleSave)

		api.Get("/approvals", approvalsHandler.HandleList)
		api.Post("/approvals", approvalsHandler.HandleGrant)
		api.Post("/approvals/sweep", approvalsHandler.HandleSweep)
		api.Delete("/approvals/{domain}", approvalsHandler.HandleRevoke)

		api.Get("/requests", requestsHandler.HandleList)

		api.Post("/auth/pin", authHandler.HandleSetPin)
		api.Delete("/auth/pin", authHandler.HandleClearPin)
		api.Post("/auth/unlock", authHandler.HandleUnlock)
		api.Get("/auth/check", authHandler.HandleCheck)
	})

	return mux
}
