package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/handler/health"
	"github.com/devcoregroup/lox/backend/internal/handler/locale"
	"github.com/devcoregroup/lox/backend/internal/handler/session"
	"github.com/devcoregroup/lox/backend/internal/handler/stream"
	"github.com/devcoregroup/lox/backend/internal/handler/widget"
	middlewarePkg "github.com/devcoregroup/lox/backend/internal/middleware"
	chatService "github.com/devcoregroup/lox/backend/internal/service/chat"
)

// Dependencies are the services the HTTP layer is wired to.
type Dependencies struct {
	Logger         logrus.FieldLogger
	Sessions       *chatService.Service
	Health         *health.Handler
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))
	r.Use(middlewarePkg.Metrics)

	if deps.Health != nil {
		r.Get("/health", deps.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	sessionHandler := session.New(deps.Sessions, 0)
	streamHandler := stream.New(deps.Sessions, 0)
	wsHandler := widget.NewWebSocketHandler(deps.Sessions, deps.AllowedOrigins, 0)

	r.Route("/api", func(api chi.Router) {
		locale.New().RegisterRoutes(api)
		sessionHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
