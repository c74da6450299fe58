package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/devcoregroup/lox/backend/pkg/utils"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Broker is satisfied by *amqp091.Connection.
type Broker interface {
	IsClosed() bool
}

// Handler reports process liveness and the state of optional dependencies.
type Handler struct {
	Service   string
	Transport string
	Sinks     []string
	DB        Pinger
	Broker    Broker
	Sessions  func() int
	StartTime time.Time
}

type Response struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Uptime       string            `json:"uptime"`
	Transport    string            `json:"transport"`
	Sinks        []string          `json:"sinks"`
	Sessions     int               `json:"sessions"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{
		"database": "not configured",
		"rabbitmq": "not configured",
	}
	degraded := false

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			deps["database"] = fmt.Sprintf("unhealthy: %v", err)
			degraded = true
		} else {
			deps["database"] = "healthy"
		}
	}
	if h.Broker != nil {
		if h.Broker.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
			degraded = true
		} else {
			deps["rabbitmq"] = "healthy"
		}
	}

	resp := Response{
		Status:       "ok",
		Service:      h.Service,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Transport:    h.Transport,
		Sinks:        h.Sinks,
		Dependencies: deps,
	}
	if h.Sessions != nil {
		resp.Sessions = h.Sessions()
	}

	status := http.StatusOK
	if degraded {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	utils.RespondJSON(w, status, resp)
}
