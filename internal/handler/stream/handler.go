package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devcoregroup/lox/backend/internal/handler/session"
	"github.com/devcoregroup/lox/backend/internal/logging"
	chatService "github.com/devcoregroup/lox/backend/internal/service/chat"
	"github.com/devcoregroup/lox/backend/internal/view"
	"github.com/devcoregroup/lox/backend/pkg/utils"
)

// EventView is the SSE event name carrying a view model.
const EventView = "view"

// DefaultKeepAlive is the interval between keepalive comments.
const DefaultKeepAlive = 15 * time.Second

// Handler pushes session views to REST clients via Server-Sent Events.
type Handler struct {
	sessions  *chatService.Service
	keepAlive time.Duration
}

// New creates a new stream handler
func New(sessions *chatService.Service, keepAlive time.Duration) *Handler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Handler{sessions: sessions, keepAlive: keepAlive}
}

// RegisterRoutes 注册SSE路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

// handleEvents sends the current view right away and then one view per change
// until the client leaves or the session is deleted.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, session.Classify(err).Status, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	log := logging.FromContext(r.Context()).WithField("session", ctrl.ID())
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := utils.SendSSEEvent(w, flusher, EventView, view.Build(ctrl.Snapshot())); err != nil {
		return
	}
	log.Debug("sse stream opened")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("sse client gone")
			return
		case snap, ok := <-updates:
			if !ok {
				log.Debug("session closed, ending sse stream")
				return
			}
			if err := utils.SendSSEEvent(w, flusher, EventView, view.Build(snap)); err != nil {
				log.WithError(err).Debug("sse write failed")
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keepalive"); err != nil {
				return
			}
		}
	}
}
