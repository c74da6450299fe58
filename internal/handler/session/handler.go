package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/logging"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	chatService "github.com/devcoregroup/lox/backend/internal/service/chat"
	"github.com/devcoregroup/lox/backend/internal/service/flow"
	"github.com/devcoregroup/lox/backend/internal/view"
	"github.com/devcoregroup/lox/backend/pkg/utils"
)

// DefaultTurnTimeout bounds a lead submission or a conversation turn.
const DefaultTurnTimeout = 90 * time.Second

// Handler 会话的HTTP处理器，所有响应都返回当前的视图模型。
type Handler struct {
	sessions    *chatService.Service
	turnTimeout time.Duration
}

// New 创建会话处理器
func New(sessions *chatService.Service, turnTimeout time.Duration) *Handler {
	if turnTimeout <= 0 {
		turnTimeout = DefaultTurnTimeout
	}
	return &Handler{sessions: sessions, turnTimeout: turnTimeout}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Delete("/", h.handleDelete)
		r.Put("/language", h.handleLanguage)
		r.Post("/lead", h.handleLead)
		r.Post("/messages", h.handleMessage)
		r.Post("/suggestions", h.handleSuggestion)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Language string `json:"language"`
	}
	// 请求体可为空
	if err := utils.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var lang i18n.Language
	if payload.Language != "" {
		parsed, err := i18n.ParseLanguage(payload.Language)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		lang = parsed
	}

	ctrl, err := h.sessions.CreateSession(r.Context(), lang)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logging.FromContext(r.Context()).WithField("session", ctrl.ID()).Info("session created")
	utils.RespondJSON(w, http.StatusCreated, view.Build(ctrl.Snapshot()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, view.Build(ctrl.Snapshot()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, Classify(err).Status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLanguage(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var payload struct {
		Language string `json:"language"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang, err := i18n.ParseLanguage(payload.Language)
	if err == nil {
		err = ctrl.SelectLanguage(lang)
	}
	h.respond(w, http.StatusOK, ctrl, err)
}

func (h *Handler) handleLead(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var payload struct {
		Name          string `json:"name"`
		ContactMethod string `json:"contactMethod"`
		ContactInfo   string `json:"contactInfo"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	form := flow.LeadForm{Name: payload.Name, ContactInfo: payload.ContactInfo}
	if strings.TrimSpace(payload.ContactMethod) != "" {
		method, err := lead.ParseContactMethod(payload.ContactMethod)
		if err != nil {
			h.respond(w, http.StatusOK, ctrl, err)
			return
		}
		form.ContactMethod = method
	}

	ctx, cancel := h.turnContext(r)
	defer cancel()
	h.respond(w, http.StatusOK, ctrl, ctrl.SubmitLead(ctx, form))
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := h.turnContext(r)
	defer cancel()
	h.respond(w, http.StatusOK, ctrl, ctrl.Send(ctx, payload.Text))
}

func (h *Handler) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var payload struct {
		MessageID string `json:"messageId"`
		Label     string `json:"label"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := h.turnContext(r)
	defer cancel()
	h.respond(w, http.StatusOK, ctrl, ctrl.ChooseSuggestion(ctx, payload.MessageID, payload.Label))
}

// turnContext detaches the turn from the request so a dropped client does not
// abort a reply that is already being generated.
func (h *Handler) turnContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), h.turnTimeout)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*flow.Controller, bool) {
	ctrl, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, Classify(err).Status, err.Error())
		return nil, false
	}
	return ctrl, true
}

func (h *Handler) respond(w http.ResponseWriter, status int, ctrl *flow.Controller, err error) {
	v := view.Build(ctrl.Snapshot())
	if err != nil {
		f := Classify(err)
		v = f.Attach(v, err)
		status = f.Status
	}
	utils.RespondJSON(w, status, v)
}
