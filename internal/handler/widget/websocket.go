package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/handler/session"
	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/logging"
	modelchat "github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	chatService "github.com/devcoregroup/lox/backend/internal/service/chat"
	"github.com/devcoregroup/lox/backend/internal/service/flow"
	"github.com/devcoregroup/lox/backend/internal/view"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Frame types.
const (
	TypeLanguage   = "language"
	TypeLead       = "lead"
	TypeMessage    = "message"
	TypeSuggestion = "suggestion"

	TypeView  = "view"
	TypeError = "error"
)

// WebSocketHandler 组件的 WebSocket 入口。每个连接拥有一个会话，
// 状态变化以 view 帧推送给客户端。
type WebSocketHandler struct {
	sessions    *chatService.Service
	turnTimeout time.Duration
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(sessions *chatService.Service, allowedOrigins []string, turnTimeout time.Duration) *WebSocketHandler {
	if turnTimeout <= 0 {
		turnTimeout = session.DefaultTurnTimeout
	}
	return &WebSocketHandler{
		sessions:    sessions,
		turnTimeout: turnTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// LanguageMessage 选择语言
type LanguageMessage struct {
	Language string `json:"language"`
}

// LeadMessage 提交联系人表单
type LeadMessage struct {
	Name          string `json:"name"`
	ContactMethod string `json:"contactMethod"`
	ContactInfo   string `json:"contactInfo"`
}

// TextMessage 用户输入
type TextMessage struct {
	Text string `json:"text"`
}

// SuggestionMessage 点击建议按钮
type SuggestionMessage struct {
	MessageID string `json:"messageId"`
	Label     string `json:"label"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// connection serializes writes; gorilla allows one concurrent writer.
type connection struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *connection) send(msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	ctrl, owned, err := h.attach(r)
	if err != nil {
		f := session.Classify(err)
		http.Error(w, err.Error(), f.Status)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		if owned {
			_ = h.sessions.DeleteSession(context.Background(), ctrl.ID())
		}
		return
	}
	conn := &connection{conn: ws}
	log = log.WithField("session", ctrl.ID())
	log.Info("websocket connected")

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	var turns sync.WaitGroup
	defer func() {
		cancel()
		turns.Wait()
		_ = ws.Close()
		if owned {
			_ = h.sessions.DeleteSession(context.Background(), ctrl.ID())
		}
		log.Info("websocket closed")
	}()

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	if err := conn.send(outgoingMessage{Type: TypeView, SessionID: ctrl.ID(), Data: view.Build(ctrl.Snapshot())}); err != nil {
		return
	}
	go h.pushLoop(ctx, conn, ctrl.ID(), updates)
	go pingLoop(ctx, conn)

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket read error")
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		// turns run off the read loop so pongs keep being processed
		turns.Add(1)
		go func() {
			defer turns.Done()
			h.dispatch(ctx, conn, ctrl, msg, log)
		}()
	}
}

// attach resolves the session named in the path or opens a new one that the
// connection owns.
func (h *WebSocketHandler) attach(r *http.Request) (*flow.Controller, bool, error) {
	if id := chi.URLParam(r, "sessionID"); id != "" {
		ctrl, err := h.sessions.GetSession(r.Context(), id)
		return ctrl, false, err
	}

	var lang i18n.Language
	if raw := r.URL.Query().Get("language"); raw != "" {
		parsed, err := i18n.ParseLanguage(raw)
		if err != nil {
			return nil, false, err
		}
		lang = parsed
	}
	ctrl, err := h.sessions.CreateSession(r.Context(), lang)
	return ctrl, err == nil, err
}

func (h *WebSocketHandler) dispatch(ctx context.Context, conn *connection, ctrl *flow.Controller, msg inboundMessage, log logrus.FieldLogger) {
	err := h.apply(ctx, ctrl, msg)
	if err == nil {
		return
	}
	log.WithError(err).WithField("frame", msg.Type).Debug("frame rejected")

	f := session.Classify(err)
	v := f.Attach(view.Build(ctrl.Snapshot()), err)
	if sendErr := conn.send(outgoingMessage{Type: TypeError, SessionID: ctrl.ID(), Data: v}); sendErr != nil {
		log.WithError(sendErr).Debug("failed to send error frame")
	}
}

func (h *WebSocketHandler) apply(ctx context.Context, ctrl *flow.Controller, msg inboundMessage) error {
	ctx, cancel := context.WithTimeout(ctx, h.turnTimeout)
	defer cancel()

	switch msg.Type {
	case TypeLanguage:
		var data LanguageMessage
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("%w: %s frame", session.ErrMalformedRequest, msg.Type)
		}
		lang, err := i18n.ParseLanguage(data.Language)
		if err != nil {
			return err
		}
		return ctrl.SelectLanguage(lang)

	case TypeLead:
		var data LeadMessage
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("%w: %s frame", session.ErrMalformedRequest, msg.Type)
		}
		form := flow.LeadForm{Name: data.Name, ContactInfo: data.ContactInfo}
		if strings.TrimSpace(data.ContactMethod) != "" {
			method, err := lead.ParseContactMethod(data.ContactMethod)
			if err != nil {
				return err
			}
			form.ContactMethod = method
		}
		return ctrl.SubmitLead(ctx, form)

	case TypeMessage:
		var data TextMessage
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("%w: %s frame", session.ErrMalformedRequest, msg.Type)
		}
		return ctrl.Send(ctx, data.Text)

	case TypeSuggestion:
		var data SuggestionMessage
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("%w: %s frame", session.ErrMalformedRequest, msg.Type)
		}
		return ctrl.ChooseSuggestion(ctx, data.MessageID, data.Label)

	default:
		return fmt.Errorf("%w: unknown frame type %q", session.ErrMalformedRequest, msg.Type)
	}
}

// pushLoop forwards every snapshot change as a view frame.
func (h *WebSocketHandler) pushLoop(ctx context.Context, conn *connection, id string, updates <-chan modelchat.Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				// session deleted elsewhere
				_ = conn.conn.Close()
				return
			}
			if err := conn.send(outgoingMessage{Type: TypeView, SessionID: id, Data: view.Build(snap)}); err != nil {
				return
			}
		}
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
