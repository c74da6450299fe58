package widget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	chatService "github.com/devcoregroup/lox/backend/internal/service/chat"
	"github.com/devcoregroup/lox/backend/internal/service/flow"
	"github.com/devcoregroup/lox/backend/internal/transport"
	"github.com/devcoregroup/lox/backend/internal/view"
)

type echoChat struct{}

func (echoChat) StartConversation(_ context.Context, req transport.StartRequest) (transport.Reply, error) {
	return transport.Reply{ConversationID: "conv-1", Text: "Hello " + req.Lead.Name + "\n👉 [Web]"}, nil
}

func (echoChat) SendTurn(_ context.Context, req transport.TurnRequest) (transport.Reply, error) {
	return transport.Reply{ConversationID: req.ConversationID, Text: "echo: " + req.Text}, nil
}

type memLeads struct{}

func (memLeads) PersistLead(context.Context, lead.Lead) (string, error) { return "1", nil }

func (memLeads) PersistTranscript(context.Context, lead.Lead, []chat.Message) error { return nil }

type frame struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	Data      view.View `json:"data"`
}

func setupServer(t *testing.T) (*httptest.Server, *chatService.Service) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	sessions := chatService.NewService(flow.Dependencies{Chat: echoChat{}, Leads: memLeads{}, Logger: logger})

	r := chi.NewRouter()
	NewWebSocketHandler(sessions, []string{"*"}, time.Second).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, sessions
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func TestWebSocketConversation(t *testing.T) {
	srv, sessions := setupServer(t)
	conn := dial(t, srv, "/ws?language=en")

	first := readUntil(t, conn, func(f frame) bool { return f.Type == TypeView })
	assert.Equal(t, view.StageLeadForm, first.Data.Stage)
	assert.Equal(t, 1, sessions.Len())

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": TypeLead,
		"data": map[string]string{"name": "Ana", "contactMethod": "Email", "contactInfo": "ana@example.com"},
	}))
	chatting := readUntil(t, conn, func(f frame) bool { return f.Data.Stage == view.StageChatting })
	require.NotNil(t, chatting.Data.Chat)
	bot := chatting.Data.Chat.Messages[0]
	assert.Equal(t, "Hello Ana", bot.Text)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": TypeSuggestion,
		"data": map[string]string{"messageId": bot.ID, "label": "Web"},
	}))
	reply := readUntil(t, conn, func(f frame) bool {
		return f.Data.Chat != nil && len(f.Data.Chat.Messages) == 3
	})
	assert.Equal(t, "echo: Web", reply.Data.Chat.Messages[2].Text)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance", "data": map[string]string{}}))
	bad := readUntil(t, conn, func(f frame) bool { return f.Type == TypeError })
	require.NotNil(t, bad.Data.Error)
	assert.Equal(t, "malformed", bad.Data.Error.Code)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketRejectsUnknownSession(t *testing.T) {
	srv, _ := setupServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketAttachKeepsSession(t *testing.T) {
	srv, sessions := setupServer(t)
	ctrl, err := sessions.CreateSession(context.Background(), "")
	require.NoError(t, err)

	conn := dial(t, srv, "/ws/"+ctrl.ID())
	first := readUntil(t, conn, func(f frame) bool { return f.Type == TypeView })
	assert.Equal(t, view.StageLanguage, first.Data.Stage)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": TypeLanguage, "data": map[string]string{"language": "pt"}}))
	picked := readUntil(t, conn, func(f frame) bool { return f.Data.Stage == view.StageLeadForm })
	assert.EqualValues(t, "pt", picked.Data.Language)

	require.NoError(t, conn.Close())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sessions.Len())
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://devcoregroup.com/"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://devcoregroup.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
