package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	chatService "github.com/devcoregroup/lox/backend/internal/service/chat"
	"github.com/devcoregroup/lox/backend/internal/service/flow"
	"github.com/devcoregroup/lox/backend/internal/view"
)

func setupServer(t *testing.T) (*httptest.Server, *chatService.Service) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	sessions := chatService.NewService(flow.Dependencies{Logger: logger})

	r := chi.NewRouter()
	New(sessions, 20*time.Millisecond).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, sessions
}

// nextView reads lines until a complete view event arrives.
func nextView(t *testing.T, sc *bufio.Scanner) view.View {
	t.Helper()
	var event string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == EventView:
			var v view.View
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &v))
			return v
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return view.View{}
}

func TestEventsStreamsViews(t *testing.T) {
	srv, sessions := setupServer(t)
	ctrl, err := sessions.CreateSession(context.Background(), "")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/sessions/" + ctrl.ID() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	first := nextView(t, sc)
	assert.Equal(t, view.StageLanguage, first.Stage)

	require.NoError(t, ctrl.SelectLanguage(i18n.ES))
	second := nextView(t, sc)
	assert.Equal(t, view.StageLeadForm, second.Stage)
	assert.Equal(t, i18n.ES, second.Language)

	require.NoError(t, sessions.DeleteSession(context.Background(), ctrl.ID()))
	for sc.Scan() {
	}
	assert.NoError(t, sc.Err())
}

func TestEventsSendsKeepAlive(t *testing.T) {
	srv, sessions := setupServer(t)
	ctrl, err := sessions.CreateSession(context.Background(), i18n.EN)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/sessions/" + ctrl.ID() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	nextView(t, sc)
	for sc.Scan() {
		if sc.Text() == ": keepalive" {
			return
		}
	}
	t.Fatal("no keepalive received")
}

func TestEventsUnknownSession(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/sessions/missing/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
