package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type broker bool

func (b broker) IsClosed() bool { return bool(b) }

func call(h *Handler) (int, Response) {
	resp := httptest.NewRecorder()
	h.Handle(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	var out Response
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	return resp.Code, out
}

func TestHealthWithoutDependencies(t *testing.T) {
	code, out := call(&Handler{Service: "lox", Transport: "llm", Sinks: []string{"log"}, StartTime: time.Now(), Sessions: func() int { return 2 }})

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, 2, out.Sessions)
	assert.Equal(t, "not configured", out.Dependencies["database"])
}

func TestHealthHealthyDependencies(t *testing.T) {
	code, out := call(&Handler{
		DB:        pingFunc(func(context.Context) error { return nil }),
		Broker:    broker(false),
		StartTime: time.Now(),
	})

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", out.Dependencies["database"])
	assert.Equal(t, "healthy", out.Dependencies["rabbitmq"])
}

func TestHealthDegraded(t *testing.T) {
	code, out := call(&Handler{
		DB:        pingFunc(func(context.Context) error { return errors.New("refused") }),
		Broker:    broker(true),
		StartTime: time.Now(),
	})

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", out.Status)
	assert.Equal(t, "unhealthy: refused", out.Dependencies["database"])
	assert.Equal(t, "unhealthy: connection closed", out.Dependencies["rabbitmq"])
}
