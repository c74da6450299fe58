package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	modelchat "github.com/devcoregroup/lox/backend/internal/model/chat"
	chat "github.com/devcoregroup/lox/backend/internal/service/chat"
	"github.com/devcoregroup/lox/backend/internal/service/flow"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService(flow.Dependencies{})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, i18n.ES)
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, session.ID())
	require.NoError(t, err)

	snap := got.Snapshot()
	assert.Equal(t, session.ID(), snap.ID)
	assert.Equal(t, i18n.ES, snap.Language)
	assert.Equal(t, modelchat.StateLeadForm, snap.State)
	assert.Equal(t, 1, svc.Len())
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService(flow.Dependencies{})

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}

func TestServiceDeleteSession(t *testing.T) {
	var deleted []modelchat.Session
	svc := chat.NewService(flow.Dependencies{}, chat.WithOnDelete(func(s modelchat.Session) {
		deleted = append(deleted, s)
	}))
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	updates, cancel := session.Subscribe()
	defer cancel()

	require.NoError(t, svc.DeleteSession(ctx, session.ID()))
	assert.ErrorIs(t, svc.DeleteSession(ctx, session.ID()), chat.ErrSessionNotFound)

	_, open := <-updates
	assert.False(t, open)
	require.Len(t, deleted, 1)
	assert.Equal(t, session.ID(), deleted[0].ID)
	assert.Zero(t, svc.Len())
}

func TestServiceClose(t *testing.T) {
	svc := chat.NewService(flow.Dependencies{})
	for range 3 {
		_, err := svc.CreateSession(context.Background(), i18n.EN)
		require.NoError(t, err)
	}

	svc.Close()
	assert.Zero(t, svc.Len())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestServiceReapIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	var deleted []string
	svc := chat.NewService(flow.Dependencies{Now: clock.Now},
		chat.WithIdleTimeout(30*time.Minute),
		chat.WithOnDelete(func(s modelchat.Session) { deleted = append(deleted, s.ID) }),
	)
	ctx := context.Background()

	abandoned, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	active, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	watched, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	_, cancel := watched.Subscribe()
	defer cancel()

	clock.Advance(20 * time.Minute)
	require.NoError(t, active.SelectLanguage(i18n.EN))
	assert.Zero(t, svc.ReapIdle())

	clock.Advance(15 * time.Minute)
	assert.Equal(t, 1, svc.ReapIdle())
	assert.Equal(t, []string{abandoned.ID()}, deleted)
	assert.Equal(t, 2, svc.Len())

	_, err = svc.GetSession(ctx, abandoned.ID())
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)

	// the listener leaves; the session expires on the next sweep
	cancel()
	clock.Advance(time.Hour)
	assert.Equal(t, 2, svc.ReapIdle())
	assert.Zero(t, svc.Len())
}

func TestServiceReapIdleDisabled(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := chat.NewService(flow.Dependencies{Now: clock.Now})

	_, err := svc.CreateSession(context.Background(), i18n.EN)
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)
	assert.Zero(t, svc.ReapIdle())
	assert.Equal(t, 1, svc.Len())
}

func TestServiceStartReaper(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := chat.NewService(flow.Dependencies{Now: clock.Now}, chat.WithIdleTimeout(time.Minute))

	_, err := svc.CreateSession(context.Background(), i18n.EN)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	svc.StartReaper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return svc.Len() == 0 }, time.Second, 5*time.Millisecond)
}
