package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

type scriptedModel struct {
	mu      sync.Mutex
	inputs  [][]*schema.Message
	replies []string
	err     error
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	reply := "ok"
	if len(m.replies) > 0 {
		reply, m.replies = m.replies[0], m.replies[1:]
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newTestService(t *testing.T, m *scriptedModel, limit int) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	svc, err := NewServiceWithModel(context.Background(), m, NewPromptBuilder("lox", "DevCore Group"), limit, logger)
	require.NoError(t, err)
	return svc
}

func TestStartConversationUsesLocalizedPrompt(t *testing.T) {
	m := &scriptedModel{replies: []string{"¡Hola, Ana!"}}
	svc := newTestService(t, m, 10)

	reply, err := svc.StartConversation(context.Background(), transport.StartRequest{
		Lead:     lead.Lead{Name: "Ana", ContactMethod: lead.WhatsApp, ContactInfo: "+1"},
		Language: i18n.ES,
		Seed:     "Mi nombre es Ana.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reply.ConversationID)
	assert.NotEmpty(t, reply.MessageID)
	assert.Equal(t, "¡Hola, Ana!", reply.Text)
	assert.Equal(t, 1, svc.Len())

	require.Len(t, m.inputs, 1)
	input := m.inputs[0]
	require.Len(t, input, 2)
	assert.Equal(t, schema.System, input[0].Role)
	assert.Contains(t, input[0].Content, "Ana")
	assert.Contains(t, input[0].Content, "👉 ["+i18n.Text(i18n.HandoffEmailButton, i18n.ES)+"]")
	assert.Equal(t, schema.User, input[1].Role)
	assert.Equal(t, "Mi nombre es Ana.", input[1].Content)
}

func TestSendTurnCarriesHistoryWindow(t *testing.T) {
	m := &scriptedModel{}
	svc := newTestService(t, m, 2)

	start, err := svc.StartConversation(context.Background(), transport.StartRequest{Lead: lead.Lead{Name: "Bo"}, Language: i18n.EN, Seed: "seed"})
	require.NoError(t, err)

	for _, text := range []string{"one", "two"} {
		_, err := svc.SendTurn(context.Background(), transport.TurnRequest{ConversationID: start.ConversationID, Language: i18n.EN, Text: text})
		require.NoError(t, err)
	}

	last := m.inputs[len(m.inputs)-1]
	// system + two windowed history messages + the new user turn
	require.Len(t, last, 4)
	assert.Equal(t, "one", last[1].Content)
	assert.Equal(t, schema.Assistant, last[2].Role)
	assert.Equal(t, "two", last[3].Content)
}

func TestSendTurnRebuildsUnknownConversation(t *testing.T) {
	m := &scriptedModel{}
	svc := newTestService(t, m, 10)

	reply, err := svc.SendTurn(context.Background(), transport.TurnRequest{
		Lead:           lead.Lead{Name: "Cy"},
		Language:       i18n.PT,
		ConversationID: "restored",
		Text:           "oi",
	})
	require.NoError(t, err)
	assert.Equal(t, "restored", reply.ConversationID)
	assert.True(t, strings.Contains(m.inputs[0][0].Content, "Cy"))

	assert.Equal(t, 1, svc.Len())

	svc.Forget("restored")
	assert.Zero(t, svc.Len())
}

func TestFailedTurnDoesNotStoreConversation(t *testing.T) {
	m := &scriptedModel{err: errors.New("quota exceeded")}
	svc := newTestService(t, m, 10)

	req := transport.TurnRequest{Lead: lead.Lead{Name: "Cy"}, Language: i18n.EN, ConversationID: "gone", Text: "hello"}
	_, err := svc.SendTurn(context.Background(), req)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Zero(t, svc.Len())

	// a forgotten conversation stays forgotten when the late turn fails
	m.err = nil
	m.replies = []string{"hi Cy", " "}
	_, err = svc.SendTurn(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, svc.Len())
	svc.Forget("gone")

	_, err = svc.SendTurn(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, svc.Len())
}

func TestModelFailureIsReturned(t *testing.T) {
	m := &scriptedModel{err: errors.New("quota exceeded")}
	svc := newTestService(t, m, 10)

	_, err := svc.StartConversation(context.Background(), transport.StartRequest{Lead: lead.Lead{Name: "Ana"}, Language: i18n.EN})
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Zero(t, svc.Len())
}

func TestEmptyReplyIsNotRemembered(t *testing.T) {
	m := &scriptedModel{replies: []string{"hi", "  ", "next"}}
	svc := newTestService(t, m, 10)

	start, err := svc.StartConversation(context.Background(), transport.StartRequest{Lead: lead.Lead{Name: "Ana"}, Language: i18n.EN, Seed: "seed"})
	require.NoError(t, err)

	reply, err := svc.SendTurn(context.Background(), transport.TurnRequest{ConversationID: start.ConversationID, Text: "lost"})
	require.NoError(t, err)
	assert.Equal(t, "  ", reply.Text)

	_, err = svc.SendTurn(context.Background(), transport.TurnRequest{ConversationID: start.ConversationID, Text: "again"})
	require.NoError(t, err)
	// system, seed, hi, again
	assert.Len(t, m.inputs[2], 4)
}

func TestPromptBuilderDefaultsAndFallback(t *testing.T) {
	b := NewPromptBuilder("", "")
	prompt := b.Build(i18n.Language("fr"), "Zoé")
	assert.Contains(t, prompt, "Lox")
	assert.Contains(t, prompt, "DevCore Group")
	assert.Contains(t, prompt, "Zoé")
	assert.Contains(t, prompt, i18n.Text(i18n.HandoffEmailButton, i18n.EN))
	assert.Contains(t, prompt, "{email}")
}
