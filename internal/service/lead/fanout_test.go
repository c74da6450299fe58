package lead

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
)

type mockLeads struct {
	mock.Mock
}

func (m *mockLeads) PersistLead(ctx context.Context, l lead.Lead) (string, error) {
	args := m.Called(ctx, l)
	return args.String(0), args.Error(1)
}

func (m *mockLeads) PersistTranscript(ctx context.Context, l lead.Lead, messages []chat.Message) error {
	return m.Called(ctx, l, messages).Error(0)
}

func TestFanoutRequiresSink(t *testing.T) {
	_, err := NewFanout(nil)
	assert.Error(t, err)
}

func TestSecondariesNeverSeePrimaryID(t *testing.T) {
	backend, postgres := new(mockLeads), new(mockLeads)
	l := lead.Lead{Name: "Ana", ContactMethod: lead.WhatsApp, ContactInfo: "+1234567890"}

	backend.On("PersistLead", mock.Anything, l).Return("5", nil)
	postgres.On("PersistLead", mock.Anything, l).Return("91", nil)

	f, err := NewFanout(nil, Sink{Name: "backend", Leads: backend}, Sink{Name: "postgres", Leads: postgres})
	require.NoError(t, err)

	id, err := f.PersistLead(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "5", id)

	// the session now carries the backend id; postgres must still match by contact
	l.ID = id
	msgs := []chat.Message{{ID: "bot-1", Sender: chat.SenderBot, Text: "hi Ana"}}
	stripped := l
	stripped.ID = ""
	backend.On("PersistTranscript", mock.Anything, l, msgs).Return(nil)
	postgres.On("PersistTranscript", mock.Anything, stripped, msgs).Return(nil)

	require.NoError(t, f.PersistTranscript(context.Background(), l, msgs))

	// handoff rewrite keeps the backend id for the primary only
	l.ContactMethod, l.ContactInfo = lead.Email, "ana@example.com"
	stripped = l
	stripped.ID = ""
	backend.On("PersistLead", mock.Anything, l).Return("5", nil)
	postgres.On("PersistLead", mock.Anything, stripped).Return("92", nil)

	id, err = f.PersistLead(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "5", id)

	backend.AssertExpectations(t)
	postgres.AssertExpectations(t)
	for _, call := range postgres.Calls {
		got := call.Arguments.Get(1).(lead.Lead)
		assert.Empty(t, got.ID, "postgres received a foreign id in %s", call.Method)
	}
}

func TestSecondaryFailureIsLogged(t *testing.T) {
	primary, secondary := new(mockLeads), new(mockLeads)
	l := lead.Lead{Name: "Ana", ContactMethod: lead.WhatsApp, ContactInfo: "+1"}

	primary.On("PersistLead", mock.Anything, l).Return("7", nil)
	secondary.On("PersistLead", mock.Anything, l).Return("", errors.New("broker down"))

	logger, hook := test.NewNullLogger()
	f, err := NewFanout(logger, Sink{Name: "backend", Leads: primary}, Sink{Name: "queue", Leads: secondary})
	require.NoError(t, err)
	assert.Equal(t, []string{"backend", "queue"}, f.Names())

	id, err := f.PersistLead(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
	assert.Equal(t, "queue", hook.LastEntry().Data["sink"])
}

func TestPrimaryFailureStopsFanout(t *testing.T) {
	primary, secondary := new(mockLeads), new(mockLeads)
	primary.On("PersistLead", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	f, err := NewFanout(nil, Sink{Name: "backend", Leads: primary}, Sink{Name: "log", Leads: secondary})
	require.NoError(t, err)

	_, err = f.PersistLead(context.Background(), lead.Lead{Name: "Ana"})
	assert.ErrorContains(t, err, "backend: timeout")
	secondary.AssertNotCalled(t, "PersistLead", mock.Anything, mock.Anything)
}

func TestTranscriptReachesEverySink(t *testing.T) {
	primary, secondary := new(mockLeads), new(mockLeads)
	primary.On("PersistTranscript", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("gone"))
	secondary.On("PersistTranscript", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	f, err := NewFanout(nil, Sink{Name: "webhook", Leads: primary}, Sink{Name: "postgres", Leads: secondary})
	require.NoError(t, err)

	err = f.PersistTranscript(context.Background(), lead.Lead{Name: "Ana"}, nil)
	assert.ErrorContains(t, err, "webhook")
	secondary.AssertExpectations(t)
}

func TestLogSink(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := LogSink{Log: logger}

	id, err := sink.PersistLead(context.Background(), lead.Lead{Name: "Ana", ContactMethod: lead.Phone, ContactInfo: "123"})
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, "phone: 123", hook.LastEntry().Data["contact"])
}
