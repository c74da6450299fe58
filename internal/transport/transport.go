// Package transport declares the contracts of the external collaborators the
// conversation flow talks to: the assistant and the lead collector.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
)

// ErrNotConfigured is returned by adapters whose endpoint is missing.
var ErrNotConfigured = errors.New("transport not configured")

// StartRequest opens a conversation with the assistant.
type StartRequest struct {
	Lead     lead.Lead
	Language i18n.Language
	Seed     string
}

// TurnRequest sends one more turn on an open conversation.
type TurnRequest struct {
	Lead           lead.Lead
	Language       i18n.Language
	ConversationID string
	Text           string
}

// Reply is the assistant's answer to a start or turn request.
type Reply struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId,omitempty"`
	Text           string `json:"text"`
}

// Chat talks to the assistant, directly or through a remote backend.
type Chat interface {
	StartConversation(ctx context.Context, req StartRequest) (Reply, error)
	SendTurn(ctx context.Context, req TurnRequest) (Reply, error)
}

// Leads persists captured contacts and transcripts to a remote collector.
// PersistLead returns the collector-assigned id, which may be empty.
type Leads interface {
	PersistLead(ctx context.Context, l lead.Lead) (string, error)
	PersistTranscript(ctx context.Context, l lead.Lead, messages []chat.Message) error
}

// StatusError is returned when a remote collaborator answers with a non-2xx status.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Status, e.Body)
}
