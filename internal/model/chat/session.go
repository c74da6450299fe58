package chat

import (
	"time"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
)

// FlowState gates what the next user input means.
type FlowState string

const (
	// StateLeadForm is the implicit phase before a lead is accepted.
	StateLeadForm      FlowState = "lead_form"
	StateChatting      FlowState = "chatting"
	StateAwaitingEmail FlowState = "awaiting_email"
	StateCompleted     FlowState = "completed"
)

// Session is a point-in-time copy of one visitor's conversation.
type Session struct {
	ID             string        `json:"id"`
	Language       i18n.Language `json:"language,omitempty"`
	State          FlowState     `json:"state"`
	Lead           *lead.Lead    `json:"lead,omitempty"`
	ConversationID string        `json:"conversationId,omitempty"`
	Messages       []Message     `json:"messages"`
	Busy           bool          `json:"busy"`
	CreatedAt      time.Time     `json:"createdAt"`
}
