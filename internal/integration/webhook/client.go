// Package webhook forwards leads and transcripts to an n8n automation webhook.
// Delivery is best-effort: failures are logged and never reach the caller.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

// Event types understood by the automation.
const (
	EventLeadCapture     = "LEAD_CAPTURE"
	EventConversationLog = "CONVERSATION_LOG"
)

const placeholderHost = "YOUR_N8N_INSTANCE"

type Client struct {
	url  string
	http *http.Client
	log  logrus.FieldLogger
}

var _ transport.Leads = (*Client)(nil)

func NewClient(url string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		url:  strings.TrimSpace(url),
		http: &http.Client{Timeout: timeout},
		log:  logger.WithField("component", "webhook"),
	}
}

// Enabled reports whether a real webhook url is configured.
func (c *Client) Enabled() bool {
	return c.url != "" && !strings.Contains(c.url, placeholderHost)
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type conversationLog struct {
	User     lead.Lead      `json:"user"`
	Messages []chat.Message `json:"messages"`
}

// PersistLead posts a LEAD_CAPTURE event. The webhook assigns no id.
func (c *Client) PersistLead(ctx context.Context, l lead.Lead) (string, error) {
	if !c.Enabled() {
		c.log.Warn("webhook url is a placeholder, lead not sent")
		return "", nil
	}
	if err := c.post(ctx, envelope{Type: EventLeadCapture, Data: l}); err != nil {
		c.log.WithError(err).Error("failed to send lead to webhook")
	}
	return "", nil
}

// PersistTranscript posts a CONVERSATION_LOG event with the full thread.
func (c *Client) PersistTranscript(ctx context.Context, l lead.Lead, messages []chat.Message) error {
	if !c.Enabled() {
		return nil
	}
	err := c.post(ctx, envelope{Type: EventConversationLog, Data: conversationLog{User: l, Messages: messages}})
	if err != nil {
		c.log.WithError(err).WithField("contact", l.ContactIdentifier()).Error("failed to send conversation to webhook")
	}
	return nil
}

func (c *Client) post(ctx context.Context, body envelope) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", body.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &transport.StatusError{Service: "webhook", Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return nil
}
