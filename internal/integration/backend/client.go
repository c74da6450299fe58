// Package backend talks to the remote lead/chat API: leads are stored under
// /users/ and every chat turn goes through /chat/send-message, which also
// records the messages on the server side.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

const serviceName = "backend"

type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

var (
	_ transport.Chat  = (*Client)(nil)
	_ transport.Leads = (*Client)(nil)
)

func NewClient(baseURL string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger.WithField("component", "backend"),
	}
}

type userRequest struct {
	Name          string `json:"name"`
	ContactMethod string `json:"contact_method"`
	ContactInfo   string `json:"contact_info"`
}

type userResponse struct {
	ID flexID `json:"id"`
}

type chatRequest struct {
	Message        string `json:"message"`
	UserID         any    `json:"user_id"`
	Language       string `json:"language"`
	ConversationID any    `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID flexID `json:"conversation_id"`
	MessageID      flexID `json:"message_id"`
}

// PersistLead creates the user record and returns its id.
func (c *Client) PersistLead(ctx context.Context, l lead.Lead) (string, error) {
	var out userResponse
	err := c.post(ctx, "/users/", userRequest{
		Name:          l.Name,
		ContactMethod: string(l.ContactMethod),
		ContactInfo:   l.ContactInfo,
	}, &out)
	if err != nil {
		return "", err
	}

	c.log.WithField("lead_id", out.ID).Info("lead saved")
	return string(out.ID), nil
}

// PersistTranscript is a no-op: the API stores every message it relays.
func (c *Client) PersistTranscript(context.Context, lead.Lead, []chat.Message) error {
	return nil
}

// StartConversation sends the seed without a conversation id so the server
// opens a new one.
func (c *Client) StartConversation(ctx context.Context, req transport.StartRequest) (transport.Reply, error) {
	return c.send(ctx, req.Lead, string(req.Language), "", req.Seed)
}

func (c *Client) SendTurn(ctx context.Context, req transport.TurnRequest) (transport.Reply, error) {
	return c.send(ctx, req.Lead, string(req.Language), req.ConversationID, req.Text)
}

func (c *Client) send(ctx context.Context, l lead.Lead, language, conversationID, text string) (transport.Reply, error) {
	if l.ID == "" {
		return transport.Reply{}, fmt.Errorf("%s: lead has no id", serviceName)
	}

	body := chatRequest{
		Message:  text,
		UserID:   numericOrString(l.ID),
		Language: language,
	}
	if conversationID != "" {
		body.ConversationID = numericOrString(conversationID)
	}

	var out chatResponse
	if err := c.post(ctx, "/chat/send-message", body, &out); err != nil {
		return transport.Reply{}, err
	}

	return transport.Reply{
		ConversationID: string(out.ConversationID),
		MessageID:      string(out.MessageID),
		Text:           out.Response,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	if c.baseURL == "" {
		return transport.ErrNotConfigured
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", serviceName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", serviceName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", serviceName, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", serviceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &transport.StatusError{Service: serviceName, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", serviceName, err)
	}
	return nil
}

// flexID accepts both numeric and string ids.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

func numericOrString(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
