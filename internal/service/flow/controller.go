package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/analysis/suggestion"
	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/metrics"
	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

var (
	ErrBusy              = errors.New("another request is in progress")
	ErrCompleted         = errors.New("conversation completed")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrSuggestionNotLive = errors.New("suggestion is not selectable")
	ErrConnection        = errors.New("connection error")

	// Session errors: the caller invoked an operation out of order.
	ErrLanguageRequired = errors.New("language not selected")
	ErrLanguageLocked   = errors.New("language already selected")
	ErrAlreadyStarted   = errors.New("lead already submitted")
	ErrLeadRequired     = errors.New("lead form not submitted")
	ErrNoConversation   = errors.New("conversation not initialized")
)

// Recorder receives transcript snapshots. Implementations must not block.
type Recorder interface {
	Record(sessionID string, l lead.Lead, messages []chat.Message)
	Handoff(sessionID string, l lead.Lead, messages []chat.Message)
}

// Dependencies wires a Controller to its collaborators.
type Dependencies struct {
	Chat     transport.Chat
	Leads    transport.Leads
	Recorder Recorder
	Logger   logrus.FieldLogger
	Now      func() time.Time
	NewID    func() string
}

// LeadForm is the raw lead form submission.
type LeadForm struct {
	Name          string
	ContactMethod lead.ContactMethod
	ContactInfo   string
}

// Controller owns one visitor session and runs its conversation flow.
// At most one turn runs at a time; a concurrent call fails with ErrBusy.
type Controller struct {
	id        string
	deps      Dependencies
	log       logrus.FieldLogger
	createdAt time.Time

	busy       atomic.Bool
	lastActive atomic.Int64

	mu             sync.RWMutex
	language       i18n.Language
	state          chat.FlowState
	lead           *lead.Lead
	conversationID string
	messages       []chat.Message

	subMu  sync.Mutex
	subs   map[int]chan chat.Session
	nextID int
	closed bool
}

// New creates a controller in the lead form phase.
func New(id string, deps Dependencies) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	c := &Controller{
		id:        id,
		deps:      deps,
		log:       deps.Logger.WithFields(logrus.Fields{"component": "flow", "session": id}),
		createdAt: deps.Now().UTC(),
		state:     chat.StateLeadForm,
		messages:  make([]chat.Message, 0, 16),
		subs:      make(map[int]chan chat.Session),
	}
	c.lastActive.Store(c.createdAt.UnixNano())
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// LastActive reports when the visitor last acted on the session.
func (c *Controller) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load()).UTC()
}

// Busy reports whether a turn is running.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

func (c *Controller) touch() {
	c.lastActive.Store(c.deps.Now().UnixNano())
}

// SelectLanguage stores the session language. It can be chosen only once.
func (c *Controller) SelectLanguage(lang i18n.Language) error {
	c.touch()
	c.mu.Lock()
	if c.language != "" {
		c.mu.Unlock()
		if c.language == lang {
			return nil
		}
		return ErrLanguageLocked
	}
	c.language = lang
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

// SubmitLead validates the form, persists the lead and opens the conversation.
// The phase only leaves the lead form once both calls succeed.
func (c *Controller) SubmitLead(ctx context.Context, form LeadForm) error {
	if !c.begin() {
		return ErrBusy
	}
	defer c.release()

	c.mu.RLock()
	lang, state := c.language, c.state
	c.mu.RUnlock()

	if lang == "" {
		return ErrLanguageRequired
	}
	if state != chat.StateLeadForm {
		return ErrAlreadyStarted
	}
	if err := lead.Validate(form.Name, form.ContactMethod, form.ContactInfo); err != nil {
		return err
	}

	candidate := lead.Lead{
		Name:          strings.TrimSpace(form.Name),
		ContactMethod: form.ContactMethod,
		ContactInfo:   strings.TrimSpace(form.ContactInfo),
	}

	id, err := c.deps.Leads.PersistLead(ctx, candidate)
	if err != nil {
		return c.fail(lang, i18n.ChatStartError, "leads", err)
	}
	candidate.ID = id

	seed := i18n.Format(i18n.InitialBotMessageSeed, lang, map[string]string{"name": candidate.Name})
	reply, err := c.deps.Chat.StartConversation(ctx, transport.StartRequest{
		Lead:     candidate,
		Language: lang,
		Seed:     seed,
	})
	if err != nil {
		return c.fail(lang, i18n.ChatStartError, "chat", err)
	}

	c.mu.Lock()
	c.lead = &candidate
	c.conversationID = reply.ConversationID
	c.state = chat.StateChatting
	c.appendLocked(chat.SenderBot, c.replyText(reply, lang))
	snap := c.snapshotLocked()
	c.mu.Unlock()

	metrics.RecordLeadCaptured(string(candidate.ContactMethod))
	c.log.WithField("method", candidate.ContactMethod).Info("lead accepted, conversation started")
	c.changed(snap)
	return nil
}

// Send handles a typed user message.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if !c.begin() {
		return ErrBusy
	}
	defer c.release()

	return c.turn(ctx, text)
}

// ChooseSuggestion sends a suggestion label as the user's next message. Only a
// label of the live message is accepted; anything else has no effect.
func (c *Controller) ChooseSuggestion(ctx context.Context, messageID, label string) error {
	if !c.begin() {
		return ErrBusy
	}
	defer c.release()

	c.mu.RLock()
	idx := suggestion.LiveIndex(c.messages, c.state == chat.StateCompleted)
	live := idx >= 0 && c.messages[idx].ID == messageID && suggestion.Contains(c.messages[idx].Text, label)
	c.mu.RUnlock()

	if !live {
		return ErrSuggestionNotLive
	}
	return c.turn(ctx, label)
}

func (c *Controller) turn(ctx context.Context, text string) error {
	c.mu.Lock()
	switch c.state {
	case chat.StateLeadForm:
		c.mu.Unlock()
		return ErrLeadRequired
	case chat.StateCompleted:
		c.mu.Unlock()
		return ErrCompleted
	}

	state, lang, convID := c.state, c.language, c.conversationID
	current := *c.lead
	c.appendLocked(chat.SenderUser, text)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.changed(snap)

	switch {
	case state == chat.StateAwaitingEmail:
		return c.collectEmail(ctx, current, lang, convID, text)
	case i18n.IsHandoffTrigger(text) && current.ContactMethod != lead.Email:
		c.mu.Lock()
		c.state = chat.StateAwaitingEmail
		c.appendLocked(chat.SenderBot, i18n.Format(i18n.RequestEmailPrompt, lang, map[string]string{"name": current.Name}))
		snap = c.snapshotLocked()
		c.mu.Unlock()

		c.log.Info("handoff requested, awaiting email")
		c.changed(snap)
		return nil
	}

	if convID == "" {
		c.log.Error("turn requested without an open conversation")
		return ErrNoConversation
	}

	reply, err := c.deps.Chat.SendTurn(ctx, transport.TurnRequest{
		Lead:           current,
		Language:       lang,
		ConversationID: convID,
		Text:           text,
	})
	if err != nil {
		return c.fail(lang, i18n.AssistantError, "chat", err)
	}

	c.mu.Lock()
	if reply.ConversationID != "" {
		c.conversationID = reply.ConversationID
	}
	c.appendLocked(chat.SenderBot, c.replyText(reply, lang))
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.changed(snap)
	return nil
}

func (c *Controller) collectEmail(ctx context.Context, current lead.Lead, lang i18n.Language, convID, text string) error {
	if !lead.IsEmail(text) {
		c.mu.Lock()
		c.appendLocked(chat.SenderBot, i18n.Text(i18n.ErrorInvalidEmail, lang))
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.changed(snap)
		return nil
	}

	updated := current
	updated.ContactMethod = lead.Email
	updated.ContactInfo = text

	id, err := c.deps.Leads.PersistLead(ctx, updated)
	if err != nil {
		return c.fail(lang, i18n.AssistantError, "leads", err)
	}
	if updated.ID == "" {
		updated.ID = id
	}

	c.mu.Lock()
	c.lead = &updated
	c.mu.Unlock()

	if convID == "" {
		c.log.Error("final message requested without an open conversation")
		return ErrNoConversation
	}

	trigger := i18n.Format(i18n.TriggerFinalMessage, lang, map[string]string{
		"name":  updated.Name,
		"email": text,
	})
	reply, err := c.deps.Chat.SendTurn(ctx, transport.TurnRequest{
		Lead:           updated,
		Language:       lang,
		ConversationID: convID,
		Text:           trigger,
	})
	if err != nil {
		return c.fail(lang, i18n.AssistantError, "chat", err)
	}

	c.mu.Lock()
	c.state = chat.StateCompleted
	c.appendLocked(chat.SenderBot, c.replyText(reply, lang))
	snap := c.snapshotLocked()
	c.mu.Unlock()

	metrics.RecordHandoff()
	c.log.Info("email captured, conversation completed")
	// the handoff job persists the final transcript, so no separate record
	c.publish(snap)
	if c.deps.Recorder != nil {
		c.deps.Recorder.Handoff(c.id, updated, snap.Messages)
	}
	return nil
}

// fail appends the localized error bubble and reports a connection error.
// The flow state is left untouched.
func (c *Controller) fail(lang i18n.Language, key i18n.Key, name string, cause error) error {
	metrics.RecordTransportError(name)
	c.log.WithError(cause).WithField("transport", name).Warn("transport call failed")

	c.mu.Lock()
	c.appendLocked(chat.SenderBot, i18n.Text(key, lang))
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.changed(snap)
	return fmt.Errorf("%w: %s: %w", ErrConnection, name, cause)
}

func (c *Controller) replyText(reply transport.Reply, lang i18n.Language) string {
	if strings.TrimSpace(reply.Text) == "" {
		return i18n.Text(i18n.ConnectionError, lang)
	}
	return reply.Text
}

// appendLocked adds a message with a timestamp strictly after the previous one.
func (c *Controller) appendLocked(sender chat.Sender, text string) chat.Message {
	now := c.deps.Now().UTC()
	if n := len(c.messages); n > 0 && !now.After(c.messages[n-1].CreatedAt) {
		now = c.messages[n-1].CreatedAt.Add(time.Nanosecond)
	}

	msg := chat.Message{
		ID:        fmt.Sprintf("%s-%s", sender, c.deps.NewID()),
		Sender:    sender,
		Text:      text,
		CreatedAt: now,
	}
	c.messages = append(c.messages, msg)
	return msg
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() chat.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() chat.Session {
	snap := chat.Session{
		ID:             c.id,
		Language:       c.language,
		State:          c.state,
		ConversationID: c.conversationID,
		Messages:       append([]chat.Message(nil), c.messages...),
		Busy:           c.busy.Load(),
		CreatedAt:      c.createdAt,
	}
	if c.lead != nil {
		l := *c.lead
		snap.Lead = &l
	}
	return snap
}

func (c *Controller) begin() bool {
	c.touch()
	if !c.busy.CompareAndSwap(false, true) {
		return false
	}
	c.publish(c.Snapshot())
	return true
}

func (c *Controller) release() {
	c.touch()
	c.busy.Store(false)
	c.publish(c.Snapshot())
}

// changed fans a message-list change out to the recorder and subscribers.
func (c *Controller) changed(snap chat.Session) {
	if c.deps.Recorder != nil && snap.Lead != nil && len(snap.Messages) > 0 {
		c.deps.Recorder.Record(c.id, *snap.Lead, snap.Messages)
	}
	c.publish(snap)
}
