// Package view turns a session snapshot into the localized, render-ready model
// the widget clients draw: language selector, lead form and message thread.
package view

import (
	"bytes"
	"html"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/devcoregroup/lox/backend/internal/analysis/suggestion"
	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
)

// Stage is the screen a client should show.
type Stage string

const (
	StageLanguage      Stage = "language"
	StageLeadForm      Stage = "lead_form"
	StageChatting      Stage = "chatting"
	StageAwaitingEmail Stage = "awaiting_email"
	StageCompleted     Stage = "completed"
)

type View struct {
	SessionID string            `json:"sessionId"`
	Stage     Stage             `json:"stage"`
	Language  i18n.Language     `json:"language,omitempty"`
	Busy      bool              `json:"busy"`
	Header    Header            `json:"header"`
	Selector  *LanguageSelector `json:"languageSelector,omitempty"`
	Form      *Form             `json:"form,omitempty"`
	Chat      *Chat             `json:"chat,omitempty"`
	Error     *Error            `json:"error,omitempty"`
}

type Header struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type LanguageSelector struct {
	Prompt  string           `json:"prompt"`
	Options []LanguageOption `json:"options"`
}

type LanguageOption struct {
	Code i18n.Language `json:"code"`
	Name string        `json:"name"`
}

type Form struct {
	Title           string          `json:"title"`
	Subtitle        string          `json:"subtitle"`
	NamePlaceholder string          `json:"namePlaceholder"`
	ContactPrompt   string          `json:"contactPrompt"`
	SubmitLabel     string          `json:"submitLabel"`
	ChangeLabel     string          `json:"changeLabel"`
	Methods         []ContactMethod `json:"contactMethods"`
}

type ContactMethod struct {
	Value       lead.ContactMethod `json:"value"`
	Placeholder string             `json:"placeholder"`
	InputType   string             `json:"inputType"`
}

type Chat struct {
	BotName          string    `json:"botName"`
	Messages         []Message `json:"messages"`
	InputPlaceholder string    `json:"inputPlaceholder"`
	InputDisabled    bool      `json:"inputDisabled"`
}

type Message struct {
	ID          string       `json:"id"`
	Sender      chat.Sender  `json:"sender"`
	Text        string       `json:"text"`
	HTML        string       `json:"html"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type Suggestion struct {
	Label string `json:"label"`
	Live  bool   `json:"live"`
}

// Error is a localized, user-facing failure attached to a view.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Build renders snap. Before a language is chosen the English strings are
// used for the header.
func Build(snap chat.Session) View {
	lang := snap.Language
	textLang := lang
	if textLang == "" {
		textLang = i18n.EN
	}

	v := View{
		SessionID: snap.ID,
		Stage:     stageOf(snap),
		Language:  lang,
		Busy:      snap.Busy,
		Header: Header{
			Title:    i18n.Text(i18n.HeaderTitle, textLang),
			Subtitle: i18n.Text(i18n.HeaderSubtitle, textLang),
		},
	}

	switch v.Stage {
	case StageLanguage:
		v.Selector = languageSelector()
	case StageLeadForm:
		v.Form = form(lang, snap.Busy)
	}

	if v.Stage != StageLanguage && (snap.Lead != nil || len(snap.Messages) > 0) {
		v.Chat = thread(snap, lang)
	}
	return v
}

// WithError attaches a localized error message.
func WithError(v View, code string, key i18n.Key) View {
	lang := v.Language
	if lang == "" {
		lang = i18n.EN
	}
	return WithMessage(v, code, i18n.Text(key, lang))
}

// WithMessage attaches an error with a literal message.
func WithMessage(v View, code, message string) View {
	v.Error = &Error{Code: code, Message: message}
	return v
}

func stageOf(snap chat.Session) Stage {
	if snap.Language == "" {
		return StageLanguage
	}
	switch snap.State {
	case chat.StateChatting:
		return StageChatting
	case chat.StateAwaitingEmail:
		return StageAwaitingEmail
	case chat.StateCompleted:
		return StageCompleted
	default:
		return StageLeadForm
	}
}

func languageSelector() *LanguageSelector {
	sel := &LanguageSelector{Prompt: i18n.Text(i18n.LanguageSelectorPrompt, i18n.EN)}
	for _, l := range i18n.Languages() {
		sel.Options = append(sel.Options, LanguageOption{Code: l, Name: l.DisplayName()})
	}
	return sel
}

func form(lang i18n.Language, busy bool) *Form {
	submit := i18n.StartChatButton
	if busy {
		submit = i18n.ConnectingButton
	}

	f := &Form{
		Title:           i18n.Text(i18n.LeadFormTitle, lang),
		Subtitle:        i18n.Text(i18n.LeadFormSubtitle, lang),
		NamePlaceholder: i18n.Text(i18n.NamePlaceholder, lang),
		ContactPrompt:   i18n.Text(i18n.ContactPrompt, lang),
		SubmitLabel:     i18n.Text(submit, lang),
		ChangeLabel:     i18n.Text(i18n.ChangeButtonText, lang),
	}
	for _, m := range lead.ContactMethods() {
		f.Methods = append(f.Methods, ContactMethod{
			Value:       m,
			Placeholder: i18n.Text(m.PlaceholderKey(), lang),
			InputType:   m.InputType(),
		})
	}
	return f
}

func thread(snap chat.Session, lang i18n.Language) *Chat {
	completed := snap.State == chat.StateCompleted
	live := suggestion.LiveIndex(snap.Messages, completed)

	c := &Chat{
		BotName:          i18n.Text(i18n.BotName, lang),
		Messages:         make([]Message, 0, len(snap.Messages)),
		InputPlaceholder: i18n.Text(i18n.ChatInputPlaceholder, lang),
		InputDisabled:    snap.Busy || completed || snap.State == chat.StateLeadForm,
	}
	if completed {
		c.InputPlaceholder = i18n.Text(i18n.ChatEndedPlaceholder, lang)
	}

	for i, m := range snap.Messages {
		c.Messages = append(c.Messages, message(m, i == live))
	}
	return c
}

func message(m chat.Message, live bool) Message {
	out := Message{ID: m.ID, Sender: m.Sender, Text: m.Text, CreatedAt: m.CreatedAt}

	if !m.IsBot() {
		out.HTML = html.EscapeString(m.Text)
		return out
	}

	text, labels := suggestion.Extract(m.Text)
	out.Text = text
	out.HTML = Markdown(text)
	for _, l := range labels {
		out.Suggestions = append(out.Suggestions, Suggestion{Label: l, Live: live})
	}
	return out
}

// Markdown renders GFM to HTML. Raw HTML in the source is not passed through.
func Markdown(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return html.EscapeString(src)
	}
	return buf.String()
}
