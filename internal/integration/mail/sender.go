// Package mail notifies the sales inbox when a visitor hands off their email.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type HandoffEmailData struct {
	Lead     lead.Lead
	Messages []chat.Message
}

var handoffTemplate = template.Must(template.New("handoff").Parse(`<h2>New lead: {{.Lead.Name}}</h2>
<p><strong>Email:</strong> {{.Lead.ContactInfo}}</p>
{{if .Lead.ID}}<p><strong>Lead id:</strong> {{.Lead.ID}}</p>{{end}}
<h3>Conversation</h3>
<ul>
{{range .Messages}}<li><em>{{.Sender}}</em> ({{.CreatedAt.Format "2006-01-02 15:04"}}): {{.Text}}</li>
{{end}}</ul>
`))

type EmailSender struct {
	dialer Dialer
	from   string
	to     string
}

func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		to:     to,
	}
}

// NewEmailSenderWithDialer is used by tests and custom transports.
func NewEmailSenderWithDialer(d Dialer, from, to string) *EmailSender {
	return &EmailSender{dialer: d, from: from, to: to}
}

// SendHandoff mails the lead with its full transcript.
func (s *EmailSender) SendHandoff(l lead.Lead, messages []chat.Message) error {
	var body bytes.Buffer
	if err := handoffTemplate.Execute(&body, HandoffEmailData{Lead: l, Messages: messages}); err != nil {
		return fmt.Errorf("failed to render handoff email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Reply-To", l.ContactInfo)
	m.SetHeader("Subject", fmt.Sprintf("New proposal request from %s", l.Name))
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send handoff email: %w", err)
	}
	return nil
}
