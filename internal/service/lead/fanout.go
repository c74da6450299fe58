// Package lead fans lead persistence out to every configured collector.
package lead

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

// Sink is a named collector.
type Sink struct {
	Name  string
	Leads transport.Leads
}

// Fanout writes to the primary sink first; its id and error are what the
// caller sees. Secondary sinks are best-effort and only logged, and never see
// the primary's id.
type Fanout struct {
	primary     Sink
	secondaries []Sink
	log         logrus.FieldLogger
}

var _ transport.Leads = (*Fanout)(nil)

// NewFanout returns an error when no sink is given.
func NewFanout(logger logrus.FieldLogger, sinks ...Sink) (*Fanout, error) {
	if len(sinks) == 0 {
		return nil, fmt.Errorf("lead fanout: at least one sink is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Fanout{
		primary:     sinks[0],
		secondaries: sinks[1:],
		log:         logger.WithField("component", "leads"),
	}, nil
}

// Names lists the sinks in order.
func (f *Fanout) Names() []string {
	names := []string{f.primary.Name}
	for _, s := range f.secondaries {
		names = append(names, s.Name)
	}
	return names
}

func (f *Fanout) PersistLead(ctx context.Context, l lead.Lead) (string, error) {
	id, err := f.primary.Leads.PersistLead(ctx, l)
	if err != nil {
		return "", fmt.Errorf("%s: %w", f.primary.Name, err)
	}

	foreign := withoutID(l)
	for _, s := range f.secondaries {
		if _, err := s.Leads.PersistLead(ctx, foreign); err != nil {
			f.log.WithError(err).WithField("sink", s.Name).Warn("secondary lead sink failed")
		}
	}
	return id, nil
}

func (f *Fanout) PersistTranscript(ctx context.Context, l lead.Lead, messages []chat.Message) error {
	err := f.primary.Leads.PersistTranscript(ctx, l, messages)
	foreign := withoutID(l)
	for _, s := range f.secondaries {
		if serr := s.Leads.PersistTranscript(ctx, foreign, messages); serr != nil {
			f.log.WithError(serr).WithField("sink", s.Name).Warn("secondary transcript sink failed")
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", f.primary.Name, err)
	}
	return nil
}

// withoutID strips the primary's id. Ids are only meaningful to the sink that
// issued them, so secondaries match the lead by contact.
func withoutID(l lead.Lead) lead.Lead {
	l.ID = ""
	return l
}

// LogSink writes leads and transcripts to the structured log only.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s LogSink) PersistLead(_ context.Context, l lead.Lead) (string, error) {
	s.Log.WithFields(logrus.Fields{
		"name":    l.Name,
		"contact": l.ContactIdentifier(),
	}).Info("lead captured")
	return "", nil
}

func (s LogSink) PersistTranscript(_ context.Context, l lead.Lead, messages []chat.Message) error {
	s.Log.WithFields(logrus.Fields{
		"contact":  l.ContactIdentifier(),
		"messages": len(messages),
	}).Debug("conversation log")
	return nil
}
