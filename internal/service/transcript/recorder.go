// Package transcript persists conversation snapshots in the background so the
// chat flow never waits on a collector.
package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/metrics"
	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

// Notifier is told about completed handoffs, e.g. by email.
type Notifier interface {
	SendHandoff(l lead.Lead, messages []chat.Message) error
}

type jobKind int

const (
	jobRecord jobKind = iota
	jobHandoff
)

type job struct {
	kind      jobKind
	sessionID string
	lead      lead.Lead
	messages  []chat.Message
}

// Recorder implements flow.Recorder over a bounded queue and one worker.
// When the queue is full the snapshot is dropped and counted.
type Recorder struct {
	leads    transport.Leads
	notifier Notifier
	timeout  time.Duration
	log      logrus.FieldLogger

	queue  chan job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped recorder. notifier may be nil.
func New(leads transport.Leads, notifier Notifier, size int, logger logrus.FieldLogger) *Recorder {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Recorder{
		leads:    leads,
		notifier: notifier,
		timeout:  15 * time.Second,
		log:      logger.WithField("component", "transcript"),
		queue:    make(chan job, size),
	}
}

// Start launches the worker. It stops when ctx is cancelled or Stop is called.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run(ctx)
}

// Stop drains what is already queued and waits for the worker.
func (r *Recorder) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Recorder) Record(sessionID string, l lead.Lead, messages []chat.Message) {
	r.enqueue(job{kind: jobRecord, sessionID: sessionID, lead: l, messages: messages})
}

func (r *Recorder) Handoff(sessionID string, l lead.Lead, messages []chat.Message) {
	r.enqueue(job{kind: jobHandoff, sessionID: sessionID, lead: l, messages: messages})
}

func (r *Recorder) enqueue(j job) {
	select {
	case r.queue <- j:
	default:
		metrics.RecordTranscriptDropped()
		r.log.WithField("session", j.sessionID).Warn("transcript queue full, snapshot dropped")
	}
}

func (r *Recorder) run(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case j := <-r.queue:
			r.process(context.WithoutCancel(ctx), j)
		case <-ctx.Done():
			for {
				select {
				case j := <-r.queue:
					r.process(context.WithoutCancel(ctx), j)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) process(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	entry := r.log.WithFields(logrus.Fields{"session": j.sessionID, "messages": len(j.messages)})

	if err := r.leads.PersistTranscript(ctx, j.lead, j.messages); err != nil {
		entry.WithError(err).Warn("failed to persist transcript")
	}

	if j.kind != jobHandoff || r.notifier == nil {
		return
	}
	if err := r.notifier.SendHandoff(j.lead, j.messages); err != nil {
		entry.WithError(err).Error("failed to send handoff notification")
		return
	}
	entry.Info("handoff notification sent")
}
