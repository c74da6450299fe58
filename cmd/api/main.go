package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/config"
	"github.com/devcoregroup/lox/backend/internal/handler"
	"github.com/devcoregroup/lox/backend/internal/handler/health"
	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/integration/backend"
	"github.com/devcoregroup/lox/backend/internal/integration/mail"
	"github.com/devcoregroup/lox/backend/internal/integration/postgres"
	"github.com/devcoregroup/lox/backend/internal/integration/queue"
	"github.com/devcoregroup/lox/backend/internal/integration/webhook"
	"github.com/devcoregroup/lox/backend/internal/logging"
	modelchat "github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/service/ai"
	"github.com/devcoregroup/lox/backend/internal/service/chat"
	"github.com/devcoregroup/lox/backend/internal/service/flow"
	leadService "github.com/devcoregroup/lox/backend/internal/service/lead"
	"github.com/devcoregroup/lox/backend/internal/service/transcript"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Warn("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("failed to configure logging")
	}

	if err := i18n.Verify(); err != nil {
		log.WithError(err).Fatal("locale tables are incomplete")
	}

	chatTransport, forget, err := newChatTransport(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize chat transport")
	}

	infra, err := connectInfra(ctx, cfg.Lead, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect lead infrastructure")
	}
	defer infra.close(log)

	leads, err := newLeadFanout(ctx, cfg, infra, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize lead sinks")
	}
	log.WithField("sinks", leads.Names()).Info("lead sinks configured")

	var notifier transcript.Notifier
	if cfg.Mail.Enabled() {
		notifier = mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.NotifyTo)
		log.WithField("to", cfg.Mail.NotifyTo).Info("handoff email notifications enabled")
	} else {
		log.Info("邮件未配置，跳过转人工邮件通知")
	}

	recorder := transcript.New(leads, notifier, cfg.Lead.TranscriptQueueSize, log)
	recorder.Start(ctx)
	defer recorder.Stop()

	sessions := chat.NewService(flow.Dependencies{
		Chat:     chatTransport,
		Leads:    leads,
		Recorder: recorder,
		Logger:   log,
	}, chat.WithOnDelete(func(s modelchat.Session) {
		if forget != nil && s.ConversationID != "" {
			forget(s.ConversationID)
		}
	}), chat.WithIdleTimeout(cfg.Chat.IdleTimeout))
	defer sessions.Close()
	if cfg.Chat.IdleTimeout > 0 {
		sessions.StartReaper(ctx, min(cfg.Chat.IdleTimeout/2, time.Minute))
		log.WithField("idle_timeout", cfg.Chat.IdleTimeout).Info("idle session expiry enabled")
	}

	healthHandler := &health.Handler{
		Service:   "lox-backend",
		Transport: cfg.Chat.Transport,
		Sinks:     leads.Names(),
		Sessions:  sessions.Len,
		StartTime: time.Now(),
	}
	if infra.db != nil {
		healthHandler.DB = infra.db
	}
	if infra.mq != nil {
		healthHandler.Broker = infra.mq.Conn
	}

	router := handler.NewRouter(handler.Dependencies{
		Logger:         log,
		Sessions:       sessions,
		Health:         healthHandler,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	startServer(ctx, cfg.Server, router, log)
}

// newChatTransport returns the assistant transport and, for the in-process
// assistant, a func that releases a conversation's history.
func newChatTransport(ctx context.Context, cfg *config.Config, log *logrus.Logger) (transport.Chat, func(string), error) {
	switch cfg.Chat.Transport {
	case config.TransportBackend:
		log.WithField("url", cfg.Chat.BackendURL).Info("using remote chat backend")
		return backend.NewClient(cfg.Chat.BackendURL, cfg.Chat.Timeout, log), nil, nil
	default:
		if !cfg.AI.Enabled() {
			return nil, nil, errors.New("ark credentials missing: set ARK_MODEL and ARK_API_KEY, or CHAT_TRANSPORT=backend")
		}
		svc, err := ai.NewService(ctx, cfg.AI, cfg.Brand, log)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("model", cfg.AI.Model).Info("AI service initialized successfully")
		return svc, svc.Forget, nil
	}
}

type infrastructure struct {
	db *sql.DB
	mq *queue.RabbitMQ
}

func connectInfra(ctx context.Context, cfg config.LeadConfig, log *logrus.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	if cfg.Has(config.SinkPostgres) {
		db, err := postgres.NewDBConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		infra.db = db
		log.Info("connected to postgres")
	}

	if cfg.Has(config.SinkQueue) {
		mq, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			infra.close(log)
			return nil, err
		}
		infra.mq = mq
		log.Info("connected to rabbitmq")
	}

	return infra, nil
}

func (i *infrastructure) close(log logrus.FieldLogger) {
	if i.mq != nil {
		if err := i.mq.Close(); err != nil {
			log.WithError(err).Warn("failed to close rabbitmq")
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.WithError(err).Warn("failed to close postgres")
		}
	}
}

// newLeadFanout builds the sinks in LEAD_SINKS order; the first is primary.
func newLeadFanout(ctx context.Context, cfg *config.Config, infra *infrastructure, log *logrus.Logger) (*leadService.Fanout, error) {
	sinks := make([]leadService.Sink, 0, len(cfg.Lead.Sinks))
	for _, name := range cfg.Lead.Sinks {
		var leads transport.Leads
		switch name {
		case config.SinkWebhook:
			hook := webhook.NewClient(cfg.Lead.WebhookURL, cfg.Chat.Timeout, log)
			if !hook.Enabled() {
				log.Warn("webhook url not configured, lead webhook disabled")
			}
			leads = hook
		case config.SinkBackend:
			leads = backend.NewClient(cfg.Chat.BackendURL, cfg.Chat.Timeout, log)
		case config.SinkPostgres:
			repo := postgres.NewLeadRepository(infra.db, log)
			if err := repo.Migrate(ctx); err != nil {
				return nil, err
			}
			leads = repo
		case config.SinkQueue:
			leads = queue.NewProducer(infra.mq.Ch)
		case config.SinkLog:
			leads = leadService.LogSink{Log: log}
		default:
			return nil, fmt.Errorf("unknown lead sink %q", name)
		}
		sinks = append(sinks, leadService.Sink{Name: name, Leads: leads})
	}
	return leadService.NewFanout(log, sinks...)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log logrus.FieldLogger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.WithField("addr", addr).Info("Lox backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.WithError(err).Error("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
