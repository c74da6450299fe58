package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/config"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

const defaultHistoryLimit = 20

// Service 是托管助手的对话传输实现：每个会话保存自己的系统提示词与历史，
// 每一轮通过 eino chain 调用模型。
type Service struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	prompts      *PromptBuilder
	historyLimit int
	log          logrus.FieldLogger

	mu            sync.Mutex
	conversations map[string]*conversation
}

type conversation struct {
	system  string
	history []*schema.Message
}

var _ transport.Chat = (*Service)(nil)

// NewService creates the Ark backed assistant.
func NewService(ctx context.Context, cfg config.AIConfig, brand config.BrandConfig, logger logrus.FieldLogger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, NewPromptBuilder(brand.AssistantName, brand.CompanyName), cfg.HistoryLimit, logger)
}

// NewServiceWithModel wires an arbitrary chat model into the prompt chain.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, prompts *PromptBuilder, historyLimit int, logger logrus.FieldLogger) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	if historyLimit < 1 {
		historyLimit = defaultHistoryLimit
	}
	if prompts == nil {
		prompts = NewPromptBuilder("", "")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Service{
		chain:         runnable,
		prompts:       prompts,
		historyLimit:  historyLimit,
		log:           logger.WithField("component", "ai"),
		conversations: make(map[string]*conversation),
	}, nil
}

// StartConversation opens a new conversation and returns the greeting.
func (s *Service) StartConversation(ctx context.Context, req transport.StartRequest) (transport.Reply, error) {
	conv := &conversation{system: s.prompts.Build(req.Language, req.Lead.Name)}
	id := uuid.NewString()

	reply, err := s.generate(ctx, conv, req.Seed)
	if err != nil {
		return transport.Reply{}, err
	}

	s.mu.Lock()
	s.conversations[id] = conv
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"conversation": id, "language": req.Language, "length": len(reply.Content)}).Info("conversation started")
	return transport.Reply{ConversationID: id, MessageID: replyID(reply), Text: reply.Content}, nil
}

// SendTurn continues an existing conversation. An unknown id is rebuilt from
// the request so a restarted process keeps answering; the rebuilt
// conversation is only kept once the model has answered.
func (s *Service) SendTurn(ctx context.Context, req transport.TurnRequest) (transport.Reply, error) {
	s.mu.Lock()
	conv, ok := s.conversations[req.ConversationID]
	s.mu.Unlock()
	if !ok {
		conv = &conversation{system: s.prompts.Build(req.Language, req.Lead.Name)}
	}

	reply, err := s.generate(ctx, conv, req.Text)
	if err != nil {
		return transport.Reply{}, err
	}
	if !ok && strings.TrimSpace(reply.Content) != "" {
		s.mu.Lock()
		if _, raced := s.conversations[req.ConversationID]; !raced {
			s.conversations[req.ConversationID] = conv
		}
		s.mu.Unlock()
	}

	s.log.WithFields(logrus.Fields{"conversation": req.ConversationID, "length": len(reply.Content)}).Debug("turn answered")
	return transport.Reply{ConversationID: req.ConversationID, MessageID: replyID(reply), Text: reply.Content}, nil
}

// Forget drops the stored history of a conversation.
func (s *Service) Forget(conversationID string) {
	s.mu.Lock()
	delete(s.conversations, conversationID)
	s.mu.Unlock()
}

// Len returns the number of live conversations.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

func (s *Service) generate(ctx context.Context, conv *conversation, query string) (*schema.Message, error) {
	s.mu.Lock()
	input := map[string]any{
		"system":  conv.system,
		"history": append([]*schema.Message(nil), conv.history...),
		"query":   query,
	}
	s.mu.Unlock()

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		response = schema.AssistantMessage("", nil)
	}
	if strings.TrimSpace(response.Content) == "" {
		// 空回复不写入历史，由调用方展示连接错误提示。
		return response, nil
	}

	s.mu.Lock()
	conv.history = appendWindow(conv.history, s.historyLimit,
		schema.UserMessage(query),
		schema.AssistantMessage(response.Content, nil),
	)
	s.mu.Unlock()

	return response, nil
}

// appendWindow keeps at most limit messages, dropping the oldest first.
func appendWindow(history []*schema.Message, limit int, msgs ...*schema.Message) []*schema.Message {
	history = append(history, msgs...)
	if len(history) > limit {
		history = append([]*schema.Message(nil), history[len(history)-limit:]...)
	}
	return history
}

func replyID(msg *schema.Message) string {
	if id, ok := msg.Extra["id"].(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
