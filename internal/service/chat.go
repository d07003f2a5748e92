package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Chat covers the AI-assistant message endpoints.
type Chat struct {
	api Doer
	ep  api.Endpoints
}

func NewChat(api Doer, ep api.Endpoints) *Chat {
	return &Chat{api: api, ep: ep}
}

// History returns past exchanges for the calling user.
func (c *Chat) History(ctx context.Context) ([]model.ChatMessage, error) {
	return getList[model.ChatMessage](ctx, c.api, c.ep.ChatMessagesHistory())
}

// Send posts a message and returns the exchange including the AI response.
func (c *Chat) Send(ctx context.Context, message, conversationID string) (*model.ChatMessage, error) {
	in := struct {
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id,omitempty"`
	}{message, conversationID}
	var out model.ChatMessage
	if err := c.api.Post(ctx, c.ep.ChatMessages(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Statistics fetches dashboard numbers. These feeds fail quietly: a broken
// statistics endpoint must never block a screen, so errors are logged and an
// empty map is returned.
type Statistics struct {
	api Doer
	ep  api.Endpoints
	log *zap.Logger
}

func NewStatistics(api Doer, ep api.Endpoints, log *zap.Logger) *Statistics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Statistics{api: api, ep: ep, log: log}
}

// Admin returns platform-wide statistics.
func (s *Statistics) Admin(ctx context.Context) map[string]any {
	return s.fetch(ctx, s.ep.Statistics())
}

// Distributor returns per-distributor revenue statistics.
func (s *Statistics) Distributor(ctx context.Context) map[string]any {
	return s.fetch(ctx, s.ep.DistributorStatistics())
}

func (s *Statistics) fetch(ctx context.Context, url string) map[string]any {
	var out map[string]any
	if err := s.api.Get(ctx, url, &out); err != nil {
		s.log.Warn("statistics fetch failed", zap.String("url", url), zap.Error(err))
		return map[string]any{}
	}
	return out
}
