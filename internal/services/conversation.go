package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	types "github.com/yungbote/backofhouse-backend/internal/domain/chat"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

const (
	DefaultMessagePageSize = 100
	MaxMessagePageSize     = 500
	maxTitleLength         = 200
)

type ConversationService interface {
	Create(dbc dbctx.Context, restaurantID, userID uuid.UUID, title string) (*types.Conversation, error)
	// GetState returns the persisted state, or the zero state when none exists.
	GetState(dbc dbctx.Context, restaurantID, conversationID uuid.UUID) (*types.ConversationState, error)
	ListMessages(dbc dbctx.Context, restaurantID, conversationID uuid.UUID, limit int) ([]*types.Message, error)
}

type conversationService struct {
	log           *logger.Logger
	conversations repos.ConversationRepo
	messages      repos.MessageRepo
	states        repos.ConversationStateRepo
}

func NewConversationService(log *logger.Logger, conversations repos.ConversationRepo, messages repos.MessageRepo, states repos.ConversationStateRepo) ConversationService {
	return &conversationService{
		log:           log.With("service", "ConversationService"),
		conversations: conversations,
		messages:      messages,
		states:        states,
	}
}

func (s *conversationService) Create(dbc dbctx.Context, restaurantID, userID uuid.UUID, title string) (*types.Conversation, error) {
	title = strings.TrimSpace(title)
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength])
	}
	conv := &types.Conversation{RestaurantID: restaurantID, UserID: userID, Title: title}
	if err := s.conversations.Create(dbc, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.log.Debug("Conversation created", "conversation_id", conv.ID, "restaurant_id", restaurantID)
	return conv, nil
}

func (s *conversationService) GetState(dbc dbctx.Context, restaurantID, conversationID uuid.UUID) (*types.ConversationState, error) {
	if _, err := s.conversations.GetByID(dbc, restaurantID, conversationID); err != nil {
		return nil, err
	}
	st, err := s.states.GetByConversationID(dbc, conversationID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = types.NewConversationState(conversationID)
	}
	return st, nil
}

func (s *conversationService) ListMessages(dbc dbctx.Context, restaurantID, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	if _, err := s.conversations.GetByID(dbc, restaurantID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessagePageSize
	}
	if limit > MaxMessagePageSize {
		limit = MaxMessagePageSize
	}
	return s.messages.ListRecent(dbc, conversationID, limit)
}
