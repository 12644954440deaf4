package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/backofhouse-backend/internal/domain/chat"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, c *types.Conversation) error
	// GetByID returns ErrNotFound unless the conversation exists under restaurantID.
	GetByID(dbc dbctx.Context, restaurantID, conversationID uuid.UUID) (*types.Conversation, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, c *types.Conversation) error {
	if c == nil || c.RestaurantID == uuid.Nil || c.UserID == uuid.Nil {
		return fmt.Errorf("conversation requires restaurant_id and user_id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(c).Error
}

func (r *conversationRepo) GetByID(dbc dbctx.Context, restaurantID, conversationID uuid.UUID) (*types.Conversation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Conversation
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND restaurant_id = ?", conversationID, restaurantID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
