package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/backofhouse-backend/internal/domain/chat"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type ConversationStateRepo interface {
	GetByConversationID(dbc dbctx.Context, conversationID uuid.UUID) (*types.ConversationState, error)
	Upsert(dbc dbctx.Context, state *types.ConversationState) error
}

type conversationStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationStateRepo(db *gorm.DB, log *logger.Logger) ConversationStateRepo {
	return &conversationStateRepo{
		db:  db,
		log: log.With("repo", "ConversationStateRepo"),
	}
}

// GetByConversationID returns (nil, nil) when no state has been written yet.
func (r *conversationStateRepo) GetByConversationID(dbc dbctx.Context, conversationID uuid.UUID) (*types.ConversationState, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation_id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.ConversationState
	err := transaction.WithContext(dbc.Ctx).Where("conversation_id = ?", conversationID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Upsert writes the whole record. There is no version check: the last writer wins.
func (r *conversationStateRepo) Upsert(dbc dbctx.Context, state *types.ConversationState) error {
	if state == nil || state.ConversationID == uuid.Nil {
		return fmt.Errorf("missing conversation_id")
	}
	state.UpdatedAt = time.Now().UTC()
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}},
			UpdateAll: true,
		}).
		Create(state).Error
}
