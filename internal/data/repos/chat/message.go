package chat

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/backofhouse-backend/internal/data/db"
	types "github.com/yungbote/backofhouse-backend/internal/domain/chat"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type MessageRepo interface {
	// Append assigns the next seq for the conversation and inserts m.
	Append(dbc dbctx.Context, m *types.Message) error
	// ListRecent returns the last limit messages in chronological order.
	ListRecent(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error)
	Count(dbc dbctx.Context, conversationID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Append(dbc dbctx.Context, m *types.Message) error {
	if m == nil || m.ConversationID == uuid.Nil {
		return fmt.Errorf("missing conversation_id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var maxSeq int64
		err = transaction.WithContext(dbc.Ctx).
			Model(&types.Message{}).
			Where("conversation_id = ?", m.ConversationID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error
		if err != nil {
			return err
		}
		m.Seq = maxSeq + 1
		err = transaction.WithContext(dbc.Ctx).Create(m).Error
		if err == nil || !db.IsUniqueViolation(err) {
			return err
		}
		// A concurrent turn took the seq; reread and try once more.
		r.log.Debug("message seq collision, retrying", "conversation_id", m.ConversationID, "seq", m.Seq)
	}
	return err
}

func (r *messageRepo) ListRecent(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Message
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *messageRepo) Count(dbc dbctx.Context, conversationID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&n).Error
	return n, err
}
