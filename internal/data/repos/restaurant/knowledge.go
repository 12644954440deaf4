package restaurant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type KnowledgeRepo interface {
	Create(dbc dbctx.Context, k *types.CustomKnowledge) error
	ListActive(dbc dbctx.Context, restaurantID uuid.UUID) ([]*types.CustomKnowledge, error)
}

type knowledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeRepo(db *gorm.DB, log *logger.Logger) KnowledgeRepo {
	return &knowledgeRepo{db: db, log: log.With("repo", "KnowledgeRepo")}
}

func (r *knowledgeRepo) Create(dbc dbctx.Context, k *types.CustomKnowledge) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(k).Error
}

func (r *knowledgeRepo) ListActive(dbc dbctx.Context, restaurantID uuid.UUID) ([]*types.CustomKnowledge, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CustomKnowledge
	err := transaction.WithContext(dbc.Ctx).
		Where("restaurant_id = ? AND is_active = ?", restaurantID, true).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
