package restaurant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type FileRepo interface {
	Create(dbc dbctx.Context, f *types.File) error
	ListPermanent(dbc dbctx.Context, restaurantID uuid.UUID) ([]*types.File, error)
	// ListTemporary returns the newest conversation-scoped files first.
	ListTemporary(dbc dbctx.Context, restaurantID, conversationID uuid.UUID, limit int) ([]*types.File, error)
}

type fileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFileRepo(db *gorm.DB, log *logger.Logger) FileRepo {
	return &fileRepo{db: db, log: log.With("repo", "FileRepo")}
}

func (r *fileRepo) conn(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *fileRepo) Create(dbc dbctx.Context, f *types.File) error {
	return r.conn(dbc).Create(f).Error
}

func (r *fileRepo) ListPermanent(dbc dbctx.Context, restaurantID uuid.UUID) ([]*types.File, error) {
	var out []*types.File
	err := r.conn(dbc).
		Where("restaurant_id = ? AND storage_scope = ?", restaurantID, types.ScopePermanent).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *fileRepo) ListTemporary(dbc dbctx.Context, restaurantID, conversationID uuid.UUID, limit int) ([]*types.File, error) {
	q := r.conn(dbc).
		Where("restaurant_id = ? AND storage_scope = ? AND conversation_id = ?", restaurantID, types.ScopeTemporary, conversationID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.File
	err := q.Find(&out).Error
	return out, err
}
