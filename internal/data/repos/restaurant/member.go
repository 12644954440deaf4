package restaurant

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type MembershipRepo interface {
	Add(dbc dbctx.Context, m *types.Member) error
	IsMember(dbc dbctx.Context, restaurantID, userID uuid.UUID) (bool, error)
}

type membershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMembershipRepo(db *gorm.DB, log *logger.Logger) MembershipRepo {
	return &membershipRepo{db: db, log: log.With("repo", "MembershipRepo")}
}

func (r *membershipRepo) Add(dbc dbctx.Context, m *types.Member) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(m).Error
}

func (r *membershipRepo) IsMember(dbc dbctx.Context, restaurantID, userID uuid.UUID) (bool, error) {
	if restaurantID == uuid.Nil || userID == uuid.Nil {
		return false, fmt.Errorf("missing restaurant_id or user_id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Member{}).
		Where("restaurant_id = ? AND user_id = ?", restaurantID, userID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
