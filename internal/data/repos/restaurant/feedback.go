package restaurant

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type FeedbackRepo interface {
	Create(dbc dbctx.Context, f *types.Feedback) error
	// ListRecentRatings returns up to limit ratings, newest first.
	ListRecentRatings(dbc dbctx.Context, restaurantID uuid.UUID, limit int) ([]int, error)
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, log *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: log.With("repo", "FeedbackRepo")}
}

func (r *feedbackRepo) Create(dbc dbctx.Context, f *types.Feedback) error {
	if f == nil {
		return fmt.Errorf("nil feedback")
	}
	if f.Rating < types.MinRating || f.Rating > types.MaxRating {
		return fmt.Errorf("rating %d out of range", f.Rating)
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(f).Error
}

func (r *feedbackRepo) ListRecentRatings(dbc dbctx.Context, restaurantID uuid.UUID, limit int) ([]int, error) {
	if limit <= 0 {
		limit = 50
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []int
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Feedback{}).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("rating", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
