package restaurant

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type RestaurantRepo interface {
	Create(dbc dbctx.Context, r *types.Restaurant) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Restaurant, error)
	GetKPI(dbc dbctx.Context, restaurantID uuid.UUID) (*types.KPI, error)
	UpsertKPI(dbc dbctx.Context, kpi *types.KPI) error
	GetTuning(dbc dbctx.Context, restaurantID uuid.UUID) (*types.Tuning, error)
	UpsertTuning(dbc dbctx.Context, t *types.Tuning) error
}

type restaurantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRestaurantRepo(db *gorm.DB, log *logger.Logger) RestaurantRepo {
	return &restaurantRepo{db: db, log: log.With("repo", "RestaurantRepo")}
}

func (r *restaurantRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *restaurantRepo) Create(dbc dbctx.Context, row *types.Restaurant) error {
	if row == nil {
		return fmt.Errorf("nil restaurant")
	}
	return r.tx(dbc).Create(row).Error
}

func (r *restaurantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Restaurant, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing restaurant_id")
	}
	var out types.Restaurant
	err := r.tx(dbc).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetKPI returns (nil, nil) when the operator has not entered KPIs yet.
func (r *restaurantRepo) GetKPI(dbc dbctx.Context, restaurantID uuid.UUID) (*types.KPI, error) {
	var out types.KPI
	err := r.tx(dbc).Where("restaurant_id = ?", restaurantID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *restaurantRepo) UpsertKPI(dbc dbctx.Context, kpi *types.KPI) error {
	if kpi == nil || kpi.RestaurantID == uuid.Nil {
		return fmt.Errorf("missing restaurant_id")
	}
	return r.tx(dbc).Save(kpi).Error
}

// GetTuning returns (nil, nil) when no tuning profile exists.
func (r *restaurantRepo) GetTuning(dbc dbctx.Context, restaurantID uuid.UUID) (*types.Tuning, error) {
	var out types.Tuning
	err := r.tx(dbc).Where("restaurant_id = ?", restaurantID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *restaurantRepo) UpsertTuning(dbc dbctx.Context, t *types.Tuning) error {
	if t == nil || t.RestaurantID == uuid.Nil {
		return fmt.Errorf("missing restaurant_id")
	}
	return r.tx(dbc).Save(t).Error
}
