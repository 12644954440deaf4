package restaurant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Member struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_restaurant_member_pair,priority:1" json:"restaurant_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_restaurant_member_pair,priority:2;index" json:"user_id"`
	Role         string    `gorm:"column:role;not null;default:'manager'" json:"role"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (Member) TableName() string { return "restaurant_member" }

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
