package restaurant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomKnowledge is an operator-authored rule the advisor must follow.
type CustomKnowledge struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Title        string    `gorm:"column:title;not null" json:"title"`
	Category     string    `gorm:"column:category;not null;default:'general'" json:"category"`
	Content      string    `gorm:"column:content;type:text;not null" json:"content"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

func (CustomKnowledge) TableName() string { return "custom_knowledge" }

func (k *CustomKnowledge) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
