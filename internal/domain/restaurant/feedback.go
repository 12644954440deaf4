package restaurant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_feedback_restaurant_created,priority:1" json:"restaurant_id"`
	ConversationID *uuid.UUID `gorm:"type:uuid;index" json:"conversation_id,omitempty"`
	MessageID      *uuid.UUID `gorm:"type:uuid" json:"message_id,omitempty"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	Rating         int        `gorm:"column:rating;not null" json:"rating"`
	Comment        string     `gorm:"column:comment;type:text;not null;default:''" json:"comment,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;index:idx_feedback_restaurant_created,priority:2" json:"created_at"`
}

func (Feedback) TableName() string { return "feedback" }

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
