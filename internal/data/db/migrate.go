package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/backofhouse-backend/internal/domain/chat"
	"github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// restaurant profile and inputs to the advisor
		&restaurant.Restaurant{},
		&restaurant.KPI{},
		&restaurant.Tuning{},
		&restaurant.Member{},
		&restaurant.CustomKnowledge{},
		&restaurant.Feedback{},
		&restaurant.File{},

		// conversations
		&chat.Conversation{},
		&chat.Message{},
		&chat.ConversationState{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
