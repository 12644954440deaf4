package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/backofhouse-backend/internal/data/repos/chat"
	"github.com/yungbote/backofhouse-backend/internal/data/repos/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type RestaurantRepo = restaurant.RestaurantRepo
type MembershipRepo = restaurant.MembershipRepo
type KnowledgeRepo = restaurant.KnowledgeRepo
type FeedbackRepo = restaurant.FeedbackRepo
type FileRepo = restaurant.FileRepo

type ConversationRepo = chat.ConversationRepo
type MessageRepo = chat.MessageRepo
type ConversationStateRepo = chat.ConversationStateRepo

type Set struct {
	Restaurant        RestaurantRepo
	Membership        MembershipRepo
	Knowledge         KnowledgeRepo
	Feedback          FeedbackRepo
	File              FileRepo
	Conversation      ConversationRepo
	Message           MessageRepo
	ConversationState ConversationStateRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Restaurant:        restaurant.NewRestaurantRepo(db, log),
		Membership:        restaurant.NewMembershipRepo(db, log),
		Knowledge:         restaurant.NewKnowledgeRepo(db, log),
		Feedback:          restaurant.NewFeedbackRepo(db, log),
		File:              restaurant.NewFileRepo(db, log),
		Conversation:      chat.NewConversationRepo(db, log),
		Message:           chat.NewMessageRepo(db, log),
		ConversationState: chat.NewConversationStateRepo(db, log),
	}
}
