package app

import (
	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	"github.com/yungbote/backofhouse-backend/internal/jobs/worker"
	"github.com/yungbote/backofhouse-backend/internal/modules/advisor"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
	"github.com/yungbote/backofhouse-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Conversations services.ConversationService
	Feedback      services.FeedbackService
	Advisor       advisor.Usecases
}

func wireServices(log *logger.Logger, cfg Config, rs repos.Set, cs Clients, tasks *worker.Dispatcher) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:          services.NewAuthService(log, cfg.JWTSecret),
		Conversations: services.NewConversationService(log, rs.Conversation, rs.Message, rs.ConversationState),
		Feedback:      services.NewFeedbackService(log, rs.Feedback, rs.Conversation),
		Advisor: advisor.New(advisor.UsecasesDeps{
			Log:             log.With("service", "Advisor"),
			Conversations:   rs.Conversation,
			Messages:        rs.Message,
			States:          rs.ConversationState,
			Restaurants:     rs.Restaurant,
			Knowledge:       rs.Knowledge,
			Feedback:        rs.Feedback,
			Files:           rs.File,
			Provider:        cs.Provider,
			POS:             cs.POS,
			ReportCache:     cs.ReportCache,
			Notion:          cs.Notion,
			Bucket:          cs.Bucket,
			Tasks:           tasks,
			Models:          cfg.Models,
			POSConfig:       cfg.POSAssembler,
			AssemblyTimeout: cfg.AssemblyTimeout,
			DebugAPISummary: cfg.DebugAPISummary,
		}),
	}
}
