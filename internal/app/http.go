package app

import (
	"net"

	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	apphttp "github.com/yungbote/backofhouse-backend/internal/http"
	httpH "github.com/yungbote/backofhouse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/backofhouse-backend/internal/http/middleware"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, cfg Config, rs repos.Set, ss Services) *apphttp.Server {
	log.Info("Wiring handlers and router...")
	var serviceName string
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewServer(net.JoinHostPort("", cfg.Port), apphttp.RouterConfig{
		Log:                 log,
		ServiceName:         serviceName,
		AllowedOrigins:      cfg.AllowedOrigins,
		AuthMiddleware:      httpMW.NewAuthMiddleware(log, ss.Auth, rs.Membership),
		HealthHandler:       httpH.NewHealthHandler(),
		ConversationHandler: httpH.NewConversationHandler(ss.Conversations),
		TurnHandler:         httpH.NewTurnHandler(log, ss.Advisor),
		FeedbackHandler:     httpH.NewFeedbackHandler(ss.Feedback),
	})
}
