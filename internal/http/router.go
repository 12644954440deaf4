package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/backofhouse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/backofhouse-backend/internal/http/middleware"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	ConversationHandler *httpH.ConversationHandler
	TurnHandler         *httpH.TurnHandler
	FeedbackHandler     *httpH.FeedbackHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	restaurant := api.Group("/restaurants/:restaurant_id")
	if cfg.AuthMiddleware != nil {
		restaurant.Use(cfg.AuthMiddleware.RequireMember())
	}
	{
		if cfg.ConversationHandler != nil {
			restaurant.POST("/conversations", cfg.ConversationHandler.Create)
			restaurant.GET("/conversations/:conversation_id/state", cfg.ConversationHandler.GetState)
			restaurant.GET("/conversations/:conversation_id/messages", cfg.ConversationHandler.ListMessages)
		}
		if cfg.TurnHandler != nil {
			restaurant.POST("/conversations/:conversation_id/turns", cfg.TurnHandler.Create)
		}
		if cfg.FeedbackHandler != nil {
			restaurant.POST("/feedback", cfg.FeedbackHandler.Submit)
		}
	}

	return r
}
