package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/backofhouse-backend/internal/http/response"
	"github.com/yungbote/backofhouse-backend/internal/modules/advisor"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

// TurnRunner is the advisor surface the turn handler needs.
type TurnRunner interface {
	RespondTurn(ctx context.Context, in advisor.TurnInput, out advisor.Responder) (advisor.TurnOutput, error)
	UsesToolLoop(notionEnabled bool) bool
}

type TurnHandler struct {
	log     *logger.Logger
	advisor TurnRunner
}

func NewTurnHandler(log *logger.Logger, runner TurnRunner) *TurnHandler {
	return &TurnHandler{log: log.With("handler", "TurnHandler"), advisor: runner}
}

type turnReq struct {
	Message        string `json:"message"`
	OnboardingMode string `json:"onboarding_mode"`
	PainPoint      string `json:"pain_point"`
	HardMode       bool   `json:"hard_mode"`
	NotionEnabled  bool   `json:"notion_enabled"`
	WWAHDMode      bool   `json:"wwahd_mode"`
}

// POST /api/restaurants/:restaurant_id/conversations/:conversation_id/turns
func (h *TurnHandler) Create(c *gin.Context) {
	restaurantID, conversationID, ok := routeIDs(c, true)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req turnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("message is required"))
		return
	}
	in := advisor.TurnInput{
		RestaurantID:   restaurantID,
		ConversationID: conversationID,
		UserID:         userID,
		Message:        req.Message,
		OnboardingMode: strings.TrimSpace(req.OnboardingMode),
		PainPoint:      strings.TrimSpace(req.PainPoint),
		HardMode:       req.HardMode,
		NotionEnabled:  req.NotionEnabled,
		WWAHDMode:      req.WWAHDMode,
	}

	if h.advisor.UsesToolLoop(req.NotionEnabled) {
		out := &jsonResponder{}
		res, err := h.advisor.RespondTurn(c.Request.Context(), in, out)
		if err != nil {
			h.respondTurnError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"content": res.Content, "message_id": res.MessageID})
		return
	}

	out := &sseResponder{c: c}
	_, err := h.advisor.RespondTurn(c.Request.Context(), in, out)
	if err == nil {
		return
	}
	if !out.started {
		h.respondTurnError(c, err)
		return
	}
	h.log.Warn("Turn failed after stream start", "conversation_id", conversationID, "error", err)
	out.event("error", gin.H{"message": "The response was interrupted. Please try again."})
}

func (h *TurnHandler) respondTurnError(c *gin.Context, err error) {
	var pf *advisor.ProviderFailure
	switch {
	case errors.As(err, &pf):
		h.log.Warn("Completion provider failed", "kind", pf.Kind, "error", pf.Err)
		response.RespondError(c, pf.HTTPStatus(), providerErrorCode(pf.Kind), errors.New(pf.UserMessage()))
	case errors.Is(err, apperr.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "conversation_not_found", errors.New("conversation not found"))
	case errors.Is(err, apperr.ErrInvalidArgument):
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		h.log.Error("Turn failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "turn_failed", errors.New("something went wrong handling that message"))
	}
}

func providerErrorCode(kind string) string {
	if kind == advisor.ProviderUnavailable {
		return "provider_unavailable"
	}
	return kind
}

// sseResponder writes delta, patch and done events. The stream starts lazily
// so that a failure before the first delta can still become a JSON error.
type sseResponder struct {
	c       *gin.Context
	started bool
}

func (r *sseResponder) start() {
	if r.started {
		return
	}
	r.started = true
	h := r.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	r.c.Status(http.StatusOK)
}

func (r *sseResponder) event(name string, data any) {
	r.start()
	r.c.SSEvent(name, data)
	r.c.Writer.Flush()
}

func (r *sseResponder) Emit(text string) error {
	if err := r.c.Request.Context().Err(); err != nil {
		return err
	}
	r.event("delta", gin.H{"text": text})
	return nil
}

func (r *sseResponder) Finish(res advisor.TurnResult) error {
	if res.Patched {
		r.event("patch", gin.H{"content": res.Content})
	}
	r.event("done", gin.H{"message_id": res.MessageID})
	return nil
}

// jsonResponder discards incremental output; the handler writes the final
// content from the turn result.
type jsonResponder struct{}

func (jsonResponder) Emit(string) error { return nil }
func (jsonResponder) Finish(advisor.TurnResult) error { return nil }
