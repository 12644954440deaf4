package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/backofhouse-backend/internal/http/response"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/services"
)

type ConversationHandler struct {
	conversations services.ConversationService
}

func NewConversationHandler(conversations services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type createConversationReq struct {
	Title string `json:"title"`
}

// POST /api/restaurants/:restaurant_id/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	restaurantID, _, ok := routeIDs(c, false)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	conv, err := h.conversations.Create(dbctx.New(c.Request.Context()), restaurantID, userID, req.Title)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "create_conversation_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"conversation": conv})
}

// GET /api/restaurants/:restaurant_id/conversations/:conversation_id/state
func (h *ConversationHandler) GetState(c *gin.Context) {
	restaurantID, conversationID, ok := routeIDs(c, true)
	if !ok {
		return
	}
	st, err := h.conversations.GetState(dbctx.New(c.Request.Context()), restaurantID, conversationID)
	if err != nil {
		respondConversationError(c, "get_state_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"state": st})
}

// GET /api/restaurants/:restaurant_id/conversations/:conversation_id/messages?limit=100
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	restaurantID, conversationID, ok := routeIDs(c, true)
	if !ok {
		return
	}
	limit := services.DefaultMessagePageSize
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	msgs, err := h.conversations.ListMessages(dbctx.New(c.Request.Context()), restaurantID, conversationID, limit)
	if err != nil {
		respondConversationError(c, "list_messages_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

func respondConversationError(c *gin.Context, code string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		response.RespondError(c, http.StatusNotFound, "conversation_not_found", errors.New("conversation not found"))
		return
	}
	response.RespondError(c, http.StatusInternalServerError, code, err)
}
