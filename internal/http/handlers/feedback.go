package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/http/response"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/services"
)

type FeedbackHandler struct {
	feedback services.FeedbackService
}

func NewFeedbackHandler(feedback services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

type submitFeedbackReq struct {
	Rating         int        `json:"rating"`
	ConversationID *uuid.UUID `json:"conversation_id"`
	MessageID      *uuid.UUID `json:"message_id"`
	Comment        string     `json:"comment"`
}

// POST /api/restaurants/:restaurant_id/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	restaurantID, _, ok := routeIDs(c, false)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req submitFeedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	row, err := h.feedback.Submit(dbctx.New(c.Request.Context()), services.FeedbackInput{
		RestaurantID:   restaurantID,
		UserID:         userID,
		ConversationID: req.ConversationID,
		MessageID:      req.MessageID,
		Rating:         req.Rating,
		Comment:        req.Comment,
	})
	switch {
	case errors.Is(err, services.ErrInvalidRating):
		response.RespondError(c, http.StatusBadRequest, "invalid_rating", err)
		return
	case errors.Is(err, apperr.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "conversation_not_found", errors.New("conversation not found"))
		return
	case err != nil:
		response.RespondError(c, http.StatusInternalServerError, "submit_feedback_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"feedback": row})
}
