package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/http/response"
	"github.com/yungbote/backofhouse-backend/internal/pkg/ctxutil"
)

// routeIDs parses :restaurant_id and, when withConversation is set,
// :conversation_id. On failure it has already written the error response.
func routeIDs(c *gin.Context, withConversation bool) (restaurantID, conversationID uuid.UUID, ok bool) {
	restaurantID, err := uuid.Parse(c.Param("restaurant_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_restaurant_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	if !withConversation {
		return restaurantID, uuid.Nil, true
	}
	conversationID, err = uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	return restaurantID, conversationID, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	ad := ctxutil.GetAuthData(c.Request.Context())
	if ad == nil || ad.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return uuid.Nil, false
	}
	return ad.UserID, true
}
