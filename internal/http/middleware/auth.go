package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	"github.com/yungbote/backofhouse-backend/internal/http/response"
	"github.com/yungbote/backofhouse-backend/internal/pkg/ctxutil"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
	"github.com/yungbote/backofhouse-backend/internal/services"
)

const ParamRestaurantID = "restaurant_id"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	members     repos.MembershipRepo
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, members repos.MembershipRepo) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("middleware", "AuthMiddleware"),
		authService: authService,
		members:     members,
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Rejected bearer token", "error", err)
			response.AbortWithError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireMember checks that the authenticated user belongs to the restaurant
// named by the :restaurant_id route parameter. It must run after RequireAuth.
func (am *AuthMiddleware) RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, err := uuid.Parse(c.Param(ParamRestaurantID))
		if err != nil {
			response.AbortWithError(c, http.StatusBadRequest, "invalid_restaurant_id", err)
			return
		}
		ad := ctxutil.GetAuthData(c.Request.Context())
		if ad == nil || ad.UserID == uuid.Nil {
			response.AbortWithError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
			return
		}
		if err := am.authorizeMember(dbctx.New(c.Request.Context()), restaurantID, ad.UserID); err != nil {
			if errors.Is(err, apperr.ErrForbidden) {
				am.log.Debug("Membership denied", "error", err)
				response.AbortWithError(c, http.StatusForbidden, "forbidden", errors.New("you do not have access to this restaurant"))
				return
			}
			am.log.Error("Membership lookup failed", "restaurant_id", restaurantID, "error", err)
			response.AbortWithError(c, http.StatusInternalServerError, "membership_lookup_failed", errors.New("could not verify access"))
			return
		}
		c.Next()
	}
}

// authorizeMember returns an error wrapping ErrForbidden when userID does not
// belong to the restaurant.
func (am *AuthMiddleware) authorizeMember(dbc dbctx.Context, restaurantID, userID uuid.UUID) error {
	ok, err := am.members.IsMember(dbc, restaurantID, userID)
	if err != nil {
		return fmt.Errorf("membership lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: user %s is not a member of restaurant %s", apperr.ErrForbidden, userID, restaurantID)
	}
	return nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
