package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type authDataKey struct{}

type AuthData struct {
	TokenString string
	UserID      uuid.UUID
}

func WithAuthData(ctx context.Context, ad *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, ad)
}

func GetAuthData(ctx context.Context) *AuthData {
	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		return ad
	}
	return nil
}
