package middleware

import (
	"context"

	"github.com/braddown/pii-compliance-tool-sub001/internal/auth"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUser      ctxKey = "user"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return value
	}
	return ""
}

func withUser(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyUser, claims)
}

// GetUser returns the identity attached by the Auth middleware, if any.
func GetUser(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(ctxKeyUser).(auth.Claims)
	return claims, ok
}
