package middleware

import (
	"context"

	"github.com/earnpro/rewards-backend/pkg/enums"
)

type contextKey string

const (
	ctxAccountID contextKey = "account_id"
	ctxRole      contextKey = "actor_role"
	ctxAdmin     contextKey = "admin_username"
	ctxTokenID   contextKey = "token_id"
)

// AccountIDFromContext returns the Telegram account id of a user token, or 0.
func AccountIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxAccountID).(int64); ok {
		return v
	}
	return 0
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

func AdminUsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdmin).(string); ok {
		return v
	}
	return ""
}

func TokenIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTokenID).(string); ok {
		return v
	}
	return ""
}

// WithAccountID injects a user identity into the context.
func WithAccountID(ctx context.Context, accountID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxRole, enums.RoleUser)
	return context.WithValue(ctx, ctxAccountID, accountID)
}

// WithAdmin injects an admin identity into the context.
func WithAdmin(ctx context.Context, username, tokenID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxRole, enums.RoleAdmin)
	ctx = context.WithValue(ctx, ctxAdmin, username)
	return context.WithValue(ctx, ctxTokenID, tokenID)
}
