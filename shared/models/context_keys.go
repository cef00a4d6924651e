package models

import "context"

type contextKey string

const (
	UserContextKey  contextKey = "userID"
	RolesContextKey contextKey = "userRoles"
)

// WithUser кладет UserID и роли в контекст запроса.
func WithUser(ctx context.Context, userID uint64, roles []string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, userID)
	return context.WithValue(ctx, RolesContextKey, roles)
}

// GetUserIDFromContext возвращает UserID и true, если он есть в контексте.
func GetUserIDFromContext(ctx context.Context) (uint64, bool) {
	userID, ok := ctx.Value(UserContextKey).(uint64)
	return userID, ok && userID != 0
}

func GetRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(RolesContextKey).([]string)
	return roles, ok
}
