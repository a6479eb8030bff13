package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyRoute  ctxKey = "route"
)

// RouteFromContext returns the route name set by WithRoute.
func RouteFromContext(ctx context.Context) string {
	route, _ := ctx.Value(CtxKeyRoute).(string)
	return route
}

// WithUserID records the authenticated username for downstream middleware
// such as RateLimitByUser.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}
