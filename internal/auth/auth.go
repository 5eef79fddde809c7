package auth

import (
	"context"
)

type contextKey string

const callerKey contextKey = "caller"

// GetCallerFromContext retrieves the authenticated caller from the context
func GetCallerFromContext(ctx context.Context) *Caller {
	caller, _ := ctx.Value(callerKey).(*Caller)
	return caller
}

// SetCallerInContext stores the authenticated caller in the context
func SetCallerInContext(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}
