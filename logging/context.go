package logging

import (
	"context"

	"github.com/google/uuid"
)

type debugKeyCtx struct{}

// EnableDebugMode tags ctx so CDebug statements logged with it are written regardless of the
// logger's level. The key identifies the request in log output; an empty key is replaced by a
// short random one.
func EnableDebugMode(ctx context.Context, key string) context.Context {
	if key == "" {
		key = uuid.NewString()[:8]
	}
	return context.WithValue(ctx, debugKeyCtx{}, key)
}

// IsDebugMode reports whether ctx came from EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugKey(ctx) != ""
}

// DebugKey returns the key passed to EnableDebugMode, or "" for a nil or untagged context.
func DebugKey(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	key, _ := ctx.Value(debugKeyCtx{}).(string)
	return key
}
