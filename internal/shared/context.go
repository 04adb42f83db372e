package shared

import (
	"context"
	"net/http"
	"strings"
)

// IdentityHeader carries the signed-in user's email from the upstream proxy.
const IdentityHeader = "X-User-Email"

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the caller identity, empty when anonymous.
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityContextKey{}).(string)
	return identity
}

// IdentityMiddleware copies IdentityHeader into the request context. The
// header is trusted as-is; the fronting proxy must strip and re-set it.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := strings.ToLower(strings.TrimSpace(r.Header.Get(IdentityHeader)))
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}
