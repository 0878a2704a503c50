package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Identity is the authenticated requester attached to a request context.
type Identity struct {
	Role      Role
	ProfileID int64
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity in ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// OptionalIdentity parses a Bearer token when present and attaches the
// resulting Identity to the request context. Missing, malformed, expired or
// otherwise invalid tokens leave the request anonymous; they are never
// rejected.
func OptionalIdentity(svc *JWTService, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				logger.DebugContext(r.Context(), "ignoring invalid bearer token",
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			profileID, err := claims.ProfileID()
			if err != nil || (claims.Role != RoleUser && claims.Role != RoleMentor) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{Role: claims.Role, ProfileID: profileID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}
