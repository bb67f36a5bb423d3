package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/types"
)

// authMiddleware resolves the owner for every API request. With auth
// bypassed the owner comes from the X-Owner-ID header (defaulting to
// the single-owner sentinel); otherwise a bearer ID token is verified
// and its subject becomes the owner.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		var ownerID string
		if s.bypassAuth {
			ownerID = r.Header.Get("X-Owner-ID")
			if ownerID == "" {
				ownerID = types.OwnerIDNone
			}
		} else {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Ctx(ctx).WarnContext(ctx, "unauthenticated request")
				writeJSONError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
				writeJSONError(w, "invalid auth header", http.StatusBadRequest)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			idToken, err := s.oidcVerifier(ctx, token)
			if err != nil {
				log.Ctx(ctx).WarnContext(ctx, "token validation failed", slog.Any("error", err))
				writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
				return
			}
			ownerID = idToken.Subject
		}

		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("authOwnerID", ownerID)))
		log.Ctx(ctx).DebugContext(ctx, "authenticated request")

		ctx = context.WithValue(ctx, ownerIDContextKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
