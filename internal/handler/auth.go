package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/conejoswing/restoeasy/internal/domain/auth"
)

// requireRole authenticates the X-API-Key header and requires at least role.
// Nested groups authenticate once; the identity is kept in the context.
func (h *Handler) requireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.auth == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			info, ok := auth.FromContext(ctx)
			if !ok {
				var err error
				info, err = h.auth.Authenticate(ctx, r.Header.Get(HeaderAPIKey))
				if err != nil {
					writeError(w, r, err)
					return
				}
				ctx = auth.WithInfo(ctx, info)
				ctx = zctx.With(ctx, zap.String("api_key", info.Name))
			}
			if err := auth.Authorize(info, role); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
