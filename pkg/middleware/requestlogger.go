package middleware

import (
	"log/slog"
	"net/http"

	"github.com/netz98/app-builder-product-reviews/pkg/logger"
)

// RequestLogger returns middleware that builds a request-scoped logger
// enriched with correlation_id, org_id, trace_id, and span_id, then stores it
// in context via logger.NewContext. Downstream handlers retrieve it with
// logger.FromContext(ctx).
//
// Mount AFTER RequestLogging (which sets correlation_id), Tracing (which sets
// the OpenTelemetry span context), and Auth (which resolves the org ID).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Pick up the org ID from the auth middleware, falling back to
			// the raw gateway header for unauthenticated routes.
			orgID := OrgIDFromContext(ctx)
			if orgID == "" {
				orgID = r.Header.Get(HeaderOrgID)
			}
			if orgID != "" {
				ctx = logger.WithOrgID(ctx, orgID)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
