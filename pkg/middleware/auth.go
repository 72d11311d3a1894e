package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKeyType string

const authContextKey contextKeyType = "auth_context"

// Header names injected by the identity gateway in front of this service.
const (
	HeaderOrgID  = "X-Gw-Ims-Org-Id"
	HeaderUserID = "X-Gw-Ims-User-Id"
)

// AuthContext carries the authenticated caller identity extracted from
// gateway headers. Token validation itself happens upstream; this layer
// only gates on header presence.
type AuthContext struct {
	OrgID         string
	UserID        string
	Authorization string
}

// Auth middleware requires the Authorization and org-id headers and injects
// the resulting AuthContext into the request context. Requests missing
// either header are rejected with 401.
func Auth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get("Authorization")
			orgID := r.Header.Get(HeaderOrgID)

			if authorization == "" || orgID == "" {
				writeAuthError(w, "Authentication required. Please provide valid credentials.")
				return
			}

			ac := AuthContext{
				OrgID:         orgID,
				UserID:        r.Header.Get(HeaderUserID),
				Authorization: authorization,
			}

			ctx := context.WithValue(r.Context(), authContextKey, ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthFromContext returns the AuthContext stored by the Auth middleware.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(AuthContext)
	return ac, ok
}

// OrgIDFromContext returns the authenticated org ID, or "" if absent.
func OrgIDFromContext(ctx context.Context) string {
	if ac, ok := AuthFromContext(ctx); ok {
		return ac.OrgID
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
