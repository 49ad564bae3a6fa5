package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/types"
)

type contextKey string

const tenantContextKey contextKey = "tenant"

type authMiddleware struct {
	store store.Store
}

func newAuthMiddleware(s store.Store) *authMiddleware {
	return &authMiddleware{
		store: s,
	}
}

// tenantAuth resolves the bearer api key to a tenant and puts it on the
// request context. Every downstream read and write is scoped to that tenant.
func (auth *authMiddleware) tenantAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		apiKey := extractBearerToken(req)
		if apiKey == "" {
			http.Error(res, "missing api key", http.StatusUnauthorized)
			return
		}

		tenant, err := auth.store.GetTenantByAPIKey(req.Context(), apiKey)
		if err != nil {
			http.Error(res, "invalid api key", http.StatusUnauthorized)
			return
		}

		req = req.WithContext(context.WithValue(req.Context(), tenantContextKey, tenant))
		next.ServeHTTP(res, req)
	})
}

func extractBearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return req.URL.Query().Get("api_key")
}

// getRequestTenant returns the tenant the auth middleware resolved. Routes
// behind tenantAuth always have one.
func getRequestTenant(req *http.Request) *types.Tenant {
	tenant, ok := req.Context().Value(tenantContextKey).(*types.Tenant)
	if !ok {
		return nil
	}
	return tenant
}
