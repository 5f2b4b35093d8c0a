package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/pkg/domain"
	"hrcore/pkg/platform/middleware/metadata"
	"hrcore/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

func serve(t *testing.T, h http.Handler, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/permissions", nil)
	req.Header.Set("User-Agent", "curl/8")
	req.Header.Set(metadata.RequestIDHeader, "req-42")
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	metadata.ClientMetadata(h).ServeHTTP(rec, req)
	return rec
}

func TestRequireCaller(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	userID, orgID := uuid.New(), uuid.New()
	valid := &JWTClaims{UserID: userID.String(), OrganizationID: orgID.String(), Role: "hr_admin", JTI: "j1"}

	var seen requestcontext.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestcontext.CallerFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token populates the caller", func(t *testing.T) {
		rec := serve(t, RequireCaller(stubValidator{claims: valid}, logger)(next), "Bearer tok")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.UserID(userID), seen.UserID)
		assert.Equal(t, domain.OrganizationID(orgID), seen.OrganizationID)
		assert.Equal(t, domain.RoleHRAdmin, seen.Role)
		assert.Equal(t, "req-42", seen.RequestID)
		assert.Equal(t, "curl/8", seen.UserAgent)
		assert.NotEmpty(t, seen.IPAddress)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := serve(t, RequireCaller(stubValidator{claims: valid}, logger)(next), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := serve(t, RequireCaller(stubValidator{err: errors.New("bad sig")}, logger)(next), "Bearer tok")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown role in claims", func(t *testing.T) {
		bad := *valid
		bad.Role = "owner"
		rec := serve(t, RequireCaller(stubValidator{claims: &bad}, logger)(next), "Bearer tok")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole(domain.RoleSuperAdmin, logger)(ok)

	for role, want := range map[domain.Role]int{
		domain.RoleHRAdmin:    http.StatusForbidden,
		domain.RoleSuperAdmin: http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodDelete, "/admin/audit", nil)
		req = req.WithContext(requestcontext.WithCaller(req.Context(), requestcontext.Caller{Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/audit", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
