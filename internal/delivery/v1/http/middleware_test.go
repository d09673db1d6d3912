package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

const testSecret = "test-secret"

func newMiddleware() *AuthMiddleware {
	return NewAuthMiddleware(&cfg.AuthCfg{JWTSecret: testSecret, TokenTTL: time.Hour}, nopLogger{})
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims usecase.TokenClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func userClaims(role string, expiresIn time.Duration) usecase.TokenClaims {
	customerID := int64(7)
	return usecase.TokenClaims{
		UserID:     3,
		Username:   "ivan",
		CustomerID: &customerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	mw := newMiddleware()

	var gotClaims *usecase.TokenClaims
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.SigningMethodHS256, userClaims(domain.RoleUser, time.Hour))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, "ivan", gotClaims.Username)
		require.NotNil(t, gotClaims.CustomerID)
		assert.Equal(t, int64(7), *gotClaims.CustomerID)
	})

	rejected := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", jwt.SigningMethodHS256, userClaims(domain.RoleUser, time.Hour))},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, userClaims(domain.RoleUser, -time.Minute))},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	mw := newMiddleware()

	handler := mw.Authenticate(
		mw.RequireRole(domain.RoleEmployee, domain.RoleAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		),
	)

	tests := []struct {
		role string
		code int
	}{
		{domain.RoleAdmin, http.StatusOK},
		{domain.RoleEmployee, http.StatusOK},
		{domain.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			token := signToken(t, testSecret, jwt.SigningMethodHS256, userClaims(tt.role, time.Hour))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

// RequireRole без Authenticate впереди отклоняет запрос: клеймов в контексте нет.
func TestRequireRole_NoClaims(t *testing.T) {
	t.Parallel()

	mw := newMiddleware()
	handler := mw.RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
