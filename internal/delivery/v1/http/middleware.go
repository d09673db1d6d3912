package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

type claimsCtxKey struct{}

// AuthMiddleware проверяет Bearer-токен и кладёт его полезную нагрузку в контекст.
type AuthMiddleware struct {
	cfg    *cfg.AuthCfg
	logger logger.Logger
}

func NewAuthMiddleware(cfg *cfg.AuthCfg, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		cfg:    cfg,
		logger: logger,
	}
}

// Authenticate отклоняет запросы без валидного токена.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.parseToken(r)
		if err != nil {
			m.logger.Warnf("auth failed: %v", err)
			WriteError(w, e.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole пропускает только перечисленные роли. Вешается после Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromCtx(r.Context())
			if !ok {
				WriteError(w, e.ErrUnauthorized)
				return
			}

			if _, ok := allowed[claims.Role]; !ok {
				WriteError(w, e.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) parseToken(r *http.Request) (*usecase.TokenClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, e.ErrUnauthorized
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	claims := &usecase.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, e.ErrUnauthorized
		}
		return []byte(m.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, e.ErrUnauthorized
	}

	return claims, nil
}

// ClaimsFromCtx достаёт полезную нагрузку токена из контекста запроса.
func ClaimsFromCtx(ctx context.Context) (*usecase.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*usecase.TokenClaims)
	return claims, ok
}
