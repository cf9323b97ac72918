package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// adminClaims is the JWT claim set accepted on /admin/* routes. Only the role
// claim is load-bearing; everything else rides along for audit logging.
type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey string

const ctxAdminSubjectKey ctxKey = "httpapi.admin_subject"

// AdminAuth verifies the bearer token on /admin/* routes. A zero-value
// AdminAuth (empty secret) rejects every admin request rather than silently
// admitting callers; there is no "auth disabled" mode for the registry's
// mutating endpoints.
type AdminAuth struct {
	secret []byte
}

// NewAdminAuth builds an AdminAuth from the configured JWT secret.
func NewAdminAuth(jwtSecret string) *AdminAuth {
	return &AdminAuth{secret: []byte(strings.TrimSpace(jwtSecret))}
}

func (a *AdminAuth) validate(token string) (*adminClaims, error) {
	if a == nil || len(a.secret) == 0 {
		return nil, fmt.Errorf("admin auth: jwt secret not configured")
	}
	claims := &adminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("admin auth: invalid token")
	}
	if !strings.EqualFold(claims.Role, "admin") {
		return nil, fmt.Errorf("admin auth: role %q is not admin", claims.Role)
	}
	return claims, nil
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w)
			return
		}
		claims, err := s.auth.validate(token)
		if err != nil {
			s.logger.Warn().Err(err).Msg("admin auth rejected")
			unauthorized(w)
			return
		}
		subject := claims.Subject
		ctx := context.WithValue(r.Context(), ctxAdminSubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
}
