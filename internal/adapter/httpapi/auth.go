package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/inventory-dashboard/internal/domain"
)

// RoleAdmin — роль, которой разрешены запись и запуск синхронизации.
const RoleAdmin = "admin"

type ctxKey string

const userKey ctxKey = "auth_user"

// Claims — полезная нагрузка токена. Токены выпускает внешний сервис.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// User — проверенный пользователь запроса.
type User struct {
	Subject string
	Role    string
}

// TokenVerifier проверяет подпись HS256, издателя и срок действия.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *TokenVerifier) Verify(raw string) (User, error) {
	var cl Claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	tkn, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return User{}, errors.Join(domain.ErrUnauth, err)
	}
	if !tkn.Valid {
		return User{}, domain.ErrUnauth
	}
	return User{Subject: cl.Subject, Role: cl.Role}, nil
}

// UserFromCtx — пользователь, положенный в контекст withAuth.
func UserFromCtx(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r.Header.Get("Authorization"))
		if raw == "" {
			s.writeError(w, r, domain.ErrUnauth)
			return
		}
		u, err := s.tokens.Verify(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

func (s *Server) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.withAuth(func(w http.ResponseWriter, r *http.Request) {
		if u, _ := UserFromCtx(r.Context()); u.Role != RoleAdmin {
			s.writeError(w, r, domain.ErrForbidden)
			return
		}
		next(w, r)
	})
}

func extractBearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
