package mw

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/harshita194/sweet-shop/internal/domain"
)

const tokenTTL = 24 * time.Hour

type userCtxKeyType int

const userCtxKey userCtxKeyType = iota

type customClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// UserResolver looks up the current state of a user. The token only names
// the user; the role is always read back from the store so promotions and
// deletions take effect immediately.
type UserResolver interface {
	ResolveUser(ctx context.Context, id string) (*domain.User, error)
}

type Auth struct {
	secret   []byte
	resolver UserResolver
}

func New(secret []byte, resolver UserResolver) *Auth {
	return &Auth{secret: secret, resolver: resolver}
}

func (a *Auth) GenerateToken(userID string) (string, error) {
	claims := customClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Authenticate resolves the bearer token into the current user and fails
// closed with 401. It must wrap every protected route, including the
// admin-only ones, so that missing credentials never surface as 403.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid token format")
			return
		}
		token, err := jwt.ParseWithClaims(parts[1], &customClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		claims, ok := token.Claims.(*customClaims)
		if !ok || !token.Valid {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := a.resolver.ResolveUser(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Authenticate.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userCtxKey).(*domain.User)
	return user
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"message":"` + message + `"}`))
}
