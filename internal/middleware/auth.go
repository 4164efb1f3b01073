package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"coursemart/internal/model"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// Claims is the subset of a Supabase access token the API reads.
type Claims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	jwt.StandardClaims
}

// Authenticator verifies Supabase access tokens and decides who is an admin.
type Authenticator struct {
	secret []byte
	admins map[string]struct{}
	logger zerolog.Logger
}

func NewAuthenticator(jwtSecret string, adminEmails map[string]struct{}, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(jwtSecret),
		admins: adminEmails,
		logger: logger.With().Str("middleware", "Auth").Logger(),
	}
}

// ParseToken validates an HS256 token and returns the user it was issued to.
func (a *Authenticator) ParseToken(tokenString string) (*model.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	_, listed := a.admins[email]
	return &model.User{
		UserID:  claims.Subject,
		Email:   email,
		IsAdmin: (email != "" && listed) || claims.AppMetadata.Role == "admin",
	}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Optional attaches the user when a valid token is present and lets anonymous requests through.
// A token that is present but invalid is rejected.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		a.authenticate(w, r, next)
	})
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.authenticate(w, r, next)
	})
}

// Admin must run after Required.
func (a *Authenticator) Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin {
			a.logger.Warn().Str("user_id", user.UserID).Msg("Non-admin tried an admin route")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) authenticate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	tokenString, ok := bearerToken(r)
	if !ok {
		a.logger.Debug().Msg("Missing or malformed authorization header")
		http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
		return
	}
	user, err := a.ParseToken(tokenString)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Invalid token")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*model.User)
	return user, ok && user != nil
}
