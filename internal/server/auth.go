package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
)

var errUnauthenticated = errors.New("unauthenticated")

type actorKey struct{}

// Claims is the token body issued by the auth service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and turns them into actors.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Issue signs a token for actor. The API never issues tokens itself; tests
// and local tooling do.
func (a *Authenticator) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Actor reads the token from the Authorization header, or from the
// access_token query parameter for EventSource clients that cannot set headers.
func (a *Authenticator) Actor(r *http.Request) (domain.Actor, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if raw == "" {
		raw = r.URL.Query().Get("access_token")
	}
	if raw == "" {
		return domain.Actor{}, errUnauthenticated
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", errUnauthenticated, err)
	}
	if claims.Subject == "" || claims.Role == "" {
		return domain.Actor{}, fmt.Errorf("%w: token without subject or role", errUnauthenticated)
	}
	return domain.Actor{ID: claims.Subject, Role: domain.Role(claims.Role)}, nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.Auth.Actor(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="freightbid"`)
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		s.registerUser(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

// registerUser records the caller the first time it is seen with a role.
// Failures are logged and retried on the next request.
func (s *Server) registerUser(ctx context.Context, actor domain.Actor) {
	if s.Users == nil || actor.Is(domain.RoleService) {
		return
	}
	if role, ok := s.known.Load(actor.ID); ok && role == actor.Role {
		return
	}
	if err := s.Users.UpsertUser(ctx, actor.ID, string(actor.Role)); err != nil {
		s.logger.Warn("failed to register user", zap.String("user_id", actor.ID), zap.Error(err))
		return
	}
	s.known.Store(actor.ID, actor.Role)
}

func withActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorKey{}).(domain.Actor)
	return actor
}
