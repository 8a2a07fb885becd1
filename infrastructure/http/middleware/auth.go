package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jurix/jurix/infrastructure/http/response"
	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/internal/domain"
)

type ctxKey int

const actorKey ctxKey = iota

// Authenticator resolves the active user behind a bearer token
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
	logger        logger.Logger
}

func NewAuthMiddleware(authenticator Authenticator, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		logger:        log,
	}
}

// RequireAuth rejects requests without a valid token for an active user and
// stores the resulting Actor in the request context
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		user, err := m.authenticator.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if domain.IsUnauthorized(err) {
				response.FromError(w, err)
				return
			}
			m.logger.Error(r.Context(), "Failed to authenticate request", err, nil)
			response.InternalServerError(w, "Failed to authenticate request")
			return
		}

		actor := user.Actor(ClientIP(r), r.UserAgent())
		ctx := WithActor(r.Context(), actor)
		ctx = logger.WithUserID(ctx, actor.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithActor returns a copy of ctx carrying actor
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the actor stored by RequireAuth
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
