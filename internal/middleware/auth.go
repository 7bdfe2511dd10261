package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/pkg/jwt"
)

// TokenVerifier checks a bearer token's signature and claims
type TokenVerifier interface {
	Validate(token string) (*jwt.Claims, error)
}

// UserLookup resolves a token subject to the current account.
// A missing user is reported as (nil, nil).
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthGate authenticates bearer tokens and checks roles
type AuthGate struct {
	verifier TokenVerifier
	users    UserLookup
}

// NewAuthGate creates an auth gate
func NewAuthGate(verifier TokenVerifier, users UserLookup) *AuthGate {
	return &AuthGate{verifier: verifier, users: users}
}

// Authenticate verifies token and resolves its subject to an active account.
// The role is read from the account, not the token, so a demotion or
// deactivation takes effect on the next request.
func (g *AuthGate) Authenticate(ctx context.Context, token string) (*model.CallerIdentity, error) {
	claims, err := g.verifier.Validate(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.NewUnauthorizedError("token expired")
		}
		return nil, model.NewUnauthorizedError("could not validate credentials")
	}

	user, err := g.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, model.NewUnauthorizedError("could not validate credentials")
	}

	return &model.CallerIdentity{
		SubjectID: user.ID,
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}

// Authorize passes when the caller holds any of roles. No roles means any
// authenticated caller.
func (g *AuthGate) Authorize(caller *model.CallerIdentity, roles ...model.UserRole) error {
	if caller == nil {
		return model.NewUnauthorizedError("not authenticated")
	}
	if len(roles) == 0 || caller.HasRole(roles...) {
		return nil
	}
	return model.NewForbiddenError("not enough permissions")
}

// Require authenticates the request and checks roles before the handler runs
func (g *AuthGate) Require(roles ...model.UserRole) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			caller, err := g.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			if err := g.Authorize(caller, roles...); err != nil {
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", model.NewUnauthorizedError("missing authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", model.NewUnauthorizedError("invalid authorization header format")
	}
	return token, nil
}

// WithCaller returns a copy of ctx carrying caller
func WithCaller(ctx context.Context, caller *model.CallerIdentity) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCaller extracts the authenticated caller from context
func GetCaller(ctx context.Context) *model.CallerIdentity {
	if caller, ok := ctx.Value(CallerKey).(*model.CallerIdentity); ok {
		return caller
	}
	return nil
}
