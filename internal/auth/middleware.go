package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/admissions-service/internal/domain"
	"github.com/spec-kit/admissions-service/internal/repository"
	apperrors "github.com/spec-kit/admissions-service/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	rawTokenKey  = "auth_raw_token"
	scopeKey     = "auth_managed_scope"
	targetKey    = "auth_target_user"
)

// Gate composes token verification and hierarchy authorization into
// reusable guards. Stages are strictly ordered: authentication, then
// managed-role resolution, then target-resource scoping.
type Gate struct {
	tokens *TokenService
	users  repository.UserRepository
	logger *zap.Logger
}

// NewGate constructs the request gate.
func NewGate(tokens *TokenService, users repository.UserRepository, logger *zap.Logger) *Gate {
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// Handle authenticates the bearer token and attaches the live principal.
// The caller sees a generic unauthorized message; the specific cause is
// logged.
func (g *Gate) Handle(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return apperrors.NewUnauthorized("Authorization header missing")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return apperrors.NewUnauthorized("Token missing")
	}
	raw := parts[1]

	session, err := g.tokens.Verify(c.UserContext(), raw)
	if err != nil {
		switch {
		case errors.Is(err, ErrMalformedToken), errors.Is(err, ErrTokenRevoked),
			errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrTokenExpired):
			g.logger.Info("token rejected", zap.String("cause", err.Error()))
			return apperrors.NewUnauthorized("Unauthorized")
		default:
			return apperrors.MapError(err)
		}
	}

	// Re-load the principal so soft-deleted accounts and stale role claims
	// are caught even while the session record is still live.
	user, err := g.users.GetByID(c.UserContext(), session.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			g.logger.Info("token principal no longer active", zap.String("user_id", session.ID))
			return apperrors.NewUnauthorized("Unauthorized")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, user)
	c.Locals(rawTokenKey, raw)
	return c.Next()
}

// RequireManagedRoles resolves the caller's managed scope and attaches it.
// Principals without any managed roles are rejected.
func RequireManagedRoles() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("Unauthorized")
		}
		scope, err := ResolveManagedRoles(principal)
		if err != nil {
			if errors.Is(err, ErrSchoolRequired) {
				return apperrors.NewValidationError(err.Error(), nil)
			}
			return apperrors.NewForbidden(err.Error())
		}
		c.Locals(scopeKey, scope)
		return c.Next()
	}
}

// LoadManagedUser loads the user named by the route parameter and confirms
// it falls inside the caller's managed scope. A missing user is 404; a user
// outside the scope is 403.
func (g *Gate) LoadManagedUser(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope, ok := ScopeFromContext(c)
		if !ok {
			return apperrors.NewForbidden("no managed roles")
		}
		target, err := g.users.GetByID(c.UserContext(), c.Params(param))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", nil)
			}
			return apperrors.MapError(err)
		}
		if err := scope.AuthorizeExisting(target); err != nil {
			return apperrors.NewForbidden(err.Error())
		}
		c.Locals(targetKey, target)
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated user.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	principal, ok := c.Locals(principalKey).(*domain.User)
	return principal, ok
}

// RawTokenFromContext retrieves the bearer token the caller presented.
func RawTokenFromContext(c *fiber.Ctx) (string, bool) {
	raw, ok := c.Locals(rawTokenKey).(string)
	return raw, ok
}

// ScopeFromContext retrieves the resolved managed scope.
func ScopeFromContext(c *fiber.Ctx) (*ManagedScope, bool) {
	scope, ok := c.Locals(scopeKey).(*ManagedScope)
	return scope, ok
}

// TargetUserFromContext retrieves the scoped target user.
func TargetUserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	target, ok := c.Locals(targetKey).(*domain.User)
	return target, ok
}
