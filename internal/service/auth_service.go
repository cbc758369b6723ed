package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/admissions-service/internal/auth"
	"github.com/spec-kit/admissions-service/internal/cache"
	"github.com/spec-kit/admissions-service/internal/config"
	"github.com/spec-kit/admissions-service/internal/domain"
	"github.com/spec-kit/admissions-service/internal/events"
	"github.com/spec-kit/admissions-service/internal/repository"
)

// ResetTicket is the single-use credential returned by a reset request.
type ResetTicket struct {
	Ticket    string
	ExpiresAt time.Time
}

// AuthService coordinates login, logout and the password reset flow.
type AuthService struct {
	users      repository.UserRepository
	sessions   cache.SessionCache
	tokens     *auth.TokenService
	dispatcher events.Dispatcher
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   cache.SessionCache
	Dispatcher events.Dispatcher
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		tokens:     auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL(), deps.Sessions, now),
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   cfg.Auth.ResetTTL(),
		now:        now,
	}
}

// Login authenticates a principal and issues a session token. Unknown email
// and wrong password fail differently on purpose; both map to 401.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrIncorrectPassword
	}

	token, exp, err := s.tokens.Issue(ctx, domain.SessionPrincipal{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Logout blacklists the presented token. Revocation is idempotent; logging
// out twice with the same token succeeds both times.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	return s.tokens.Revoke(ctx, rawToken, s.tokens.SessionTTL())
}

// RequestPasswordReset creates a single-use reset ticket for the principal
// owning the email and dispatches it out of band. Ticket creation is not
// rolled back when mail delivery fails.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*ResetTicket, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	ticket := uuid.NewString()
	expiresAt := s.now().Add(s.resetTTL)
	if err := s.sessions.Set(ctx, cache.ResetKey(ticket), []byte(user.ID), s.resetTTL); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventPasswordResetRequested,
			Timestamp: s.now(),
			Payload: events.PasswordResetRequestedPayload{
				Email:     user.Email,
				Ticket:    ticket,
				ExpiresAt: expiresAt,
			},
		})
	}

	return &ResetTicket{Ticket: ticket, ExpiresAt: expiresAt}, nil
}

// ResetPassword consumes a reset ticket and stores the new password hash.
// Consumption is an atomic get-and-delete, so of two concurrent calls with
// the same ticket exactly one succeeds; the other sees the ticket as gone.
func (s *AuthService) ResetPassword(ctx context.Context, ticket, newPassword string) error {
	userID, err := s.sessions.GetDel(ctx, cache.ResetKey(ticket))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return ErrInvalidOrExpiredTicket
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, string(userID), hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidOrExpiredTicket
		}
		return err
	}
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return ErrIncorrectPassword
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// TokenService exposes the underlying token service for gate wiring.
func (s *AuthService) TokenService() *auth.TokenService {
	return s.tokens
}
