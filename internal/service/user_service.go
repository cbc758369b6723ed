package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/admissions-service/internal/auth"
	"github.com/spec-kit/admissions-service/internal/domain"
	"github.com/spec-kit/admissions-service/internal/events"
	"github.com/spec-kit/admissions-service/internal/repository"
)

// UserService manages subordinate principals within a caller's managed
// scope. Every operation takes the scope the gate resolved for the caller.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: bcryptCost}
}

// CreateUserInput carries fields for creating a managed principal.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.RoleName
	SchoolID *string
}

// UpdateUserInput carries a partial update for a managed principal.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *domain.RoleName
	SchoolID *string
}

// CreateUser creates a principal with a role inside the caller's managed
// scope. Subordinate roles must carry a school binding regardless of who
// creates them.
func (s *UserService) CreateUser(ctx context.Context, scope *auth.ManagedScope, input CreateUserInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := scope.AuthorizeCreate(input.Role, input.SchoolID); err != nil {
		return nil, err
	}
	if input.Role.SchoolScoped() && (input.SchoolID == nil || *input.SchoolID == "") {
		return nil, auth.ErrSchoolRequired
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		SchoolID:     input.SchoolID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserCreated,
			Timestamp: time.Now(),
			Payload: events.UserCreatedPayload{
				UserID:   user.ID,
				Email:    user.Email,
				Name:     user.Name,
				Role:     user.Role,
				SchoolID: user.SchoolID,
			},
		})
	}
	return user, nil
}

// ListUsers returns the principals inside the caller's managed scope.
func (s *UserService) ListUsers(ctx context.Context, scope *auth.ManagedScope, limit, offset int) ([]domain.User, error) {
	return s.users.List(ctx, repository.UserFilter{
		Roles:    scope.Roles(),
		SchoolID: scope.SchoolID,
		Limit:    limit,
		Offset:   offset,
	})
}

// UpdateUser applies a patch to a target the gate has already confirmed is
// inside the caller's scope. Role or school changes are re-authorized
// against the scope so a manager cannot move a subordinate out of reach.
func (s *UserService) UpdateUser(ctx context.Context, scope *auth.ManagedScope, target *domain.User, patch UpdateUserInput) (*domain.User, error) {
	if patch.Name != nil {
		target.Name = *patch.Name
	}
	if patch.Email != nil && *patch.Email != target.Email {
		if _, err := s.users.GetByEmail(ctx, *patch.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		target.Email = *patch.Email
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, ErrInvalidRole
		}
		target.Role = *patch.Role
	}
	if patch.SchoolID != nil {
		target.SchoolID = patch.SchoolID
	}

	if err := scope.AuthorizeCreate(target.Role, target.SchoolID); err != nil {
		return nil, err
	}
	if target.Role.SchoolScoped() && (target.SchoolID == nil || *target.SchoolID == "") {
		return nil, auth.ErrSchoolRequired
	}

	if err := s.users.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// DeleteUser tombstones a managed principal. The row is kept; reads treat
// it as absent and the gate rejects its surviving sessions.
func (s *UserService) DeleteUser(ctx context.Context, target *domain.User) error {
	return s.users.SoftDelete(ctx, target.ID)
}

// ResetUserPassword lets a manager reset a subordinate's password directly.
func (s *UserService) ResetUserPassword(ctx context.Context, target *domain.User, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, target.ID, hash)
}
