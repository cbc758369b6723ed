package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/admissions-service/internal/domain"
	"github.com/spec-kit/admissions-service/internal/events"
	"github.com/spec-kit/admissions-service/internal/repository"
)

// SchoolService drives the school registration lifecycle and sub-entities.
type SchoolService struct {
	schools    repository.SchoolRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewSchoolService builds the service.
func NewSchoolService(schools repository.SchoolRepository, users repository.UserRepository, dispatcher events.Dispatcher) *SchoolService {
	return &SchoolService{schools: schools, users: users, dispatcher: dispatcher}
}

// RegisterSchool creates a pending registration owned by the calling school
// manager. A manager can own at most one school.
func (s *SchoolService) RegisterSchool(ctx context.Context, manager *domain.User, name, address string) (*domain.School, error) {
	if manager.Role != domain.RoleSchoolManager {
		return nil, ErrInvalidRole
	}
	if _, err := s.schools.GetByManagerID(ctx, manager.ID); err == nil {
		return nil, ErrInvalidTransition
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	school := &domain.School{
		Name:      name,
		Address:   address,
		Status:    domain.SchoolStatusPending,
		ManagerID: manager.ID,
	}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

// ApproveSchool moves a pending school to approved. The school row, the
// manager's school binding and the audit row change in one transaction.
func (s *SchoolService) ApproveSchool(ctx context.Context, actor *domain.User, schoolID, comment string) (*domain.School, error) {
	return s.transition(ctx, actor, schoolID, domain.SchoolStatusPending, domain.SchoolStatusApproved, comment, events.EventSchoolApproved)
}

// RejectSchool moves a pending school to rejected with a reviewer comment.
func (s *SchoolService) RejectSchool(ctx context.Context, actor *domain.User, schoolID, comment string) (*domain.School, error) {
	return s.transition(ctx, actor, schoolID, domain.SchoolStatusPending, domain.SchoolStatusRejected, comment, events.EventSchoolRejected)
}

// ResubmitSchool returns a rejected school to pending so reviewers see it
// again. Only the owning manager may resubmit.
func (s *SchoolService) ResubmitSchool(ctx context.Context, manager *domain.User, schoolID string) (*domain.School, error) {
	school, err := s.schools.GetByID(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if school.ManagerID != manager.ID {
		return nil, ErrInvalidRole
	}
	if school.Status != domain.SchoolStatusRejected {
		return nil, ErrInvalidTransition
	}

	change := &domain.SchoolStatusChange{
		SchoolID:  school.ID,
		OldStatus: domain.SchoolStatusRejected,
		NewStatus: domain.SchoolStatusPending,
		ActorID:   manager.ID,
	}
	if err := s.schools.TransitionStatus(ctx, change); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	school.Status = domain.SchoolStatusPending
	return school, nil
}

func (s *SchoolService) transition(ctx context.Context, actor *domain.User, schoolID string, from, to domain.SchoolStatus, comment string, eventType events.EventType) (*domain.School, error) {
	if actor.Role != domain.RoleSuperAdmin && actor.Role != domain.RoleInspector {
		return nil, ErrInvalidRole
	}

	school, err := s.schools.GetByID(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if school.Status != from {
		return nil, ErrInvalidTransition
	}

	change := &domain.SchoolStatusChange{
		SchoolID:  school.ID,
		OldStatus: from,
		NewStatus: to,
		ActorID:   actor.ID,
		Comment:   comment,
	}
	if err := s.schools.TransitionStatus(ctx, change); err != nil {
		// Another reviewer won the race on the same transition.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	school.Status = to

	if s.dispatcher != nil {
		managerEmail := ""
		if manager, err := s.users.GetByID(ctx, school.ManagerID); err == nil {
			managerEmail = manager.Email
		}
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			ActorID:   actor.ID,
			Timestamp: time.Now(),
			Payload: events.SchoolStatusPayload{
				SchoolID:     school.ID,
				SchoolName:   school.Name,
				ManagerEmail: managerEmail,
				NewStatus:    to,
				Comment:      comment,
			},
		})
	}
	return school, nil
}

// GetSchool loads one school.
func (s *SchoolService) GetSchool(ctx context.Context, id string) (*domain.School, error) {
	return s.schools.GetByID(ctx, id)
}

// ListSchools returns schools, optionally filtered by status.
func (s *SchoolService) ListSchools(ctx context.Context, status *domain.SchoolStatus) ([]domain.School, error) {
	return s.schools.List(ctx, status)
}

// StatusHistory returns the approval audit trail for a school.
func (s *SchoolService) StatusHistory(ctx context.Context, schoolID string) ([]domain.SchoolStatusChange, error) {
	return s.schools.ListStatusHistory(ctx, schoolID)
}

// ownedSchool checks the manager controls the school before sub-entity
// writes.
func (s *SchoolService) ownedSchool(ctx context.Context, manager *domain.User, schoolID string) (*domain.School, error) {
	school, err := s.schools.GetByID(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if school.ManagerID != manager.ID {
		return nil, ErrInvalidRole
	}
	return school, nil
}

// UpsertProfile creates or replaces the school profile.
func (s *SchoolService) UpsertProfile(ctx context.Context, manager *domain.User, profile *domain.SchoolProfile) error {
	if _, err := s.ownedSchool(ctx, manager, profile.SchoolID); err != nil {
		return err
	}
	return s.schools.UpsertProfile(ctx, profile)
}

// GetProfile loads a school profile.
func (s *SchoolService) GetProfile(ctx context.Context, schoolID string) (*domain.SchoolProfile, error) {
	return s.schools.GetProfile(ctx, schoolID)
}

// AddSpot declares admission capacity for a grade.
func (s *SchoolService) AddSpot(ctx context.Context, manager *domain.User, spot *domain.AdmissionSpot) error {
	if _, err := s.ownedSchool(ctx, manager, spot.SchoolID); err != nil {
		return err
	}
	return s.schools.CreateSpot(ctx, spot)
}

// ListSpots returns capacity rows for a school.
func (s *SchoolService) ListSpots(ctx context.Context, schoolID string) ([]domain.AdmissionSpot, error) {
	return s.schools.ListSpots(ctx, schoolID)
}

// AddGalleryEntry stores gallery metadata for a school.
func (s *SchoolService) AddGalleryEntry(ctx context.Context, manager *domain.User, entry *domain.GalleryEntry) error {
	if _, err := s.ownedSchool(ctx, manager, entry.SchoolID); err != nil {
		return err
	}
	return s.schools.AddGalleryEntry(ctx, entry)
}

// ListGallery returns gallery metadata for a school.
func (s *SchoolService) ListGallery(ctx context.Context, schoolID string) ([]domain.GalleryEntry, error) {
	return s.schools.ListGallery(ctx, schoolID)
}
