package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/admissions-service/internal/domain"
	"github.com/spec-kit/admissions-service/internal/events"
	"github.com/spec-kit/admissions-service/internal/repository"
)

// StudentService runs the student admission workflow inside one school.
type StudentService struct {
	students   repository.StudentRepository
	schools    repository.SchoolRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewStudentService builds the service.
func NewStudentService(students repository.StudentRepository, schools repository.SchoolRepository, dispatcher events.Dispatcher) *StudentService {
	return &StudentService{students: students, schools: schools, dispatcher: dispatcher, now: time.Now}
}

// schoolOf resolves the school an admission manager acts for.
func schoolOf(actor *domain.User) (string, error) {
	if actor.Role != domain.RoleAdmissionManager || actor.SchoolID == nil {
		return "", ErrInvalidRole
	}
	return *actor.SchoolID, nil
}

// RegisterStudent records an application at the actor's own school.
func (s *StudentService) RegisterStudent(ctx context.Context, actor *domain.User, name, guardianEmail string, grade int) (*domain.Student, error) {
	schoolID, err := schoolOf(actor)
	if err != nil {
		return nil, err
	}

	student := &domain.Student{
		SchoolID:      schoolID,
		Name:          name,
		GuardianEmail: guardianEmail,
		Grade:         grade,
		Status:        domain.StudentStatusPending,
		CreatedByID:   actor.ID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// ApproveStudent approves a pending application, reserving one admission
// spot for the grade. The conditional decrement keeps concurrent approvals
// from overbooking a grade.
func (s *StudentService) ApproveStudent(ctx context.Context, actor *domain.User, studentID string) (*domain.Student, error) {
	schoolID, err := schoolOf(actor)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.SchoolID != schoolID {
		return nil, ErrInvalidRole
	}
	if student.Status != domain.StudentStatusPending {
		return nil, ErrInvalidTransition
	}

	if err := s.schools.ReserveSpot(ctx, schoolID, student.Grade); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCapacity
		}
		return nil, err
	}
	if err := s.students.UpdateStatus(ctx, student.ID, domain.StudentStatusPending, domain.StudentStatusApproved); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	student.Status = domain.StudentStatusApproved
	return student, nil
}

// IssueAdmissionDocument assigns the admission document number to an
// approved student and marks them admitted.
func (s *StudentService) IssueAdmissionDocument(ctx context.Context, actor *domain.User, studentID string) (*domain.Student, error) {
	schoolID, err := schoolOf(actor)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.SchoolID != schoolID {
		return nil, ErrInvalidRole
	}
	if student.Status != domain.StudentStatusApproved {
		return nil, ErrInvalidTransition
	}

	seq, err := s.students.NextDocumentSequence(ctx)
	if err != nil {
		return nil, err
	}
	docNumber := fmt.Sprintf("ADM-%d-%06d", s.now().Year(), seq)

	if err := s.students.SetDocumentNumber(ctx, student.ID, docNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	student.Status = domain.StudentStatusAdmitted
	student.DocumentNumber = &docNumber

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventStudentAdmitted,
			ActorID:   actor.ID,
			Timestamp: s.now(),
			Payload: events.StudentAdmittedPayload{
				StudentID:      student.ID,
				StudentName:    student.Name,
				GuardianEmail:  student.GuardianEmail,
				DocumentNumber: docNumber,
			},
		})
	}
	return student, nil
}

// ListStudents returns applications for the actor's school.
func (s *StudentService) ListStudents(ctx context.Context, actor *domain.User, status *domain.StudentStatus) ([]domain.Student, error) {
	schoolID, err := schoolOf(actor)
	if err != nil {
		return nil, err
	}
	return s.students.List(ctx, schoolID, status)
}
