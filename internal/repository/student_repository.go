package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/admissions-service/internal/domain"
)

// StudentRepository handles persistence for student applications.
type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) error
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	List(ctx context.Context, schoolID string, status *domain.StudentStatus) ([]domain.Student, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.StudentStatus) error
	// NextDocumentSequence draws the next admission-document sequence value.
	NextDocumentSequence(ctx context.Context) (int64, error)
	SetDocumentNumber(ctx context.Context, id, documentNumber string) error
}

type studentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(pool *pgxpool.Pool) StudentRepository {
	return &studentRepository{pool: pool}
}

const studentColumns = "id, school_id, name, guardian_email, grade, status, document_number, created_by, created_at, updated_at"

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var student domain.Student
	if err := row.Scan(
		&student.ID,
		&student.SchoolID,
		&student.Name,
		&student.GuardianEmail,
		&student.Grade,
		&student.Status,
		&student.DocumentNumber,
		&student.CreatedByID,
		&student.CreatedAt,
		&student.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *domain.Student) error {
	const query = `
        INSERT INTO students (school_id, name, guardian_email, grade, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		student.SchoolID,
		student.Name,
		student.GuardianEmail,
		student.Grade,
		student.Status,
		student.CreatedByID,
	).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE id=$1`
	return scanStudent(r.pool.QueryRow(ctx, query, id))
}

func (r *studentRepository) List(ctx context.Context, schoolID string, status *domain.StudentStatus) ([]domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE school_id=$1`
	args := []any{schoolID}
	if status != nil {
		query += " AND status=$2"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *student)
	}
	return students, rows.Err()
}

func (r *studentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.StudentStatus) error {
	const query = `
        UPDATE students SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`

	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *studentRepository) NextDocumentSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('admission_document_seq')`).Scan(&seq)
	return seq, err
}

func (r *studentRepository) SetDocumentNumber(ctx context.Context, id, documentNumber string) error {
	const query = `
        UPDATE students SET document_number=$1, status=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4`

	cmd, err := r.pool.Exec(ctx, query, documentNumber, domain.StudentStatusAdmitted, id, domain.StudentStatusApproved)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
