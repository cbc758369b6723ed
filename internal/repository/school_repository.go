package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/admissions-service/internal/domain"
)

// SchoolRepository handles persistence for schools, their profile, spots and
// gallery rows, and the approval audit trail.
type SchoolRepository interface {
	Create(ctx context.Context, school *domain.School) error
	Update(ctx context.Context, school *domain.School) error
	GetByID(ctx context.Context, id string) (*domain.School, error)
	GetByManagerID(ctx context.Context, managerID string) (*domain.School, error)
	List(ctx context.Context, status *domain.SchoolStatus) ([]domain.School, error)
	// TransitionStatus updates the school row, binds the manager to the
	// school on approval, and appends a status-history row, all in one
	// transaction.
	TransitionStatus(ctx context.Context, change *domain.SchoolStatusChange) error
	ListStatusHistory(ctx context.Context, schoolID string) ([]domain.SchoolStatusChange, error)

	UpsertProfile(ctx context.Context, profile *domain.SchoolProfile) error
	GetProfile(ctx context.Context, schoolID string) (*domain.SchoolProfile, error)

	CreateSpot(ctx context.Context, spot *domain.AdmissionSpot) error
	ListSpots(ctx context.Context, schoolID string) ([]domain.AdmissionSpot, error)
	// ReserveSpot decrements remaining capacity for the grade, failing with
	// pgx.ErrNoRows when no capacity is left. The conditional UPDATE is what
	// keeps concurrent approvals from overbooking.
	ReserveSpot(ctx context.Context, schoolID string, grade int) error

	AddGalleryEntry(ctx context.Context, entry *domain.GalleryEntry) error
	ListGallery(ctx context.Context, schoolID string) ([]domain.GalleryEntry, error)
}

type schoolRepository struct {
	pool *pgxpool.Pool
}

// NewSchoolRepository instantiates the repository.
func NewSchoolRepository(pool *pgxpool.Pool) SchoolRepository {
	return &schoolRepository{pool: pool}
}

func (r *schoolRepository) Create(ctx context.Context, school *domain.School) error {
	const query = `
        INSERT INTO schools (name, address, status, manager_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		school.Name,
		school.Address,
		school.Status,
		school.ManagerID,
	).Scan(&school.ID, &school.CreatedAt, &school.UpdatedAt)
}

func (r *schoolRepository) Update(ctx context.Context, school *domain.School) error {
	const query = `
        UPDATE schools SET name=$1, address=$2, status=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query, school.Name, school.Address, school.Status, school.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *schoolRepository) GetByID(ctx context.Context, id string) (*domain.School, error) {
	const query = `
        SELECT id, name, address, status, manager_id, created_at, updated_at
        FROM schools WHERE id=$1`
	return scanSchool(r.pool.QueryRow(ctx, query, id))
}

func (r *schoolRepository) GetByManagerID(ctx context.Context, managerID string) (*domain.School, error) {
	const query = `
        SELECT id, name, address, status, manager_id, created_at, updated_at
        FROM schools WHERE manager_id=$1`
	return scanSchool(r.pool.QueryRow(ctx, query, managerID))
}

func scanSchool(row pgx.Row) (*domain.School, error) {
	var school domain.School
	if err := row.Scan(
		&school.ID,
		&school.Name,
		&school.Address,
		&school.Status,
		&school.ManagerID,
		&school.CreatedAt,
		&school.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *schoolRepository) List(ctx context.Context, status *domain.SchoolStatus) ([]domain.School, error) {
	query := `
        SELECT id, name, address, status, manager_id, created_at, updated_at
        FROM schools`
	args := []any{}
	if status != nil {
		query += " WHERE status=$1"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schools []domain.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, err
		}
		schools = append(schools, *school)
	}
	return schools, rows.Err()
}

func (r *schoolRepository) TransitionStatus(ctx context.Context, change *domain.SchoolStatusChange) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx,
		`UPDATE schools SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		change.NewStatus, change.SchoolID, change.OldStatus)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if change.NewStatus == domain.SchoolStatusApproved {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET school_id=$1, updated_at=NOW()
             WHERE id=(SELECT manager_id FROM schools WHERE id=$1) AND deleted_at IS NULL`,
			change.SchoolID); err != nil {
			return err
		}
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO school_status_history (school_id, old_status, new_status, actor_id, comment)
         VALUES ($1,$2,$3,$4,$5)
         RETURNING id, created_at`,
		change.SchoolID, change.OldStatus, change.NewStatus, change.ActorID, change.Comment,
	).Scan(&change.ID, &change.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *schoolRepository) ListStatusHistory(ctx context.Context, schoolID string) ([]domain.SchoolStatusChange, error) {
	const query = `
        SELECT id, school_id, old_status, new_status, actor_id, comment, created_at
        FROM school_status_history WHERE school_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.SchoolStatusChange
	for rows.Next() {
		var change domain.SchoolStatusChange
		if err := rows.Scan(
			&change.ID,
			&change.SchoolID,
			&change.OldStatus,
			&change.NewStatus,
			&change.ActorID,
			&change.Comment,
			&change.CreatedAt,
		); err != nil {
			return nil, err
		}
		history = append(history, change)
	}
	return history, rows.Err()
}

func (r *schoolRepository) UpsertProfile(ctx context.Context, profile *domain.SchoolProfile) error {
	const query = `
        INSERT INTO school_profiles (school_id, description, phone, website)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (school_id) DO UPDATE
        SET description=EXCLUDED.description, phone=EXCLUDED.phone,
            website=EXCLUDED.website, updated_at=NOW()
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.SchoolID,
		profile.Description,
		profile.Phone,
		profile.Website,
	).Scan(&profile.UpdatedAt)
}

func (r *schoolRepository) GetProfile(ctx context.Context, schoolID string) (*domain.SchoolProfile, error) {
	const query = `
        SELECT school_id, description, phone, website, updated_at
        FROM school_profiles WHERE school_id=$1`

	var profile domain.SchoolProfile
	if err := r.pool.QueryRow(ctx, query, schoolID).Scan(
		&profile.SchoolID,
		&profile.Description,
		&profile.Phone,
		&profile.Website,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *schoolRepository) CreateSpot(ctx context.Context, spot *domain.AdmissionSpot) error {
	const query = `
        INSERT INTO admission_spots (school_id, grade, capacity, remaining)
        VALUES ($1,$2,$3,$3)
        RETURNING id, remaining, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		spot.SchoolID,
		spot.Grade,
		spot.Capacity,
	).Scan(&spot.ID, &spot.Remaining, &spot.CreatedAt, &spot.UpdatedAt)
}

func (r *schoolRepository) ListSpots(ctx context.Context, schoolID string) ([]domain.AdmissionSpot, error) {
	const query = `
        SELECT id, school_id, grade, capacity, remaining, created_at, updated_at
        FROM admission_spots WHERE school_id=$1 ORDER BY grade`

	rows, err := r.pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []domain.AdmissionSpot
	for rows.Next() {
		var spot domain.AdmissionSpot
		if err := rows.Scan(
			&spot.ID,
			&spot.SchoolID,
			&spot.Grade,
			&spot.Capacity,
			&spot.Remaining,
			&spot.CreatedAt,
			&spot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		spots = append(spots, spot)
	}
	return spots, rows.Err()
}

func (r *schoolRepository) ReserveSpot(ctx context.Context, schoolID string, grade int) error {
	const query = `
        UPDATE admission_spots SET remaining=remaining-1, updated_at=NOW()
        WHERE school_id=$1 AND grade=$2 AND remaining > 0`

	cmd, err := r.pool.Exec(ctx, query, schoolID, grade)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *schoolRepository) AddGalleryEntry(ctx context.Context, entry *domain.GalleryEntry) error {
	const query = `
        INSERT INTO school_gallery (school_id, title, image_url)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.SchoolID,
		entry.Title,
		entry.ImageURL,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *schoolRepository) ListGallery(ctx context.Context, schoolID string) ([]domain.GalleryEntry, error) {
	const query = `
        SELECT id, school_id, title, image_url, created_at
        FROM school_gallery WHERE school_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.GalleryEntry
	for rows.Next() {
		var entry domain.GalleryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SchoolID,
			&entry.Title,
			&entry.ImageURL,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
