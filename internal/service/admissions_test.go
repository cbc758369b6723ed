package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admissions-service/internal/domain"
)

// fakeSchoolRepo is an in-memory, thread-safe school store.
type fakeSchoolRepo struct {
	mu       sync.Mutex
	schools  map[string]*domain.School
	history  []domain.SchoolStatusChange
	spots    map[string]*domain.AdmissionSpot
	profiles map[string]*domain.SchoolProfile
	gallery  map[string][]domain.GalleryEntry
}

func newFakeSchoolRepo() *fakeSchoolRepo {
	return &fakeSchoolRepo{
		schools:  make(map[string]*domain.School),
		spots:    make(map[string]*domain.AdmissionSpot),
		profiles: make(map[string]*domain.SchoolProfile),
		gallery:  make(map[string][]domain.GalleryEntry),
	}
}

func spotKey(schoolID string, grade int) string {
	return schoolID + "|" + strconv.Itoa(grade)
}

func (r *fakeSchoolRepo) Create(_ context.Context, school *domain.School) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	school.ID = uuid.NewString()
	school.CreatedAt = time.Now()
	school.UpdatedAt = school.CreatedAt
	clone := *school
	r.schools[school.ID] = &clone
	return nil
}

func (r *fakeSchoolRepo) Update(_ context.Context, school *domain.School) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schools[school.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *school
	r.schools[school.ID] = &clone
	return nil
}

func (r *fakeSchoolRepo) GetByID(_ context.Context, id string) (*domain.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	school, ok := r.schools[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *school
	return &clone, nil
}

func (r *fakeSchoolRepo) GetByManagerID(_ context.Context, managerID string) (*domain.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, school := range r.schools {
		if school.ManagerID == managerID {
			clone := *school
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeSchoolRepo) List(_ context.Context, status *domain.SchoolStatus) ([]domain.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.School
	for _, school := range r.schools {
		if status != nil && school.Status != *status {
			continue
		}
		out = append(out, *school)
	}
	return out, nil
}

func (r *fakeSchoolRepo) TransitionStatus(_ context.Context, change *domain.SchoolStatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	school, ok := r.schools[change.SchoolID]
	if !ok || school.Status != change.OldStatus {
		return pgx.ErrNoRows
	}
	school.Status = change.NewStatus
	change.ID = uuid.NewString()
	change.CreatedAt = time.Now()
	r.history = append(r.history, *change)
	return nil
}

func (r *fakeSchoolRepo) ListStatusHistory(_ context.Context, schoolID string) ([]domain.SchoolStatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SchoolStatusChange
	for _, change := range r.history {
		if change.SchoolID == schoolID {
			out = append(out, change)
		}
	}
	return out, nil
}

func (r *fakeSchoolRepo) UpsertProfile(_ context.Context, profile *domain.SchoolProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.UpdatedAt = time.Now()
	clone := *profile
	r.profiles[profile.SchoolID] = &clone
	return nil
}

func (r *fakeSchoolRepo) GetProfile(_ context.Context, schoolID string) (*domain.SchoolProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[schoolID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeSchoolRepo) CreateSpot(_ context.Context, spot *domain.AdmissionSpot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	spot.ID = uuid.NewString()
	spot.Remaining = spot.Capacity
	clone := *spot
	r.spots[spotKey(spot.SchoolID, spot.Grade)] = &clone
	return nil
}

func (r *fakeSchoolRepo) ListSpots(_ context.Context, schoolID string) ([]domain.AdmissionSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AdmissionSpot
	for _, spot := range r.spots {
		if spot.SchoolID == schoolID {
			out = append(out, *spot)
		}
	}
	return out, nil
}

func (r *fakeSchoolRepo) ReserveSpot(_ context.Context, schoolID string, grade int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	spot, ok := r.spots[spotKey(schoolID, grade)]
	if !ok || spot.Remaining <= 0 {
		return pgx.ErrNoRows
	}
	spot.Remaining--
	return nil
}

func (r *fakeSchoolRepo) AddGalleryEntry(_ context.Context, entry *domain.GalleryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.gallery[entry.SchoolID] = append(r.gallery[entry.SchoolID], *entry)
	return nil
}

func (r *fakeSchoolRepo) ListGallery(_ context.Context, schoolID string) ([]domain.GalleryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.GalleryEntry{}, r.gallery[schoolID]...), nil
}

// fakeStudentRepo is an in-memory, thread-safe student store.
type fakeStudentRepo struct {
	mu       sync.Mutex
	students map[string]*domain.Student
	seq      int64
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[string]*domain.Student)}
}

func (r *fakeStudentRepo) Create(_ context.Context, student *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student.ID = uuid.NewString()
	student.CreatedAt = time.Now()
	student.UpdatedAt = student.CreatedAt
	clone := *student
	r.students[student.ID] = &clone
	return nil
}

func (r *fakeStudentRepo) GetByID(_ context.Context, id string) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *student
	return &clone, nil
}

func (r *fakeStudentRepo) List(_ context.Context, schoolID string, status *domain.StudentStatus) ([]domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Student
	for _, student := range r.students {
		if student.SchoolID != schoolID {
			continue
		}
		if status != nil && student.Status != *status {
			continue
		}
		out = append(out, *student)
	}
	return out, nil
}

func (r *fakeStudentRepo) UpdateStatus(_ context.Context, id string, from, to domain.StudentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok || student.Status != from {
		return pgx.ErrNoRows
	}
	student.Status = to
	return nil
}

func (r *fakeStudentRepo) NextDocumentSequence(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *fakeStudentRepo) SetDocumentNumber(_ context.Context, id, documentNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok || student.Status != domain.StudentStatusApproved {
		return pgx.ErrNoRows
	}
	student.Status = domain.StudentStatusAdmitted
	student.DocumentNumber = &documentNumber
	return nil
}

func managerUser(id string) *domain.User {
	return &domain.User{ID: id, Email: id + "@example.com", Role: domain.RoleSchoolManager}
}

func TestRegisterSchool_OnePerManager(t *testing.T) {
	t.Parallel()

	schools := newFakeSchoolRepo()
	svc := NewSchoolService(schools, newFakeUserRepo(), nil)
	ctx := context.Background()
	manager := managerUser("mgr-1")

	school, err := svc.RegisterSchool(ctx, manager, "North High", "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, domain.SchoolStatusPending, school.Status)

	_, err = svc.RegisterSchool(ctx, manager, "Second School", "2 Main St")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRegisterSchool_ManagersOnly(t *testing.T) {
	t.Parallel()

	svc := NewSchoolService(newFakeSchoolRepo(), newFakeUserRepo(), nil)

	_, err := svc.RegisterSchool(context.Background(),
		&domain.User{ID: "u1", Role: domain.RoleInspector}, "North High", "1 Main St")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestApproveSchool_ReviewersOnly(t *testing.T) {
	t.Parallel()

	schools := newFakeSchoolRepo()
	svc := NewSchoolService(schools, newFakeUserRepo(), nil)
	ctx := context.Background()

	school, err := svc.RegisterSchool(ctx, managerUser("mgr-1"), "North High", "1 Main St")
	require.NoError(t, err)

	_, err = svc.ApproveSchool(ctx, managerUser("mgr-2"), school.ID, "")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestApproveSchool_SecondReviewerLosesRace(t *testing.T) {
	t.Parallel()

	schools := newFakeSchoolRepo()
	svc := NewSchoolService(schools, newFakeUserRepo(), nil)
	ctx := context.Background()
	inspector := &domain.User{ID: "insp-1", Role: domain.RoleInspector}

	school, err := svc.RegisterSchool(ctx, managerUser("mgr-1"), "North High", "1 Main St")
	require.NoError(t, err)

	approved, err := svc.ApproveSchool(ctx, inspector, school.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, domain.SchoolStatusApproved, approved.Status)

	// The conditional transition already consumed PENDING.
	_, err = svc.RejectSchool(ctx, inspector, school.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	history, err := svc.StatusHistory(ctx, school.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SchoolStatusApproved, history[0].NewStatus)
	assert.Equal(t, "looks good", history[0].Comment)
}

func TestResubmitSchool_OnlyFromRejected(t *testing.T) {
	t.Parallel()

	schools := newFakeSchoolRepo()
	svc := NewSchoolService(schools, newFakeUserRepo(), nil)
	ctx := context.Background()
	manager := managerUser("mgr-1")

	school, err := svc.RegisterSchool(ctx, manager, "North High", "1 Main St")
	require.NoError(t, err)

	_, err = svc.ResubmitSchool(ctx, manager, school.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.RejectSchool(ctx, &domain.User{ID: "insp-1", Role: domain.RoleInspector}, school.ID, "incomplete")
	require.NoError(t, err)

	_, err = svc.ResubmitSchool(ctx, managerUser("mgr-2"), school.ID)
	assert.ErrorIs(t, err, ErrInvalidRole)

	resubmitted, err := svc.ResubmitSchool(ctx, manager, school.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SchoolStatusPending, resubmitted.Status)
}

func admissionManager(schoolID string) *domain.User {
	return &domain.User{
		ID:       "am-" + schoolID,
		Role:     domain.RoleAdmissionManager,
		SchoolID: &schoolID,
	}
}

func newStudentFixture(t *testing.T) (*StudentService, *fakeSchoolRepo, string) {
	t.Helper()

	schools := newFakeSchoolRepo()
	school := &domain.School{Name: "North High", Status: domain.SchoolStatusApproved, ManagerID: "mgr-1"}
	require.NoError(t, schools.Create(context.Background(), school))

	svc := NewStudentService(newFakeStudentRepo(), schools, nil)
	return svc, schools, school.ID
}

func TestRegisterStudent_AdmissionManagersOnly(t *testing.T) {
	t.Parallel()

	svc, _, schoolID := newStudentFixture(t)

	_, err := svc.RegisterStudent(context.Background(),
		&domain.User{ID: "u1", Role: domain.RoleSchoolManager, SchoolID: &schoolID},
		"Alex", "guardian@example.com", 7)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestApproveStudent_CapacityExhausted(t *testing.T) {
	t.Parallel()

	svc, schools, schoolID := newStudentFixture(t)
	ctx := context.Background()
	actor := admissionManager(schoolID)

	require.NoError(t, schools.CreateSpot(ctx, &domain.AdmissionSpot{
		SchoolID: schoolID, Grade: 7, Capacity: 1,
	}))

	first, err := svc.RegisterStudent(ctx, actor, "Alex", "g1@example.com", 7)
	require.NoError(t, err)
	second, err := svc.RegisterStudent(ctx, actor, "Bailey", "g2@example.com", 7)
	require.NoError(t, err)

	approved, err := svc.ApproveStudent(ctx, actor, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StudentStatusApproved, approved.Status)

	_, err = svc.ApproveStudent(ctx, actor, second.ID)
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestApproveStudent_OwnSchoolOnly(t *testing.T) {
	t.Parallel()

	svc, schools, schoolID := newStudentFixture(t)
	ctx := context.Background()

	require.NoError(t, schools.CreateSpot(ctx, &domain.AdmissionSpot{
		SchoolID: schoolID, Grade: 7, Capacity: 5,
	}))
	student, err := svc.RegisterStudent(ctx, admissionManager(schoolID), "Alex", "g@example.com", 7)
	require.NoError(t, err)

	_, err = svc.ApproveStudent(ctx, admissionManager("other-school"), student.ID)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestIssueAdmissionDocument(t *testing.T) {
	t.Parallel()

	svc, schools, schoolID := newStudentFixture(t)
	ctx := context.Background()
	actor := admissionManager(schoolID)

	require.NoError(t, schools.CreateSpot(ctx, &domain.AdmissionSpot{
		SchoolID: schoolID, Grade: 7, Capacity: 5,
	}))
	student, err := svc.RegisterStudent(ctx, actor, "Alex", "g@example.com", 7)
	require.NoError(t, err)

	// Only approved students receive a document.
	_, err = svc.IssueAdmissionDocument(ctx, actor, student.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.ApproveStudent(ctx, actor, student.ID)
	require.NoError(t, err)

	admitted, err := svc.IssueAdmissionDocument(ctx, actor, student.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StudentStatusAdmitted, admitted.Status)
	require.NotNil(t, admitted.DocumentNumber)
	assert.Equal(t, fmt.Sprintf("ADM-%d-%06d", time.Now().Year(), 1), *admitted.DocumentNumber)
}
