package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/admissions-service/internal/domain"
	"github.com/spec-kit/admissions-service/internal/repository"
	apperrors "github.com/spec-kit/admissions-service/pkg/util/errorutil"
)

// gateUserRepo serves a fixed set of users keyed by id.
type gateUserRepo struct {
	users map[string]*domain.User
}

func (r *gateUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *gateUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *gateUserRepo) Create(context.Context, *domain.User) error      { return nil }
func (r *gateUserRepo) Update(context.Context, *domain.User) error      { return nil }
func (r *gateUserRepo) UpdatePassword(context.Context, string, string) error {
	return nil
}
func (r *gateUserRepo) List(context.Context, repository.UserFilter) ([]domain.User, error) {
	return nil, nil
}
func (r *gateUserRepo) SoftDelete(context.Context, string) error { return nil }

func newGateApp(t *testing.T, users *gateUserRepo) (*fiber.App, *TokenService) {
	t.Helper()

	ts, _, _ := newTestTokenService(t, time.Hour)
	gate := NewGate(ts, users, zap.NewNop())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"message": de.Message})
		},
	})
	app.Get("/guarded", gate.Handle, func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": principal.ID})
	})
	app.Get("/managed", gate.Handle, RequireManagedRoles(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, ts
}

func doRequest(t *testing.T, app *fiber.App, path, authorization string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGate_MissingHeader(t *testing.T) {
	t.Parallel()

	app, _ := newGateApp(t, &gateUserRepo{users: map[string]*domain.User{}})

	resp := doRequest(t, app, "/guarded", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGate_MalformedHeader(t *testing.T) {
	t.Parallel()

	app, _ := newGateApp(t, &gateUserRepo{users: map[string]*domain.User{}})

	for _, header := range []string{"Bearer", "Bearer ", "Token abc"} {
		resp := doRequest(t, app, "/guarded", header)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}
}

func TestGate_ValidToken(t *testing.T) {
	t.Parallel()

	repo := &gateUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "admin@example.com", Role: domain.RoleSuperAdmin},
	}}
	app, ts := newGateApp(t, repo)

	token, _, err := ts.Issue(context.Background(), testPrincipal())
	require.NoError(t, err)

	resp := doRequest(t, app, "/guarded", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGate_RevokedToken(t *testing.T) {
	t.Parallel()

	repo := &gateUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "admin@example.com", Role: domain.RoleSuperAdmin},
	}}
	app, ts := newGateApp(t, repo)
	ctx := context.Background()

	token, _, err := ts.Issue(ctx, testPrincipal())
	require.NoError(t, err)
	require.NoError(t, ts.Revoke(ctx, token, time.Hour))

	resp := doRequest(t, app, "/guarded", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGate_SoftDeletedPrincipal(t *testing.T) {
	t.Parallel()

	deletedAt := time.Now()
	repo := &gateUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "admin@example.com", Role: domain.RoleSuperAdmin, DeletedAt: &deletedAt},
	}}
	app, ts := newGateApp(t, repo)

	// The session is still live; the reload catches the deleted account.
	token, _, err := ts.Issue(context.Background(), testPrincipal())
	require.NoError(t, err)

	resp := doRequest(t, app, "/guarded", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGate_RequireManagedRoles(t *testing.T) {
	t.Parallel()

	repo := &gateUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "admin@example.com", Role: domain.RoleSuperAdmin},
		"user-2": {ID: "user-2", Email: "inspector@example.com", Role: domain.RoleInspector},
	}}
	app, ts := newGateApp(t, repo)
	ctx := context.Background()

	adminToken, _, err := ts.Issue(ctx, testPrincipal())
	require.NoError(t, err)

	inspectorToken, _, err := ts.Issue(ctx, domain.SessionPrincipal{
		ID:    "user-2",
		Email: "inspector@example.com",
		Role:  domain.RoleInspector,
	})
	require.NoError(t, err)

	resp := doRequest(t, app, "/managed", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "/managed", "Bearer "+inspectorToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
