package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admissions-service/internal/api/http/handlers"
	"github.com/spec-kit/admissions-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Users    *handlers.UsersHandler
	Schools  *handlers.SchoolsHandler
	Students *handlers.StudentsHandler
	Gate     *auth.Gate
}

// RegisterRoutes wires HTTP routes. Gate stages are ordered per route:
// authentication, then managed-role resolution, then target loading.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/password/change", cfg.Gate.Handle, cfg.Auth.ChangePassword)

	users := app.Group("/users", cfg.Gate.Handle, auth.RequireManagedRoles())
	users.Post("", cfg.Users.Create)
	users.Get("", cfg.Users.List)
	users.Get("/:id", cfg.Gate.LoadManagedUser("id"), cfg.Users.Get)
	users.Put("/:id", cfg.Gate.LoadManagedUser("id"), cfg.Users.Update)
	users.Delete("/:id", cfg.Gate.LoadManagedUser("id"), cfg.Users.Delete)
	users.Post("/:id/reset-password", cfg.Gate.LoadManagedUser("id"), cfg.Users.ResetPassword)

	schools := app.Group("/schools", cfg.Gate.Handle)
	schools.Post("", cfg.Schools.Register)
	schools.Get("", cfg.Schools.List)
	schools.Get("/:id", cfg.Schools.Get)
	schools.Post("/:id/approve", cfg.Schools.Approve)
	schools.Post("/:id/reject", cfg.Schools.Reject)
	schools.Post("/:id/resubmit", cfg.Schools.Resubmit)
	schools.Get("/:id/history", cfg.Schools.History)
	schools.Put("/:id/profile", cfg.Schools.UpsertProfile)
	schools.Get("/:id/profile", cfg.Schools.GetProfile)
	schools.Post("/:id/spots", cfg.Schools.AddSpot)
	schools.Get("/:id/spots", cfg.Schools.ListSpots)
	schools.Post("/:id/gallery", cfg.Schools.AddGalleryEntry)
	schools.Get("/:id/gallery", cfg.Schools.ListGallery)

	students := app.Group("/students", cfg.Gate.Handle)
	students.Post("", cfg.Students.Register)
	students.Get("", cfg.Students.List)
	students.Post("/:id/approve", cfg.Students.Approve)
	students.Post("/:id/document", cfg.Students.IssueDocument)
}
