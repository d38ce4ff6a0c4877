package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixlab/repair-service/internal/api/http/handlers"
	"github.com/fixlab/repair-service/internal/auth"
	"github.com/fixlab/repair-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Public         *handlers.PublicHandler
	Repairs        *handlers.RepairsHandler
	Warranty       *handlers.WarrantyHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	public := app.Group("/public")
	public.Post("/repairs", cfg.Public.CreateRepair)
	public.Post("/track", cfg.Public.Track)

	app.Post("/auth/staff/login", cfg.Staff.Login)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Post("/repairs", cfg.Repairs.CreateRepair)
	staff.Get("/repairs", cfg.Repairs.ListRepairs)
	staff.Get("/repairs/:id", cfg.Repairs.GetRepair)
	staff.Get("/repairs/:id/history", cfg.Repairs.ListHistory)
	staff.Post("/repairs/:id/transition", cfg.Repairs.Transition)
	staff.Post("/repairs/:id/assign", cfg.Repairs.Assign)
	staff.Patch("/repairs/:id/costs", cfg.Repairs.UpdateCosts)
	staff.Post("/repairs/:id/notes", cfg.Repairs.AddNote)
	staff.Get("/repairs/:id/label", cfg.Repairs.RenderLabel)
	staff.Post("/repairs/:id/warranty", cfg.Warranty.SendToWarranty)
	staff.Post("/repairs/:id/warranty/conclude", cfg.Warranty.ConcludeWarranty)
	staff.Post("/repairs/:id/partner", cfg.Warranty.SendToPartner)
	staff.Get("/technicians", cfg.Repairs.ListTechnicians)

	admin := staff.Group("", auth.RequireStaffRole(domain.StaffRoleAdmin))
	admin.Post("/technicians", cfg.Staff.Register)
}
