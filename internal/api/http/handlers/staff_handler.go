package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixlab/repair-service/internal/api/dto"
	"github.com/fixlab/repair-service/internal/service"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// StaffHandler manages staff authentication endpoints.
type StaffHandler struct {
	authService *service.AuthService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService) *StaffHandler {
	return &StaffHandler{authService: authService}
}

// Login POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Staff: dto.TechnicianResponse{
			ID:    result.Technician.ID,
			Name:  result.Technician.Name,
			Email: result.Technician.Email,
			Role:  result.Technician.Role,
		},
	}})
}

// Register POST /staff/technicians (admin only).
func (h *StaffHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterTechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tech, err := h.authService.RegisterTechnician(c.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TechnicianResponse{
		ID:    tech.ID,
		Name:  tech.Name,
		Email: tech.Email,
		Role:  tech.Role,
	}})
}
