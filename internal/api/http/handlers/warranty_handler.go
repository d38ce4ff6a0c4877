package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixlab/repair-service/internal/api/dto"
	"github.com/fixlab/repair-service/internal/auth"
	"github.com/fixlab/repair-service/internal/service"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// WarrantyHandler manages the RMA sub-workflow endpoints.
type WarrantyHandler struct {
	warranty *service.WarrantyService
}

// NewWarrantyHandler constructs handler.
func NewWarrantyHandler(warranty *service.WarrantyService) *WarrantyHandler {
	return &WarrantyHandler{warranty: warranty}
}

// SendToWarranty POST /staff/repairs/:id/warranty.
func (h *WarrantyHandler) SendToWarranty(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.WarrantySendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.warranty.SendToWarranty(c.Context(), principal.Actor(), c.Params("id"), req.SupplierName, req.RMACode)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ConcludeWarranty POST /staff/repairs/:id/warranty/conclude.
func (h *WarrantyHandler) ConcludeWarranty(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.WarrantyConcludeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.warranty.ConcludeWarranty(c.Context(), principal.Actor(), c.Params("id"), req.Result, req.Notes, req.SwapDeviceSerial)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// SendToPartner POST /staff/repairs/:id/partner.
func (h *WarrantyHandler) SendToPartner(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.PartnerSendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.warranty.SendToPartner(c.Context(), principal.Actor(), c.Params("id"), req.PartnerID, req.CostToUsCents)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}
