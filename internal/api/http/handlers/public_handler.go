package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixlab/repair-service/internal/api/dto"
	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/service"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// PublicHandler serves the unauthenticated intake and tracking endpoints.
type PublicHandler struct {
	lifecycle *service.LifecycleService
	lookup    *service.LookupService
}

// NewPublicHandler constructs handler.
func NewPublicHandler(lifecycle *service.LifecycleService, lookup *service.LookupService) *PublicHandler {
	return &PublicHandler{lifecycle: lifecycle, lookup: lookup}
}

// CreateRepair POST /public/repairs — customer intake form.
func (h *PublicHandler) CreateRepair(c *fiber.Ctx) error {
	var req dto.CreateRepairRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.IntakeInput{
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		DeviceBrand:      req.DeviceBrand,
		DeviceModel:      req.DeviceModel,
		DeviceSerial:     req.DeviceSerial,
		IssueDescription: req.IssueDescription,
		DevicePhotos:     req.DevicePhotos,
	}
	ticket, err := h.lifecycle.CreateTicket(c.Context(), domain.Actor{Type: domain.ActorCustomer}, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": publicTicket(ticket)})
}

// Track POST /public/track — lookup by tracking code + phone.
func (h *PublicHandler) Track(c *fiber.Ctx) error {
	var req dto.PublicLookupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lookup.Lookup(c.Context(), c.IP(), req.TrackingCode, req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": publicTicket(ticket)})
}

func publicTicket(ticket *domain.RepairTicket) dto.PublicTicketResponse {
	history := make([]dto.PublicHistoryEntry, 0, len(ticket.History))
	for _, entry := range ticket.History {
		history = append(history, dto.PublicHistoryEntry{
			Status:      entry.Status,
			StatusLabel: dto.StatusLabel(entry.Status),
			Note:        entry.Note,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return dto.PublicTicketResponse{
		TrackingCode:       ticket.TrackingCode,
		CustomerName:       ticket.CustomerName,
		DeviceBrand:        ticket.DeviceBrand,
		DeviceModel:        ticket.DeviceModel,
		IssueDescription:   ticket.IssueDescription,
		Status:             ticket.Status,
		StatusLabel:        dto.StatusLabel(ticket.Status),
		StatusColor:        dto.StatusColor(ticket.Status),
		EstimatedCostCents: ticket.EstimatedCostCents,
		FinalCostCents:     ticket.FinalCostCents,
		History:            history,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
	}
}
