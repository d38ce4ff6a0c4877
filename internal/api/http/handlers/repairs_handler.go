package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fixlab/repair-service/internal/api/dto"
	"github.com/fixlab/repair-service/internal/auth"
	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/repository"
	"github.com/fixlab/repair-service/internal/service"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// RepairsHandler manages staff repair-ticket endpoints.
type RepairsHandler struct {
	lifecycle  *service.LifecycleService
	assignment *service.AssignmentService
	labels     *service.LabelService
	history    repository.HistoryRepository
}

// NewRepairsHandler constructs handler.
func NewRepairsHandler(lifecycle *service.LifecycleService, assignment *service.AssignmentService, labels *service.LabelService, history repository.HistoryRepository) *RepairsHandler {
	return &RepairsHandler{lifecycle: lifecycle, assignment: assignment, labels: labels, history: history}
}

// CreateRepair POST /staff/repairs — admin-entered ticket.
func (h *RepairsHandler) CreateRepair(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
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
	ticket, err := h.lifecycle.CreateTicket(c.Context(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListRepairs GET /staff/repairs.
func (h *RepairsHandler) ListRepairs(c *fiber.Ctx) error {
	filter := parseListQuery(c)
	tickets, err := h.lifecycle.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRepair GET /staff/repairs/:id.
func (h *RepairsHandler) GetRepair(c *fiber.Ctx) error {
	ticket, err := h.lifecycle.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Transition POST /staff/repairs/:id/transition.
func (h *RepairsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.ApplyTransition(c.Context(), principal.Actor(), c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Assign POST /staff/repairs/:id/assign.
func (h *RepairsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.assignment.AssignTechnician(c.Context(), principal.Actor(), c.Params("id"), req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateCosts PATCH /staff/repairs/:id/costs.
func (h *RepairsHandler) UpdateCosts(c *fiber.Ctx) error {
	var req dto.CostsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.UpdateCosts(c.Context(), c.Params("id"), req.EstimatedCostCents, req.FinalCostCents)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddNote POST /staff/repairs/:id/notes.
func (h *RepairsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.AppendTechnicianNote(c.Context(), c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListHistory GET /staff/repairs/:id/history — paginated audit trail.
func (h *RepairsHandler) ListHistory(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 100)
	entries, err := h.history.ListByTicket(c.Context(), c.Params("id"), pageSize, (page-1)*pageSize)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.HistoryEntryResponse{
			ID:        entry.ID,
			Status:    entry.Status,
			Note:      entry.Note,
			ActorType: entry.ActorType,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// RenderLabel GET /staff/repairs/:id/label.
func (h *RepairsHandler) RenderLabel(c *fiber.Ctx) error {
	label, err := h.labels.RenderLabel(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": label})
}

// ListTechnicians GET /staff/technicians.
func (h *RepairsHandler) ListTechnicians(c *fiber.Ctx) error {
	techs, err := h.assignment.ListTechnicians(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TechnicianResponse, 0, len(techs))
	for _, tech := range techs {
		items = append(items, dto.TechnicianResponse{
			ID:    tech.ID,
			Name:  tech.Name,
			Email: tech.Email,
			Role:  tech.Role,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseListQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.RepairStatus(strings.TrimSpace(part)))
		}
	}
	if techID := strings.TrimSpace(c.Query("technician_id")); techID != "" {
		filter.TechnicianID = &techID
	}
	if from := parseTime(c.Query("date_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("date_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.RepairTicket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                   ticket.ID,
		TrackingCode:         ticket.TrackingCode,
		CustomerName:         ticket.CustomerName,
		CustomerPhone:        ticket.CustomerPhone,
		DeviceBrand:          ticket.DeviceBrand,
		DeviceModel:          ticket.DeviceModel,
		Status:               ticket.Status,
		StatusLabel:          dto.StatusLabel(ticket.Status),
		AssignedTechnicianID: ticket.AssignedTechnicianID,
		CreatedAt:            ticket.CreatedAt,
		UpdatedAt:            ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.RepairTicket) dto.TicketDetailResponse {
	history := make([]dto.HistoryEntryResponse, 0, len(ticket.History))
	for _, entry := range ticket.History {
		history = append(history, dto.HistoryEntryResponse{
			ID:        entry.ID,
			Status:    entry.Status,
			Note:      entry.Note,
			ActorType: entry.ActorType,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}
	var warranty *dto.WarrantyResponse
	if ticket.Warranty != nil {
		warranty = &dto.WarrantyResponse{
			SupplierName:     ticket.Warranty.SupplierName,
			RMACode:          ticket.Warranty.RMACode,
			Result:           ticket.Warranty.Result,
			SwapDeviceSerial: ticket.Warranty.SwapDeviceSerial,
		}
	}
	return dto.TicketDetailResponse{
		ID:                   ticket.ID,
		TrackingCode:         ticket.TrackingCode,
		CustomerName:         ticket.CustomerName,
		CustomerPhone:        ticket.CustomerPhone,
		CustomerEmail:        ticket.CustomerEmail,
		DeviceBrand:          ticket.DeviceBrand,
		DeviceModel:          ticket.DeviceModel,
		DeviceSerial:         ticket.DeviceSerial,
		IssueDescription:     ticket.IssueDescription,
		Status:               ticket.Status,
		StatusLabel:          dto.StatusLabel(ticket.Status),
		AssignedTechnicianID: ticket.AssignedTechnicianID,
		EstimatedCostCents:   ticket.EstimatedCostCents,
		FinalCostCents:       ticket.FinalCostCents,
		TechnicianNotes:      ticket.TechnicianNotes,
		Warranty:             warranty,
		OutsourcedPartnerID:  ticket.OutsourcedPartnerID,
		CostToUsCents:        ticket.CostToUsCents,
		DevicePhotos:         ticket.DevicePhotos,
		History:              history,
		CreatedAt:            ticket.CreatedAt,
		UpdatedAt:            ticket.UpdatedAt,
	}
}
