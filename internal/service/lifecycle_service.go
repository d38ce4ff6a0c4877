package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/events"
	"github.com/fixlab/repair-service/internal/observability"
	"github.com/fixlab/repair-service/internal/repository"
	"github.com/fixlab/repair-service/internal/tracking"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// codeRetries bounds tracking-code regeneration on a unique-index collision.
const codeRetries = 3

// LifecycleService is the status transition engine: it owns ticket creation
// and every bare status change, and guarantees each transition commits with
// exactly one appended history entry.
type LifecycleService struct {
	tickets    repository.TicketRepository
	codes      *tracking.Generator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// LifecycleDependencies bundles collaborators for the engine.
type LifecycleDependencies struct {
	TicketRepo repository.TicketRepository
	Codes      *tracking.Generator
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// IntakeInput describes a repair request from the public form or admin entry.
type IntakeInput struct {
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    *string
	DeviceBrand      string
	DeviceModel      string
	DeviceSerial     *string
	IssueDescription string
	DevicePhotos     []string
}

// TicketListFilter describes staff listing filters.
type TicketListFilter struct {
	SearchTerm   *string
	Statuses     []domain.RepairStatus
	TechnicianID *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		codes:      deps.Codes,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// CreateTicket validates intake and writes the ticket with its first
// RECEIVED history entry in one transaction.
func (s *LifecycleService) CreateTicket(ctx context.Context, actor domain.Actor, input IntakeInput) (*domain.RepairTicket, error) {
	missing := map[string]any{}
	if strings.TrimSpace(input.CustomerName) == "" {
		missing["customer_name"] = "required"
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		missing["customer_phone"] = "required"
	}
	if strings.TrimSpace(input.DeviceModel) == "" {
		missing["device_model"] = "required"
	}
	if strings.TrimSpace(input.IssueDescription) == "" {
		missing["issue_description"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required intake fields", missing)
	}

	// device_photos is NOT NULL in the store; a nil slice would bind as SQL NULL.
	photos := input.DevicePhotos
	if photos == nil {
		photos = []string{}
	}

	ticket := &domain.RepairTicket{
		CustomerName:     strings.TrimSpace(input.CustomerName),
		CustomerPhone:    strings.TrimSpace(input.CustomerPhone),
		CustomerEmail:    input.CustomerEmail,
		DeviceBrand:      strings.TrimSpace(input.DeviceBrand),
		DeviceModel:      strings.TrimSpace(input.DeviceModel),
		DeviceSerial:     input.DeviceSerial,
		IssueDescription: strings.TrimSpace(input.IssueDescription),
		Status:           domain.StatusReceived,
		DevicePhotos:     photos,
	}

	var err error
	for attempt := 0; attempt < codeRetries; attempt++ {
		ticket.TrackingCode = s.codes.NewCode()
		first := &domain.StatusHistoryEntry{
			Status:    domain.StatusReceived,
			Note:      "repair request received",
			ActorType: actor.Type,
			ActorID:   actor.ID,
		}
		err = s.tickets.Create(ctx, ticket, first)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateTrackingCode) {
			return nil, apperrors.MapError(err)
		}
		s.logger.Warn("tracking code collision, regenerating", zap.String("code", ticket.TrackingCode))
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventRepairCreated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.RepairCreatedPayload{
			TrackingCode:  ticket.TrackingCode,
			CustomerPhone: ticket.CustomerPhone,
			DeviceBrand:   ticket.DeviceBrand,
			DeviceModel:   ticket.DeviceModel,
		},
	})
	return ticket, nil
}

// ApplyTransition moves a ticket to a new status. The graph is deliberately
// permissive so staff can revert a wrongly-advanced ticket; only the terminal
// guard is enforced here, and the append-only history keeps every correction
// auditable. Callers such as assignment and warranty constrain which
// transitions they themselves trigger.
func (s *LifecycleService) ApplyTransition(ctx context.Context, actor domain.Actor, ticketID string, newStatus domain.RepairStatus, note string) (*domain.RepairTicket, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, ticket, newStatus, note)
}

// transition applies a status change to an already-loaded ticket. Shared by
// the sibling services so every status write goes through one code path.
func (s *LifecycleService) transition(ctx context.Context, actor domain.Actor, ticket *domain.RepairTicket, newStatus domain.RepairStatus, note string) (*domain.RepairTicket, error) {
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewInvalidTransition("ticket is in a terminal status", map[string]any{
			"status": ticket.Status,
		})
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	entry := &domain.StatusHistoryEntry{
		Status:    newStatus,
		Note:      note,
		ActorType: actor.Type,
		ActorID:   actor.ID,
	}
	if err := s.tickets.Update(ctx, ticket, entry); err != nil {
		return nil, mapTicketError(err)
	}

	s.metrics.RecordTransition(string(newStatus))
	s.publish(ctx, events.Event{
		Type:     events.EventRepairStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.RepairStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Note:      note,
		},
	})
	return ticket, nil
}

// UpdateCosts sets the staff-estimated and final cost fields. Costs are
// independent of status and do not append history.
func (s *LifecycleService) UpdateCosts(ctx context.Context, ticketID string, estimated, final *int64) (*domain.RepairTicket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if estimated != nil {
		ticket.EstimatedCostCents = estimated
	}
	if final != nil {
		ticket.FinalCostCents = final
	}
	if err := s.tickets.Update(ctx, ticket, nil); err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// AppendTechnicianNote appends to the free-form technician notes. The intake
// issue description itself is immutable.
func (s *LifecycleService) AppendTechnicianNote(ctx context.Context, ticketID, note string) (*domain.RepairTicket, error) {
	if strings.TrimSpace(note) == "" {
		return nil, apperrors.NewValidationError("note required", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.TechnicianNotes = appendNote(ticket.TechnicianNotes, note)
	if err := s.tickets.Update(ctx, ticket, nil); err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// GetTicket fetches a ticket with its full history for staff views.
func (s *LifecycleService) GetTicket(ctx context.Context, ticketID string) (*domain.RepairTicket, error) {
	return s.getTicket(ctx, ticketID)
}

// ListTickets returns tickets matching staff filters; pure read.
func (s *LifecycleService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.RepairTicket, error) {
	repoFilter := repository.TicketFilter{
		SearchTerm:   filter.SearchTerm,
		Statuses:     filter.Statuses,
		TechnicianID: filter.TechnicianID,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *LifecycleService) getTicket(ctx context.Context, ticketID string) (*domain.RepairTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapTicketError(err error) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperrors.NewConflict("ticket was modified concurrently, retry with a fresh read", nil)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.MapError(err)
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
