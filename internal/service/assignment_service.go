package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/events"
	"github.com/fixlab/repair-service/internal/repository"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// AssignmentService binds technicians to tickets.
type AssignmentService struct {
	lifecycle   *LifecycleService
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Lifecycle      *LifecycleService
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		lifecycle:   deps.Lifecycle,
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
	}
}

// AssignTechnician sets the assigned technician. A first assignment on a
// RECEIVED ticket also advances it to DIAGNOSING in the same transaction;
// on any later status only the assignment field changes. Reassignment is
// permitted at any time and never alters status.
func (s *AssignmentService) AssignTechnician(ctx context.Context, actor domain.Actor, ticketID, technicianID string) (*domain.RepairTicket, error) {
	if strings.TrimSpace(technicianID) == "" {
		return nil, apperrors.NewValidationError("technician_id required", nil)
	}

	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if !tech.Active {
		return nil, apperrors.NewValidationError("technician inactive", map[string]any{"technician_id": technicianID})
	}

	ticket, err := s.lifecycle.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.AssignedTechnicianID = &tech.ID

	if ticket.Status == domain.StatusReceived {
		oldStatus := ticket.Status
		ticket.Status = domain.StatusDiagnosing
		entry := &domain.StatusHistoryEntry{
			Status:    domain.StatusDiagnosing,
			Note:      "technician assigned",
			ActorType: actor.Type,
			ActorID:   actor.ID,
		}
		if err := s.tickets.Update(ctx, ticket, entry); err != nil {
			return nil, mapTicketError(err)
		}
		s.lifecycle.metrics.RecordTransition(string(domain.StatusDiagnosing))
		s.lifecycle.publish(ctx, events.Event{
			ID:       uuid.NewString(),
			Type:     events.EventRepairStatusChanged,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload: events.RepairStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: domain.StatusDiagnosing,
				Note:      "technician assigned",
			},
		})
	} else {
		if err := s.tickets.Update(ctx, ticket, nil); err != nil {
			return nil, mapTicketError(err)
		}
	}

	s.lifecycle.publish(ctx, events.Event{
		Type:     events.EventRepairAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.RepairAssignedPayload{TechnicianID: tech.ID},
	})
	return ticket, nil
}

// ListTechnicians returns the active staff roster for assignment pickers.
func (s *AssignmentService) ListTechnicians(ctx context.Context) ([]domain.Technician, error) {
	techs, err := s.technicians.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return techs, nil
}
