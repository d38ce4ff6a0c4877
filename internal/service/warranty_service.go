package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/events"
	"github.com/fixlab/repair-service/internal/repository"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// WarrantyService runs the nested RMA sub-workflow and the sibling
// external-partner outsourcing path.
type WarrantyService struct {
	lifecycle *LifecycleService
	tickets   repository.TicketRepository
	logger    *zap.Logger
}

// WarrantyDependencies bundles collaborators.
type WarrantyDependencies struct {
	Lifecycle  *LifecycleService
	TicketRepo repository.TicketRepository
	Logger     *zap.Logger
}

// NewWarrantyService creates the service.
func NewWarrantyService(deps WarrantyDependencies) *WarrantyService {
	return &WarrantyService{
		lifecycle: deps.Lifecycle,
		tickets:   deps.TicketRepo,
		logger:    deps.Logger,
	}
}

// SendToWarranty opens a supplier RMA claim and moves the ticket to
// IN_WARRANTY. Supplier and RMA code are both required.
func (s *WarrantyService) SendToWarranty(ctx context.Context, actor domain.Actor, ticketID, supplierName, rmaCode string) (*domain.RepairTicket, error) {
	supplierName = strings.TrimSpace(supplierName)
	rmaCode = strings.TrimSpace(rmaCode)
	missing := map[string]any{}
	if supplierName == "" {
		missing["supplier_name"] = "required"
	}
	if rmaCode == "" {
		missing["rma_code"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("supplier and RMA code required", missing)
	}

	ticket, err := s.lifecycle.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewInvalidTransition("ticket is in a terminal status", map[string]any{
			"status": ticket.Status,
		})
	}

	note := fmt.Sprintf("sent to %s under warranty, RMA %s", supplierName, rmaCode)
	ticket.Warranty = &domain.WarrantyClaim{
		SupplierName: supplierName,
		RMACode:      rmaCode,
		Result:       domain.WarrantyResultPending,
	}
	ticket.TechnicianNotes = appendNote(ticket.TechnicianNotes, note)
	oldStatus := ticket.Status
	ticket.Status = domain.StatusInWarranty
	entry := &domain.StatusHistoryEntry{
		Status:    domain.StatusInWarranty,
		Note:      note,
		ActorType: actor.Type,
		ActorID:   actor.ID,
	}
	if err := s.tickets.Update(ctx, ticket, entry); err != nil {
		return nil, mapTicketError(err)
	}

	s.lifecycle.metrics.RecordTransition(string(domain.StatusInWarranty))
	s.lifecycle.publish(ctx, events.Event{
		Type:     events.EventRepairStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.RepairStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: domain.StatusInWarranty,
			Note:      note,
		},
	})
	s.lifecycle.publish(ctx, events.Event{
		Type:     events.EventWarrantySent,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.WarrantySentPayload{
			SupplierName: supplierName,
			RMACode:      rmaCode,
		},
	})
	return ticket, nil
}

// ConcludeWarranty records the supplier's outcome. A rejected claim returns
// the device to in-house repair (IN_PROGRESS); every other result completes
// the repair. Delivery stays a separate, later staff action.
func (s *WarrantyService) ConcludeWarranty(ctx context.Context, actor domain.Actor, ticketID string, result domain.WarrantyResult, notes string, swapSerial *string) (*domain.RepairTicket, error) {
	if !result.IsValidConclusion() {
		return nil, apperrors.NewValidationError("unknown warranty result", map[string]any{"result": result})
	}

	ticket, err := s.lifecycle.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.StatusInWarranty || ticket.Warranty == nil {
		return nil, apperrors.NewInvalidTransition("ticket is not in warranty", map[string]any{
			"status": ticket.Status,
		})
	}
	// The original system tolerates a swap without a serial; keep that
	// lenient behavior but make it visible in the logs.
	if result == domain.WarrantyResultSwapped && (swapSerial == nil || strings.TrimSpace(*swapSerial) == "") {
		s.logger.Warn("warranty concluded as swapped without replacement serial",
			zap.String("ticket_id", ticket.ID))
	}

	ticket.Warranty.Result = result
	ticket.Warranty.SwapDeviceSerial = swapSerial

	note := fmt.Sprintf("warranty concluded: %s", result)
	if swapSerial != nil && strings.TrimSpace(*swapSerial) != "" {
		note += fmt.Sprintf(", replacement serial %s", *swapSerial)
	}
	if strings.TrimSpace(notes) != "" {
		note += " - " + strings.TrimSpace(notes)
	}

	next := domain.StatusCompleted
	if result == domain.WarrantyResultRejected {
		next = domain.StatusInProgress
	}
	oldStatus := ticket.Status
	ticket.Status = next
	entry := &domain.StatusHistoryEntry{
		Status:    next,
		Note:      note,
		ActorType: actor.Type,
		ActorID:   actor.ID,
	}
	if err := s.tickets.Update(ctx, ticket, entry); err != nil {
		return nil, mapTicketError(err)
	}

	s.lifecycle.metrics.RecordTransition(string(next))
	s.lifecycle.publish(ctx, events.Event{
		Type:     events.EventRepairStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.RepairStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: next,
			Note:      note,
		},
	})
	s.lifecycle.publish(ctx, events.Event{
		Type:     events.EventWarrantyConcluded,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.WarrantyConcludedPayload{
			Result:           result,
			SwapDeviceSerial: swapSerial,
		},
	})
	return ticket, nil
}

// SendToPartner records outsourcing to a non-warranty external repair
// partner and moves the ticket to AT_PARTNER. The return to the in-house
// flow goes through a plain transition.
func (s *WarrantyService) SendToPartner(ctx context.Context, actor domain.Actor, ticketID, partnerID string, costToUsCents *int64) (*domain.RepairTicket, error) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return nil, apperrors.NewValidationError("partner_id required", nil)
	}

	ticket, err := s.lifecycle.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewInvalidTransition("ticket is in a terminal status", map[string]any{
			"status": ticket.Status,
		})
	}

	note := fmt.Sprintf("sent to external partner %s", partnerID)
	ticket.OutsourcedPartnerID = &partnerID
	ticket.CostToUsCents = costToUsCents
	ticket.TechnicianNotes = appendNote(ticket.TechnicianNotes, note)
	oldStatus := ticket.Status
	ticket.Status = domain.StatusAtPartner
	entry := &domain.StatusHistoryEntry{
		Status:    domain.StatusAtPartner,
		Note:      note,
		ActorType: actor.Type,
		ActorID:   actor.ID,
	}
	if err := s.tickets.Update(ctx, ticket, entry); err != nil {
		return nil, mapTicketError(err)
	}

	s.lifecycle.metrics.RecordTransition(string(domain.StatusAtPartner))
	s.lifecycle.publish(ctx, events.Event{
		Type:     events.EventRepairStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.RepairStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: domain.StatusAtPartner,
			Note:      note,
		},
	})
	s.lifecycle.publish(ctx, events.Event{
		Type:     events.EventSentToPartner,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.SentToPartnerPayload{
			PartnerID:     partnerID,
			CostToUsCents: costToUsCents,
		},
	})
	return ticket, nil
}
