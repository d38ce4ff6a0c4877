package events

import (
	"time"

	"github.com/fixlab/repair-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRepairCreated       EventType = "repair_created"
	EventRepairStatusChanged EventType = "repair_status_changed"
	EventRepairAssigned      EventType = "repair_assigned"
	EventWarrantySent        EventType = "repair_warranty_sent"
	EventWarrantyConcluded   EventType = "repair_warranty_concluded"
	EventSentToPartner       EventType = "repair_sent_to_partner"
)

// Event represents a domain event emitted by services. Delivery is
// fire-and-forget; the lifecycle never depends on handler success.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	TicketID  string       `json:"ticket_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// RepairCreatedPayload payload.
type RepairCreatedPayload struct {
	TrackingCode  string `json:"tracking_code"`
	CustomerPhone string `json:"customer_phone"`
	DeviceBrand   string `json:"device_brand"`
	DeviceModel   string `json:"device_model"`
}

// RepairStatusChangedPayload payload.
type RepairStatusChangedPayload struct {
	OldStatus domain.RepairStatus `json:"old_status"`
	NewStatus domain.RepairStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
}

// RepairAssignedPayload payload.
type RepairAssignedPayload struct {
	TechnicianID string `json:"technician_id"`
}

// WarrantySentPayload payload.
type WarrantySentPayload struct {
	SupplierName string `json:"supplier_name"`
	RMACode      string `json:"rma_code"`
}

// WarrantyConcludedPayload payload.
type WarrantyConcludedPayload struct {
	Result           domain.WarrantyResult `json:"result"`
	SwapDeviceSerial *string               `json:"swap_device_serial,omitempty"`
}

// SentToPartnerPayload payload.
type SentToPartnerPayload struct {
	PartnerID     string `json:"partner_id"`
	CostToUsCents *int64 `json:"cost_to_us_cents,omitempty"`
}
