package dto

import (
	"time"

	"github.com/fixlab/repair-service/internal/domain"
)

// CreateRepairRequest payload for intake (public form or admin entry).
type CreateRepairRequest struct {
	CustomerName     string   `json:"customer_name"`
	CustomerPhone    string   `json:"customer_phone"`
	CustomerEmail    *string  `json:"customer_email"`
	DeviceBrand      string   `json:"device_brand"`
	DeviceModel      string   `json:"device_model"`
	DeviceSerial     *string  `json:"device_serial"`
	IssueDescription string   `json:"issue_description"`
	DevicePhotos     []string `json:"device_photos"`
}

// TransitionRequest payload for a bare status change.
type TransitionRequest struct {
	Status domain.RepairStatus `json:"status"`
	Note   string              `json:"note"`
}

// AssignRequest payload.
type AssignRequest struct {
	TechnicianID string `json:"technician_id"`
}

// WarrantySendRequest payload.
type WarrantySendRequest struct {
	SupplierName string `json:"supplier_name"`
	RMACode      string `json:"rma_code"`
}

// WarrantyConcludeRequest payload.
type WarrantyConcludeRequest struct {
	Result           domain.WarrantyResult `json:"result"`
	Notes            string                `json:"notes"`
	SwapDeviceSerial *string               `json:"swap_device_serial"`
}

// PartnerSendRequest payload.
type PartnerSendRequest struct {
	PartnerID     string `json:"partner_id"`
	CostToUsCents *int64 `json:"cost_to_us_cents"`
}

// CostsRequest payload.
type CostsRequest struct {
	EstimatedCostCents *int64 `json:"estimated_cost_cents"`
	FinalCostCents     *int64 `json:"final_cost_cents"`
}

// NoteRequest payload.
type NoteRequest struct {
	Note string `json:"note"`
}

// PublicLookupRequest payload for the unauthenticated tracking endpoint.
type PublicLookupRequest struct {
	TrackingCode string `json:"tracking_code"`
	Phone        string `json:"phone"`
}

// HistoryEntryResponse is the staff view of an audit entry.
type HistoryEntryResponse struct {
	ID        string              `json:"id"`
	Status    domain.RepairStatus `json:"status"`
	Note      string              `json:"note"`
	ActorType domain.ActorType    `json:"actor_type"`
	ActorID   *string             `json:"actor_id,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// WarrantyResponse is the claim sub-record.
type WarrantyResponse struct {
	SupplierName     string                `json:"supplier_name"`
	RMACode          string                `json:"rma_code"`
	Result           domain.WarrantyResult `json:"result"`
	SwapDeviceSerial *string               `json:"swap_device_serial,omitempty"`
}

// TicketSummary response for listings.
type TicketSummary struct {
	ID                   string              `json:"id"`
	TrackingCode         string              `json:"tracking_code"`
	CustomerName         string              `json:"customer_name"`
	CustomerPhone        string              `json:"customer_phone"`
	DeviceBrand          string              `json:"device_brand"`
	DeviceModel          string              `json:"device_model"`
	Status               domain.RepairStatus `json:"status"`
	StatusLabel          string              `json:"status_label"`
	AssignedTechnicianID *string             `json:"assigned_technician_id,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides the full staff ticket view.
type TicketDetailResponse struct {
	ID                   string                 `json:"id"`
	TrackingCode         string                 `json:"tracking_code"`
	CustomerName         string                 `json:"customer_name"`
	CustomerPhone        string                 `json:"customer_phone"`
	CustomerEmail        *string                `json:"customer_email,omitempty"`
	DeviceBrand          string                 `json:"device_brand"`
	DeviceModel          string                 `json:"device_model"`
	DeviceSerial         *string                `json:"device_serial,omitempty"`
	IssueDescription     string                 `json:"issue_description"`
	Status               domain.RepairStatus    `json:"status"`
	StatusLabel          string                 `json:"status_label"`
	AssignedTechnicianID *string                `json:"assigned_technician_id,omitempty"`
	EstimatedCostCents   *int64                 `json:"estimated_cost_cents,omitempty"`
	FinalCostCents       *int64                 `json:"final_cost_cents,omitempty"`
	TechnicianNotes      string                 `json:"technician_notes"`
	Warranty             *WarrantyResponse      `json:"warranty,omitempty"`
	OutsourcedPartnerID  *string                `json:"outsourced_partner_id,omitempty"`
	CostToUsCents        *int64                 `json:"cost_to_us_cents,omitempty"`
	DevicePhotos         []string               `json:"device_photos"`
	History              []HistoryEntryResponse `json:"history"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// PublicHistoryEntry strips actor identities from the audit trail.
type PublicHistoryEntry struct {
	Status      domain.RepairStatus `json:"status"`
	StatusLabel string              `json:"status_label"`
	Note        string              `json:"note"`
	CreatedAt   time.Time           `json:"created_at"`
}

// PublicTicketResponse is the customer-facing tracking view: no internal
// actor identities, no staff-only cost or partner fields.
type PublicTicketResponse struct {
	TrackingCode       string               `json:"tracking_code"`
	CustomerName       string               `json:"customer_name"`
	DeviceBrand        string               `json:"device_brand"`
	DeviceModel        string               `json:"device_model"`
	IssueDescription   string               `json:"issue_description"`
	Status             domain.RepairStatus  `json:"status"`
	StatusLabel        string               `json:"status_label"`
	StatusColor        string               `json:"status_color"`
	EstimatedCostCents *int64               `json:"estimated_cost_cents,omitempty"`
	FinalCostCents     *int64               `json:"final_cost_cents,omitempty"`
	History            []PublicHistoryEntry `json:"history"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// TechnicianResponse for the assignment roster.
type TechnicianResponse struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Email string           `json:"email"`
	Role  domain.StaffRole `json:"role"`
}
