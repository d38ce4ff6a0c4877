package domain

import "time"

// RepairStatus enumerates lifecycle states for repair tickets.
type RepairStatus string

const (
	StatusReceived        RepairStatus = "RECEIVED"
	StatusDiagnosing      RepairStatus = "DIAGNOSING"
	StatusWaitingParts    RepairStatus = "WAITING_PARTS"
	StatusWaitingApproval RepairStatus = "WAITING_APPROVAL"
	StatusInProgress      RepairStatus = "IN_PROGRESS"
	StatusAtPartner       RepairStatus = "AT_PARTNER"
	StatusInWarranty      RepairStatus = "IN_WARRANTY"
	StatusCompleted       RepairStatus = "COMPLETED"
	StatusDelivered       RepairStatus = "DELIVERED"
	StatusCancelled       RepairStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are permitted.
func (s RepairStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsValid reports whether the status is one of the defined lifecycle states.
func (s RepairStatus) IsValid() bool {
	switch s {
	case StatusReceived, StatusDiagnosing, StatusWaitingParts, StatusWaitingApproval,
		StatusInProgress, StatusAtPartner, StatusInWarranty, StatusCompleted,
		StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// WarrantyResult enumerates outcomes of a supplier RMA claim.
type WarrantyResult string

const (
	WarrantyResultPending  WarrantyResult = "pending"
	WarrantyResultRepaired WarrantyResult = "repaired"
	WarrantyResultSwapped  WarrantyResult = "swapped"
	WarrantyResultRefunded WarrantyResult = "refunded"
	WarrantyResultRejected WarrantyResult = "rejected"
)

// IsValidConclusion reports whether the result can close a claim.
func (r WarrantyResult) IsValidConclusion() bool {
	switch r {
	case WarrantyResultRepaired, WarrantyResultSwapped, WarrantyResultRefunded, WarrantyResultRejected:
		return true
	}
	return false
}

// WarrantyClaim is the RMA sub-record. A nil claim on the ticket means the
// device never entered the warranty sub-workflow.
type WarrantyClaim struct {
	SupplierName     string
	RMACode          string
	Result           WarrantyResult
	SwapDeviceSerial *string
}

// RepairTicket is the aggregate for one customer device's repair case.
// It is mutated only through the lifecycle services, never by direct writes.
type RepairTicket struct {
	ID                   string
	TrackingCode         string
	CustomerName         string
	CustomerPhone        string
	CustomerEmail        *string
	DeviceBrand          string
	DeviceModel          string
	DeviceSerial         *string
	IssueDescription     string
	Status               RepairStatus
	History              []StatusHistoryEntry
	AssignedTechnicianID *string
	EstimatedCostCents   *int64
	FinalCostCents       *int64
	TechnicianNotes      string
	Warranty             *WarrantyClaim
	OutsourcedPartnerID  *string
	CostToUsCents        *int64
	DevicePhotos         []string
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CurrentHistoryEntry returns the latest audit entry, which always carries
// the ticket's current status.
func (t *RepairTicket) CurrentHistoryEntry() *StatusHistoryEntry {
	if len(t.History) == 0 {
		return nil
	}
	return &t.History[len(t.History)-1]
}
