package dto

import "github.com/fixlab/repair-service/internal/domain"

// statusPresentation maps lifecycle statuses to display labels and colors.
// Purely presentational; the engine never reads this.
var statusPresentation = map[domain.RepairStatus]struct {
	Label string
	Color string
}{
	domain.StatusReceived:        {"Received", "gray"},
	domain.StatusDiagnosing:      {"Diagnosing", "blue"},
	domain.StatusWaitingParts:    {"Waiting for parts", "orange"},
	domain.StatusWaitingApproval: {"Waiting for approval", "yellow"},
	domain.StatusInProgress:      {"In progress", "blue"},
	domain.StatusAtPartner:       {"At external partner", "purple"},
	domain.StatusInWarranty:      {"In warranty (RMA)", "purple"},
	domain.StatusCompleted:       {"Completed", "green"},
	domain.StatusDelivered:       {"Delivered", "green"},
	domain.StatusCancelled:       {"Cancelled", "red"},
}

// StatusLabel returns the human label for a status.
func StatusLabel(status domain.RepairStatus) string {
	if p, ok := statusPresentation[status]; ok {
		return p.Label
	}
	return string(status)
}

// StatusColor returns the display color for a status.
func StatusColor(status domain.RepairStatus) string {
	if p, ok := statusPresentation[status]; ok {
		return p.Color
	}
	return "gray"
}
