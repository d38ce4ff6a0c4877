package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairStatus_IsTerminal(t *testing.T) {
	for _, s := range []RepairStatus{StatusDelivered, StatusCancelled} {
		assert.True(t, s.IsTerminal(), string(s))
	}
	for _, s := range []RepairStatus{
		StatusReceived, StatusDiagnosing, StatusWaitingParts, StatusWaitingApproval,
		StatusInProgress, StatusAtPartner, StatusInWarranty, StatusCompleted,
	} {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestRepairStatus_IsValid(t *testing.T) {
	assert.True(t, StatusInProgress.IsValid())
	assert.False(t, RepairStatus("FIXED").IsValid())
	assert.False(t, RepairStatus("").IsValid())
}

func TestWarrantyResult_IsValidConclusion(t *testing.T) {
	for _, r := range []WarrantyResult{WarrantyResultRepaired, WarrantyResultSwapped, WarrantyResultRefunded, WarrantyResultRejected} {
		assert.True(t, r.IsValidConclusion(), string(r))
	}
	assert.False(t, WarrantyResultPending.IsValidConclusion())
	assert.False(t, WarrantyResult("lost").IsValidConclusion())
}

func TestCurrentHistoryEntry(t *testing.T) {
	ticket := &RepairTicket{}
	assert.Nil(t, ticket.CurrentHistoryEntry())

	ticket.History = []StatusHistoryEntry{
		{Status: StatusReceived},
		{Status: StatusDiagnosing},
	}
	entry := ticket.CurrentHistoryEntry()
	assert.Equal(t, StatusDiagnosing, entry.Status)
}
