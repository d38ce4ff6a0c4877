package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixlab/repair-service/internal/domain"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

func newTestAssignment(t *testing.T) (*AssignmentService, *LifecycleService, *memTechnicianRepo) {
	t.Helper()
	ticketRepo := newMemTicketRepo()
	techRepo := newMemTechnicianRepo()
	lifecycle := newTestLifecycle(ticketRepo)
	svc := NewAssignmentService(AssignmentDependencies{
		Lifecycle:      lifecycle,
		TicketRepo:     ticketRepo,
		TechnicianRepo: techRepo,
	})
	return svc, lifecycle, techRepo
}

func seedTechnician(t *testing.T, repo *memTechnicianRepo, active bool) *domain.Technician {
	t.Helper()
	tech := &domain.Technician{
		Name:   "Rin Okada",
		Email:  "rin@shop.test",
		Role:   domain.StaffRoleTechnician,
		Active: active,
	}
	require.NoError(t, repo.Create(context.Background(), tech))
	return tech
}

func TestAssignTechnician_ReceivedMovesToDiagnosing(t *testing.T) {
	svc, lifecycle, techRepo := newTestAssignment(t)
	tech := seedTechnician(t, techRepo, true)
	ticket, err := lifecycle.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	updated, err := svc.AssignTechnician(context.Background(), adminActor(), ticket.ID, tech.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDiagnosing, updated.Status)
	require.NotNil(t, updated.AssignedTechnicianID)
	assert.Equal(t, tech.ID, *updated.AssignedTechnicianID)
	require.Len(t, updated.History, 2)
	assert.Equal(t, "technician assigned", updated.CurrentHistoryEntry().Note)
}

func TestAssignTechnician_PastReceivedOnlyChangesAssignment(t *testing.T) {
	svc, lifecycle, techRepo := newTestAssignment(t)
	tech := seedTechnician(t, techRepo, true)
	ticket, err := lifecycle.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)
	_, err = lifecycle.ApplyTransition(context.Background(), adminActor(), ticket.ID, domain.StatusInProgress, "")
	require.NoError(t, err)

	updated, err := svc.AssignTechnician(context.Background(), adminActor(), ticket.ID, tech.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, updated.Status)
	require.NotNil(t, updated.AssignedTechnicianID)
	assert.Len(t, updated.History, 2) // zero entries appended by the assignment
}

func TestAssignTechnician_ReassignmentKeepsStatus(t *testing.T) {
	svc, lifecycle, techRepo := newTestAssignment(t)
	first := seedTechnician(t, techRepo, true)
	second := &domain.Technician{Name: "Lee Chang", Email: "lee@shop.test", Role: domain.StaffRoleTechnician, Active: true}
	require.NoError(t, techRepo.Create(context.Background(), second))

	ticket, err := lifecycle.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	_, err = svc.AssignTechnician(context.Background(), adminActor(), ticket.ID, first.ID)
	require.NoError(t, err)
	updated, err := svc.AssignTechnician(context.Background(), adminActor(), ticket.ID, second.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDiagnosing, updated.Status)
	assert.Equal(t, second.ID, *updated.AssignedTechnicianID)
	assert.Len(t, updated.History, 2)
}

func TestAssignTechnician_EmptyID(t *testing.T) {
	svc, _, _ := newTestAssignment(t)
	_, err := svc.AssignTechnician(context.Background(), adminActor(), "ticket", "  ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestAssignTechnician_UnknownOrInactive(t *testing.T) {
	svc, lifecycle, techRepo := newTestAssignment(t)
	inactive := seedTechnician(t, techRepo, false)
	ticket, err := lifecycle.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	_, err = svc.AssignTechnician(context.Background(), adminActor(), ticket.ID, "no-such-tech")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = svc.AssignTechnician(context.Background(), adminActor(), ticket.ID, inactive.ID)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
