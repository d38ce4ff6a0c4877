package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/repository"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

func TestCreateTicket_WritesFirstHistoryEntry(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)

	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReceived, ticket.Status)
	require.Len(t, ticket.History, 1)
	assert.Equal(t, domain.StatusReceived, ticket.History[0].Status)
	assert.Equal(t, domain.ActorCustomer, ticket.History[0].ActorType)
	assert.True(t, strings.HasPrefix(ticket.TrackingCode, "REP-"))
	assert.NotEmpty(t, ticket.ID)
}

func TestCreateTicket_MissingFields(t *testing.T) {
	svc := newTestLifecycle(newMemTicketRepo())

	cases := map[string]func(*IntakeInput){
		"customer name":     func(in *IntakeInput) { in.CustomerName = "" },
		"customer phone":    func(in *IntakeInput) { in.CustomerPhone = " " },
		"device model":      func(in *IntakeInput) { in.DeviceModel = "" },
		"issue description": func(in *IntakeInput) { in.IssueDescription = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validIntake()
			mutate(&input)
			_, err := svc.CreateTicket(context.Background(), customerActor(), input)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
		})
	}
}

// photoCaptureRepo records whether a nil photo slice ever reaches the store.
type photoCaptureRepo struct {
	*memTicketRepo
	sawNilPhotos bool
}

func (r *photoCaptureRepo) Create(ctx context.Context, ticket *domain.RepairTicket, first *domain.StatusHistoryEntry) error {
	if ticket.DevicePhotos == nil {
		r.sawNilPhotos = true
	}
	return r.memTicketRepo.Create(ctx, ticket, first)
}

func TestCreateTicket_PhotolessIntakeStoresEmptySlice(t *testing.T) {
	repo := &photoCaptureRepo{memTicketRepo: newMemTicketRepo()}
	svc := newTestLifecycle(repo)

	// validIntake sets no photos, the common public-form case; the
	// device_photos column is NOT NULL so the store must never see nil.
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	assert.False(t, repo.sawNilPhotos)
	require.NotNil(t, ticket.DevicePhotos)
	assert.Empty(t, ticket.DevicePhotos)
}

func TestCreateTicket_KeepsProvidedPhotos(t *testing.T) {
	repo := &photoCaptureRepo{memTicketRepo: newMemTicketRepo()}
	svc := newTestLifecycle(repo)

	input := validIntake()
	input.DevicePhotos = []string{"photos/front.jpg", "photos/bottom.jpg"}
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), input)
	require.NoError(t, err)

	assert.False(t, repo.sawNilPhotos)
	assert.Equal(t, []string{"photos/front.jpg", "photos/bottom.jpg"}, ticket.DevicePhotos)
}

func TestApplyTransition_AppendsExactlyOneEntry(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	updated, err := svc.ApplyTransition(context.Background(), adminActor(), ticket.ID, domain.StatusDiagnosing, "bench check started")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDiagnosing, updated.Status)
	require.Len(t, updated.History, 2)
	last := updated.CurrentHistoryEntry()
	assert.Equal(t, domain.StatusDiagnosing, last.Status)
	assert.Equal(t, "bench check started", last.Note)
	assert.Equal(t, domain.ActorAdmin, last.ActorType)
}

func TestApplyTransition_PermissiveGraphAllowsRevert(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	_, err = svc.ApplyTransition(context.Background(), adminActor(), ticket.ID, domain.StatusInProgress, "")
	require.NoError(t, err)
	updated, err := svc.ApplyTransition(context.Background(), adminActor(), ticket.ID, domain.StatusWaitingParts, "advanced by mistake")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusWaitingParts, updated.Status)
	require.Len(t, updated.History, 3)
}

func TestApplyTransition_TerminalTicketRejected(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	for _, terminal := range []domain.RepairStatus{domain.StatusDelivered, domain.StatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			fresh, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
			require.NoError(t, err)
			_, err = svc.ApplyTransition(context.Background(), adminActor(), fresh.ID, terminal, "")
			require.NoError(t, err)

			_, err = svc.ApplyTransition(context.Background(), adminActor(), fresh.ID, domain.StatusInProgress, "")
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

			// record untouched
			stored, err := repo.GetByID(context.Background(), fresh.ID)
			require.NoError(t, err)
			assert.Equal(t, terminal, stored.Status)
			assert.Len(t, stored.History, 2)
		})
	}
	_ = ticket
}

func TestApplyTransition_UnknownStatus(t *testing.T) {
	svc := newTestLifecycle(newMemTicketRepo())
	_, err := svc.ApplyTransition(context.Background(), adminActor(), "whatever", domain.RepairStatus("BROKEN"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestApplyTransition_UnknownTicket(t *testing.T) {
	svc := newTestLifecycle(newMemTicketRepo())
	_, err := svc.ApplyTransition(context.Background(), adminActor(), "missing", domain.StatusInProgress, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestHistoryInvariant_LastEntryMatchesStatus(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	steps := []domain.RepairStatus{
		domain.StatusDiagnosing,
		domain.StatusWaitingApproval,
		domain.StatusInProgress,
		domain.StatusCompleted,
		domain.StatusDelivered,
	}
	for _, next := range steps {
		updated, err := svc.ApplyTransition(context.Background(), adminActor(), ticket.ID, next, "")
		require.NoError(t, err)
		require.NotEmpty(t, updated.History)
		assert.Equal(t, updated.Status, updated.CurrentHistoryEntry().Status)
	}
}

func TestUpdateCosts_NoHistoryEntry(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	estimated := int64(12500)
	final := int64(14000)
	updated, err := svc.UpdateCosts(context.Background(), ticket.ID, &estimated, &final)
	require.NoError(t, err)

	assert.Equal(t, estimated, *updated.EstimatedCostCents)
	assert.Equal(t, final, *updated.FinalCostCents)
	assert.Len(t, updated.History, 1)
	assert.Equal(t, domain.StatusReceived, updated.Status)
}

func TestAppendTechnicianNote(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	updated, err := svc.AppendTechnicianNote(context.Background(), ticket.ID, "ordered replacement fan")
	require.NoError(t, err)
	updated, err = svc.AppendTechnicianNote(context.Background(), updated.ID, "fan arrived")
	require.NoError(t, err)

	assert.Equal(t, "ordered replacement fan\nfan arrived", updated.TechnicianNotes)
	assert.Len(t, updated.History, 1)

	_, err = svc.AppendTechnicianNote(context.Background(), ticket.ID, "  ")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestConcurrentUpdate_LoserGetsConflict(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	first, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)

	first.Status = domain.StatusDiagnosing
	err = repo.Update(context.Background(), first, &domain.StatusHistoryEntry{
		Status: domain.StatusDiagnosing, ActorType: domain.ActorAdmin,
	})
	require.NoError(t, err)

	second.Status = domain.StatusCancelled
	err = repo.Update(context.Background(), second, &domain.StatusHistoryEntry{
		Status: domain.StatusCancelled, ActorType: domain.ActorAdmin,
	})
	require.ErrorIs(t, err, repository.ErrVersionConflict)

	// the loser's aggregate gains no entry from the failed write
	assert.Len(t, second.History, 1)

	// no corrupted or merged history
	stored, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDiagnosing, stored.Status)
	assert.Len(t, stored.History, 2)
}

func TestConflictSurfacesAsRetryableCode(t *testing.T) {
	repo := &conflictOnceRepo{memTicketRepo: newMemTicketRepo()}
	svc := newTestLifecycle(repo)
	ticket, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	_, err = svc.ApplyTransition(context.Background(), adminActor(), ticket.ID, domain.StatusDiagnosing, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	// retry with a fresh read succeeds
	_, err = svc.ApplyTransition(context.Background(), adminActor(), ticket.ID, domain.StatusDiagnosing, "")
	require.NoError(t, err)
}

// conflictOnceRepo fails the first Update to emulate a lost race.
type conflictOnceRepo struct {
	*memTicketRepo
	fired bool
}

func (r *conflictOnceRepo) Update(ctx context.Context, ticket *domain.RepairTicket, entry *domain.StatusHistoryEntry) error {
	if !r.fired {
		r.fired = true
		return repository.ErrVersionConflict
	}
	return r.memTicketRepo.Update(ctx, ticket, entry)
}

func TestListTickets_Filters(t *testing.T) {
	repo := newMemTicketRepo()
	svc := newTestLifecycle(repo)

	a, err := svc.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)
	other := validIntake()
	other.CustomerName = "Mikel Aro"
	other.DeviceModel = "ThinkPad T14"
	_, err = svc.CreateTicket(context.Background(), customerActor(), other)
	require.NoError(t, err)

	_, err = svc.ApplyTransition(context.Background(), adminActor(), a.ID, domain.StatusInProgress, "")
	require.NoError(t, err)

	byStatus, err := svc.ListTickets(context.Background(), TicketListFilter{
		Statuses: []domain.RepairStatus{domain.StatusInProgress},
	})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, a.ID, byStatus[0].ID)

	search := "thinkpad"
	bySearch, err := svc.ListTickets(context.Background(), TicketListFilter{SearchTerm: &search})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "ThinkPad T14", bySearch[0].DeviceModel)
}
