package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/events"
	"github.com/fixlab/repair-service/internal/observability"
	"github.com/fixlab/repair-service/internal/repository"
	"github.com/fixlab/repair-service/internal/tracking"
)

// memTicketRepo is an in-memory TicketRepository with the same optimistic
// version semantics as the Postgres implementation.
type memTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.RepairTicket
	byCode  map[string]string
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{
		tickets: make(map[string]*domain.RepairTicket),
		byCode:  make(map[string]string),
	}
}

func cloneTicket(t *domain.RepairTicket) *domain.RepairTicket {
	cp := *t
	cp.History = append([]domain.StatusHistoryEntry(nil), t.History...)
	cp.DevicePhotos = append([]string(nil), t.DevicePhotos...)
	if t.Warranty != nil {
		claim := *t.Warranty
		cp.Warranty = &claim
	}
	return &cp
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.RepairTicket, first *domain.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byCode[ticket.TrackingCode]; exists {
		return repository.ErrDuplicateTrackingCode
	}
	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	first.ID = uuid.NewString()
	first.TicketID = ticket.ID
	first.CreatedAt = now
	ticket.History = append(ticket.History, *first)
	r.tickets[ticket.ID] = cloneTicket(ticket)
	r.byCode[ticket.TrackingCode] = ticket.ID
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.RepairTicket, entry *domain.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	if entry != nil {
		entry.ID = uuid.NewString()
		entry.TicketID = ticket.ID
		entry.CreatedAt = ticket.UpdatedAt
		ticket.History = append(ticket.History, *entry)
	}
	r.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.RepairTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneTicket(stored), nil
}

func (r *memTicketRepo) GetByTrackingCode(_ context.Context, code string) (*domain.RepairTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byCode[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneTicket(r.tickets[id]), nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.RepairTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.RepairTicket
	for _, stored := range r.tickets {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		if filter.TechnicianID != nil &&
			(stored.AssignedTechnicianID == nil || *stored.AssignedTechnicianID != *filter.TechnicianID) {
			continue
		}
		if filter.SearchTerm != nil && !ticketMatchesSearch(stored, *filter.SearchTerm) {
			continue
		}
		if filter.CreatedFrom != nil && stored.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && stored.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		result = append(result, *cloneTicket(stored))
	}
	return result, nil
}

func containsStatus(statuses []domain.RepairStatus, status domain.RepairStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func ticketMatchesSearch(t *domain.RepairTicket, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, field := range []string{t.TrackingCode, t.CustomerName, t.CustomerPhone, t.DeviceModel} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// memTechnicianRepo is an in-memory TechnicianRepository.
type memTechnicianRepo struct {
	mu    sync.Mutex
	techs map[string]*domain.Technician
}

func newMemTechnicianRepo() *memTechnicianRepo {
	return &memTechnicianRepo{techs: make(map[string]*domain.Technician)}
}

func (r *memTechnicianRepo) Create(_ context.Context, tech *domain.Technician) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	tech.ID = uuid.NewString()
	tech.CreatedAt = now
	tech.UpdatedAt = now
	cp := *tech
	r.techs[tech.ID] = &cp
	return nil
}

func (r *memTechnicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tech, ok := r.techs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *tech
	return &cp, nil
}

func (r *memTechnicianRepo) GetByEmail(_ context.Context, email string) (*domain.Technician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tech := range r.techs {
		if tech.Email == email {
			cp := *tech
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTechnicianRepo) ListActive(_ context.Context) ([]domain.Technician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Technician
	for _, tech := range r.techs {
		if tech.Active {
			result = append(result, *tech)
		}
	}
	return result, nil
}

func newTestLifecycle(repo repository.TicketRepository) *LifecycleService {
	return NewLifecycleService(LifecycleDependencies{
		TicketRepo: repo,
		Codes:      tracking.NewGenerator("REP"),
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	})
}

func validIntake() IntakeInput {
	return IntakeInput{
		CustomerName:     "Dana Petrov",
		CustomerPhone:    "5551234567",
		DeviceBrand:      "Asus",
		DeviceModel:      "ZenBook UX425",
		IssueDescription: "does not power on",
	}
}

func customerActor() domain.Actor {
	return domain.Actor{Type: domain.ActorCustomer}
}

func adminActor() domain.Actor {
	id := "admin-1"
	return domain.Actor{Type: domain.ActorAdmin, ID: &id}
}
