package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixlab/repair-service/internal/domain"
)

// ErrVersionConflict is returned when an update loses an optimistic-lock
// race; the caller re-reads the ticket and retries.
var ErrVersionConflict = errors.New("ticket version conflict")

// ErrDuplicateTrackingCode is returned when an insert collides on the
// tracking code unique index.
var ErrDuplicateTrackingCode = errors.New("duplicate tracking code")

// TicketFilter captures staff search parameters.
type TicketFilter struct {
	SearchTerm   *string
	Statuses     []domain.RepairStatus
	TechnicianID *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates repair ticket persistence. Every mutation
// writes the ticket row and its history append in one transaction, guarded
// by the version column.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.RepairTicket, first *domain.StatusHistoryEntry) error
	GetByID(ctx context.Context, id string) (*domain.RepairTicket, error)
	GetByTrackingCode(ctx context.Context, code string) (*domain.RepairTicket, error)
	Update(ctx context.Context, ticket *domain.RepairTicket, entry *domain.StatusHistoryEntry) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.RepairTicket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, tracking_code, customer_name, customer_phone, customer_email,
               device_brand, device_model, device_serial, issue_description, status,
               assigned_technician_id, estimated_cost_cents, final_cost_cents, technician_notes,
               warranty_supplier, warranty_rma_code, warranty_result, warranty_swap_serial,
               outsourced_partner_id, cost_to_us_cents, device_photos, version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.RepairTicket, first *domain.StatusHistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO repair_tickets (tracking_code, customer_name, customer_phone, customer_email,
            device_brand, device_model, device_serial, issue_description, status, device_photos)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, version, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		ticket.TrackingCode,
		ticket.CustomerName,
		ticket.CustomerPhone,
		ticket.CustomerEmail,
		ticket.DeviceBrand,
		ticket.DeviceModel,
		ticket.DeviceSerial,
		ticket.IssueDescription,
		ticket.Status,
		ticket.DevicePhotos,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTrackingCode
		}
		return err
	}

	first.TicketID = ticket.ID
	if err := insertHistory(ctx, tx, first); err != nil {
		return err
	}

	// Only mutate the aggregate once the write is durable.
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	ticket.History = append(ticket.History, *first)
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.RepairTicket, entry *domain.StatusHistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE repair_tickets SET status=$1, assigned_technician_id=$2,
            estimated_cost_cents=$3, final_cost_cents=$4, technician_notes=$5,
            warranty_supplier=$6, warranty_rma_code=$7, warranty_result=$8, warranty_swap_serial=$9,
            outsourced_partner_id=$10, cost_to_us_cents=$11,
            version=version+1, updated_at=NOW()
        WHERE id=$12 AND version=$13
        RETURNING version, updated_at`
	var supplier, rmaCode, result, swapSerial *string
	if ticket.Warranty != nil {
		supplier = &ticket.Warranty.SupplierName
		rmaCode = &ticket.Warranty.RMACode
		res := string(ticket.Warranty.Result)
		result = &res
		swapSerial = ticket.Warranty.SwapDeviceSerial
	}
	err = tx.QueryRow(ctx, query,
		ticket.Status,
		ticket.AssignedTechnicianID,
		ticket.EstimatedCostCents,
		ticket.FinalCostCents,
		ticket.TechnicianNotes,
		supplier,
		rmaCode,
		result,
		swapSerial,
		ticket.OutsourcedPartnerID,
		ticket.CostToUsCents,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return err
	}

	if entry != nil {
		entry.TicketID = ticket.ID
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
	}

	// Only mutate the aggregate once the write is durable.
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if entry != nil {
		ticket.History = append(ticket.History, *entry)
	}
	return nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, entry *domain.StatusHistoryEntry) error {
	const query = `
        INSERT INTO repair_status_history (ticket_id, status, note, actor_type, actor_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		entry.TicketID,
		entry.Status,
		entry.Note,
		entry.ActorType,
		entry.ActorID,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.RepairTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByTrackingCode(ctx context.Context, code string) (*domain.RepairTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_tickets WHERE tracking_code=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, code)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.RepairTicket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	history, err := r.loadHistory(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.History = history
	return ticket, nil
}

func (r *ticketRepository) loadHistory(ctx context.Context, ticketID string) ([]domain.StatusHistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, status, note, actor_type, actor_id, created_at
        FROM repair_status_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistory(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.RepairTicket, error) {
	base := fmt.Sprintf(`SELECT %s FROM repair_tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(tracking_code) LIKE %s OR LOWER(customer_name) LIKE %s OR LOWER(customer_phone) LIKE %s OR LOWER(device_model) LIKE %s)",
			placeholder, placeholder, placeholder, placeholder))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("assigned_technician_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RepairTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.RepairTicket, error) {
	var ticket domain.RepairTicket
	var supplier, rmaCode, result, swapSerial *string
	if err := row.Scan(
		&ticket.ID,
		&ticket.TrackingCode,
		&ticket.CustomerName,
		&ticket.CustomerPhone,
		&ticket.CustomerEmail,
		&ticket.DeviceBrand,
		&ticket.DeviceModel,
		&ticket.DeviceSerial,
		&ticket.IssueDescription,
		&ticket.Status,
		&ticket.AssignedTechnicianID,
		&ticket.EstimatedCostCents,
		&ticket.FinalCostCents,
		&ticket.TechnicianNotes,
		&supplier,
		&rmaCode,
		&result,
		&swapSerial,
		&ticket.OutsourcedPartnerID,
		&ticket.CostToUsCents,
		&ticket.DevicePhotos,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if supplier != nil {
		claim := &domain.WarrantyClaim{
			SupplierName:     *supplier,
			SwapDeviceSerial: swapSerial,
		}
		if rmaCode != nil {
			claim.RMACode = *rmaCode
		}
		if result != nil {
			claim.Result = domain.WarrantyResult(*result)
		}
		ticket.Warranty = claim
	}
	return &ticket, nil
}

func scanHistory(rows pgx.Rows) ([]domain.StatusHistoryEntry, error) {
	var result []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Status,
			&entry.Note,
			&entry.ActorType,
			&entry.ActorID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
