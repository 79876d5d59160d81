package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servicedeskpro/servicedesk/internal/domain"
)

// TicketPatch carries the fields of a partial ticket update. Nil fields are
// left untouched at the backend (merge semantics).
type TicketPatch struct {
	Title       *string
	Description *string
	Category    *domain.TicketCategory
	Priority    *domain.TicketPriority
	Status      *domain.TicketStatus
	AssignedTo  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TicketPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Priority == nil && p.Status == nil && p.AssignedTo == nil
}

// Apply copies the patched fields onto a ticket. Used for the optimistic
// cache update; timestamps are the caller's concern.
func (p TicketPatch) Apply(t *domain.Ticket) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo != nil {
		assignee := *p.AssignedTo
		t.AssignedTo = &assignee
	}
}

// TicketRepository is the document-store contract for the ticket collection:
// insert with generated id, get by id, owner-predicate listings with
// descending creation order, partial update with merge semantics, and atomic
// append to the embedded comment array.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	ListByOwnerOrdered(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	UpdateFields(ctx context.Context, id string, patch TicketPatch) error
	AppendComment(ctx context.Context, ticketID string, comment domain.Comment) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, category, priority, status,
               user_id, user_name, user_email, assigned_to, comments, created_at, updated_at`

func (r *ticketRepository) Insert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, priority, status, user_id, user_name, user_email, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.UserID,
		ticket.UserName,
		ticket.UserEmail,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return classify(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	var commentsRaw []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.UserID,
		&ticket.UserName,
		&ticket.UserEmail,
		&ticket.AssignedTo,
		&commentsRaw,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, classify(err)
	}
	comments, err := DecodeComments(commentsRaw)
	if err != nil {
		return nil, err
	}
	ticket.Comments = comments
	return &ticket, nil
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *ticketRepository) ListByOwnerOrdered(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id=$1`
	return r.list(ctx, query, ownerID)
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateFields(ctx context.Context, id string, patch TicketPatch) error {
	sets := []string{}
	args := []any{}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Description != nil {
		addSet("description", *patch.Description)
	}
	if patch.Category != nil {
		addSet("category", *patch.Category)
	}
	if patch.Priority != nil {
		addSet("priority", *patch.Priority)
	}
	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	if patch.AssignedTo != nil {
		addSet("assigned_to", *patch.AssignedTo)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) AppendComment(ctx context.Context, ticketID string, comment domain.Comment) error {
	doc, err := EncodeCommentAppend(comment)
	if err != nil {
		return err
	}
	const query = `UPDATE tickets SET comments = comments || $2::jsonb, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, ticketID, doc)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		var commentsRaw []byte
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.UserID,
			&ticket.UserName,
			&ticket.UserEmail,
			&ticket.AssignedTo,
			&commentsRaw,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, classify(err)
		}
		comments, err := DecodeComments(commentsRaw)
		if err != nil {
			return nil, err
		}
		ticket.Comments = comments
		result = append(result, ticket)
	}
	return result, classify(rows.Err())
}
