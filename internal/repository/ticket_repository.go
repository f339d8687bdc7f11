package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const ticketSelect = `
        SELECT t.id::text, t.title, t.description, t.status, t.priority, t.category,
               t.created_by::text, t.assigned_to::text, t.created_at, t.updated_at,
               c.name, c.email, c.role,
               a.name, a.email, a.role
        FROM tickets t
        LEFT JOIN users c ON c.id = t.created_by
        LEFT JOIN users a ON a.id = t.assigned_to`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, status, priority, category, created_by, assigned_to, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return mapPgError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, ticketSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, mapPgError(err)
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	if err := r.attachComments(ctx, tickets); err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.InvolvedUserID != nil {
		args = append(args, *filter.InvolvedUserID)
		clauses = append(clauses, fmt.Sprintf("(t.created_by=$%d OR t.assigned_to=$%d)", len(args), len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("t.category=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.seq DESC`,
		ticketSelect, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachComments(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, id, assigneeID string, updatedAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET assigned_to=$1, updated_at=$2 WHERE id=$3`, assigneeID, updatedAt, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, updatedAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=$2 WHERE id=$3`, status, updatedAt, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendComment inserts the comment and bumps the ticket's updated_at in one transaction.
func (r *ticketRepository) AppendComment(ctx context.Context, comment *domain.Comment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE tickets SET updated_at=$1 WHERE id=$2`, comment.CreatedAt, comment.TicketID)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	const insert = `
        INSERT INTO ticket_comments (id, ticket_id, author_id, message, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	if _, err := tx.Exec(ctx, insert,
		comment.ID,
		comment.TicketID,
		comment.Author,
		comment.Message,
		comment.CreatedAt,
	); err != nil {
		return mapPgError(err)
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) attachComments(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]string, len(tickets))
	index := make(map[string]int, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
		index[tickets[i].ID] = i
	}

	const query = `
        SELECT cm.id::text, cm.ticket_id::text, cm.author_id::text, cm.message, cm.created_at,
               u.name, u.email, u.role
        FROM ticket_comments cm
        LEFT JOIN users u ON u.id = cm.author_id
        WHERE cm.ticket_id = ANY($1::uuid[])
        ORDER BY cm.seq ASC`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			comment domain.Comment
			author  NullableProfile
		)
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.Author,
			&comment.Message,
			&comment.CreatedAt,
			&author.Name,
			&author.Email,
			&author.Role,
		); err != nil {
			return err
		}
		comment.AuthorProfile = author.Profile(comment.Author)
		i := index[comment.TicketID]
		tickets[i].Comments = append(tickets[i].Comments, comment)
	}
	return rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket   domain.Ticket
			creator  NullableProfile
			assignee NullableProfile
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.Category,
			&ticket.CreatedBy,
			&ticket.AssignedTo,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&creator.Name,
			&creator.Email,
			&creator.Role,
			&assignee.Name,
			&assignee.Email,
			&assignee.Role,
		); err != nil {
			return nil, err
		}
		ticket.Creator = creator.Profile(ticket.CreatedBy)
		if ticket.AssignedTo != nil {
			ticket.Assignee = assignee.Profile(*ticket.AssignedTo)
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

// NullableProfile receives LEFT JOINed user columns.
type NullableProfile struct {
	Name  *string
	Email *string
	Role  *string
}

// Profile builds the profile for id, or nil when the joined user was missing.
func (p NullableProfile) Profile(id string) *domain.UserProfile {
	if p.Name == nil || p.Email == nil || p.Role == nil {
		return nil
	}
	return &domain.UserProfile{ID: id, Name: *p.Name, Email: *p.Email, Role: domain.Role(*p.Role)}
}
