package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const ticketSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.category,
	       t.created_by, t.assigned_to, t.created_at, t.updated_at,
	       c.name, c.email, c.role,
	       a.name, a.email, a.role
	FROM tickets t
	LEFT JOIN users c ON c.id = t.created_by
	LEFT JOIN users a ON a.id = t.assigned_to`

// TicketRepository implements repository.TicketRepository using SQLite.
type TicketRepository struct {
	db *sql.DB
}

var _ repository.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new SQLite-backed TicketRepository.
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (id, title, description, status, priority, category, created_by, assigned_to, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.ID, ticket.Title, ticket.Description,
		string(ticket.Status), string(ticket.Priority), string(ticket.Category),
		ticket.CreatedBy, nullString(ticket.AssignedTo),
		formatTime(ticket.CreatedAt), formatTime(ticket.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	tickets, err := r.query(ctx, ticketSelect+` WHERE t.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, repository.ErrNotFound
	}
	return &tickets[0], nil
}

func (r *TicketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.InvolvedUserID != nil {
		clauses = append(clauses, "(t.created_by = ? OR t.assigned_to = ?)")
		args = append(args, *filter.InvolvedUserID, *filter.InvolvedUserID)
	}
	if filter.Status != nil {
		clauses = append(clauses, "t.status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		clauses = append(clauses, "t.priority = ?")
		args = append(args, string(*filter.Priority))
	}
	if filter.Category != nil {
		clauses = append(clauses, "t.category = ?")
		args = append(args, string(*filter.Category))
	}

	query := ticketSelect + ` WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY t.created_at DESC, t.seq DESC`
	return r.query(ctx, query, args...)
}

func (r *TicketRepository) UpdateAssignee(ctx context.Context, id, assigneeID string, updatedAt time.Time) error {
	return r.execOne(ctx,
		`UPDATE tickets SET assigned_to = ?, updated_at = ? WHERE id = ?`,
		assigneeID, formatTime(updatedAt), id,
	)
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, updatedAt time.Time) error {
	return r.execOne(ctx,
		`UPDATE tickets SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(updatedAt), id,
	)
}

// AppendComment inserts the comment and bumps the ticket's updated_at in one transaction.
func (r *TicketRepository) AppendComment(ctx context.Context, comment *domain.Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET updated_at = ? WHERE id = ?`,
		formatTime(comment.CreatedAt), comment.TicketID,
	)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return repository.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ticket_comments (id, ticket_id, author_id, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.TicketID, comment.Author, comment.Message, formatTime(comment.CreatedAt),
	); err != nil {
		return mapError(err)
	}
	return tx.Commit()
}

func (r *TicketRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TicketRepository) query(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
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

func scanTickets(rows *sql.Rows) ([]domain.Ticket, error) {
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var (
			ticket                     domain.Ticket
			status, priority, category string
			assignedTo                 sql.NullString
			created, updated           string
			creator, assignee          repository.NullableProfile
		)
		if err := rows.Scan(
			&ticket.ID, &ticket.Title, &ticket.Description,
			&status, &priority, &category,
			&ticket.CreatedBy, &assignedTo, &created, &updated,
			&creator.Name, &creator.Email, &creator.Role,
			&assignee.Name, &assignee.Email, &assignee.Role,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		ticket.Status = domain.TicketStatus(status)
		ticket.Priority = domain.TicketPriority(priority)
		ticket.Category = domain.TicketCategory(category)

		var err error
		if ticket.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if ticket.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}

		ticket.Creator = creator.Profile(ticket.CreatedBy)
		if assignedTo.Valid {
			id := assignedTo.String
			ticket.AssignedTo = &id
			ticket.Assignee = assignee.Profile(id)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (r *TicketRepository) attachComments(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	placeholders := make([]string, len(tickets))
	args := make([]any, len(tickets))
	index := make(map[string]int, len(tickets))
	for i := range tickets {
		placeholders[i] = "?"
		args[i] = tickets[i].ID
		index[tickets[i].ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT cm.id, cm.ticket_id, cm.author_id, cm.message, cm.created_at,
		       u.name, u.email, u.role
		FROM ticket_comments cm
		LEFT JOIN users u ON u.id = cm.author_id
		WHERE cm.ticket_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY cm.seq ASC`, args...)
	if err != nil {
		return fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			comment domain.Comment
			created string
			author  repository.NullableProfile
		)
		if err := rows.Scan(
			&comment.ID, &comment.TicketID, &comment.Author, &comment.Message, &created,
			&author.Name, &author.Email, &author.Role,
		); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		if comment.CreatedAt, err = parseTime(created); err != nil {
			return err
		}
		comment.AuthorProfile = author.Profile(comment.Author)
		i := index[comment.TicketID]
		tickets[i].Comments = append(tickets[i].Comments, comment)
	}
	return rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
