package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup or update matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	UpdateRole(ctx context.Context, id string, role domain.Role, updatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns every user ordered by name ascending.
	List(ctx context.Context) ([]domain.User, error)
}

// TicketFilter narrows ticket listings. Nil fields are ignored.
type TicketFilter struct {
	// InvolvedUserID matches tickets created by or assigned to the user.
	InvolvedUserID *string
	Status         *domain.TicketStatus
	Priority       *domain.TicketPriority
	Category       *domain.TicketCategory
}

// TicketRepository encapsulates ticket persistence. Loaded tickets carry their
// comments in insertion order and the creator, assignee and author profiles.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns matching tickets newest first.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateAssignee(ctx context.Context, id, assigneeID string, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, updatedAt time.Time) error
	AppendComment(ctx context.Context, comment *domain.Comment) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users   UserRepository
	Tickets TicketRepository
}
