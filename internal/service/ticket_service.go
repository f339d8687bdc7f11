package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const commentPreviewLength = 80

// TicketService coordinates ticket workflows. Every operation takes the caller's
// session and checks its role before touching storage.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload. Empty Priority and
// Category fall back to medium and general.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    string
	Category    string
}

// TicketListFilter holds the raw admin listing filters. Empty fields are ignored.
type TicketListFilter struct {
	Status   string
	Priority string
	Category string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		clock:      clk,
		logger:     logger,
	}
}

// CreateTicket opens a ticket on behalf of the caller.
func (s *TicketService) CreateTicket(ctx context.Context, session *domain.Session, input TicketCreateInput) (*domain.Ticket, error) {
	if err := auth.CheckRole(session, domain.RoleMember); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("Title and description are required", nil)
	}

	priority := domain.TicketPriorityMedium
	if input.Priority != "" {
		p, err := domain.ParseTicketPriority(input.Priority)
		if err != nil {
			return nil, invalidField("priority", input.Priority)
		}
		priority = p
	}
	category := domain.TicketCategoryGeneral
	if input.Category != "" {
		c, err := domain.ParseTicketCategory(input.Category)
		if err != nil {
			return nil, invalidField("category", input.Category)
		}
		category = c
	}

	now := s.clock.Now()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		Category:    category,
		CreatedBy:   session.User.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(session),
		Payload: events.TicketCreatedPayload{
			Priority: ticket.Priority,
			Category: ticket.Category,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// ListOwnTickets returns tickets the caller created or is assigned, newest first.
func (s *TicketService) ListOwnTickets(ctx context.Context, session *domain.Session) ([]domain.Ticket, error) {
	if err := auth.CheckRole(session, domain.RoleMember); err != nil {
		return nil, err
	}
	userID := session.User.ID
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{InvolvedUserID: &userID})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// GetOwnTicket returns a ticket the caller created. Foreign, missing and
// malformed ids all yield the same NotFound error.
func (s *TicketService) GetOwnTicket(ctx context.Context, session *domain.Session, ticketID string) (*domain.Ticket, error) {
	if err := auth.CheckRole(session, domain.RoleMember); err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedBy != session.User.ID {
		return nil, ticketNotFound()
	}
	return ticket, nil
}

// ListAllTickets returns every ticket matching the filter, newest first.
func (s *TicketService) ListAllTickets(ctx context.Context, session *domain.Session, filter TicketListFilter) ([]domain.Ticket, error) {
	if err := auth.CheckRole(session, domain.RoleAdmin); err != nil {
		return nil, err
	}

	repoFilter := repository.TicketFilter{}
	if filter.Status != "" {
		status, err := domain.ParseTicketStatus(filter.Status)
		if err != nil {
			return nil, invalidField("status", filter.Status)
		}
		repoFilter.Status = &status
	}
	if filter.Priority != "" {
		priority, err := domain.ParseTicketPriority(filter.Priority)
		if err != nil {
			return nil, invalidField("priority", filter.Priority)
		}
		repoFilter.Priority = &priority
	}
	if filter.Category != "" {
		category, err := domain.ParseTicketCategory(filter.Category)
		if err != nil {
			return nil, invalidField("category", filter.Category)
		}
		repoFilter.Category = &category
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// GetAnyTicket returns any ticket by id.
func (s *TicketService) GetAnyTicket(ctx context.Context, session *domain.Session, ticketID string) (*domain.Ticket, error) {
	if err := auth.CheckRole(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.loadTicket(ctx, ticketID)
}

// AssignTicket sets the ticket's assignee. The assignee must be an existing user.
func (s *TicketService) AssignTicket(ctx context.Context, session *domain.Session, ticketID, assigneeID string) (*domain.Ticket, error) {
	if err := auth.CheckRole(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, apperrors.NewValidationError("assignedTo user id is required", nil)
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	unknownUser := apperrors.NewValidationError("assignedTo must reference an existing user", map[string]any{"assignedTo": assigneeID})
	if _, err := uuid.Parse(assigneeID); err != nil {
		return nil, unknownUser
	}
	if _, err := s.users.GetByID(ctx, assigneeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unknownUser
		}
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.tickets.UpdateAssignee(ctx, ticket.ID, assigneeID, s.clock.Now()); err != nil {
		return nil, mapTicketErr(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actorOf(session),
		Payload: events.TicketAssignedPayload{
			OldAssignee: ticket.AssignedTo,
			NewAssignee: assigneeID,
		},
	})
	return s.loadTicket(ctx, ticket.ID)
}

// UpdateStatus moves the ticket to any of the three statuses.
func (s *TicketService) UpdateStatus(ctx context.Context, session *domain.Session, ticketID, rawStatus string) (*domain.Ticket, error) {
	if err := auth.CheckRole(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawStatus) == "" {
		return nil, apperrors.NewValidationError("Status is required", nil)
	}
	status, err := domain.ParseTicketStatus(rawStatus)
	if err != nil {
		return nil, invalidField("status", rawStatus)
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, status, s.clock.Now()); err != nil {
		return nil, mapTicketErr(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorOf(session),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: status,
		},
	})
	return s.loadTicket(ctx, ticket.ID)
}

// AddComment appends one comment to the ticket thread. The comment time never
// precedes the previous comment's time, so the thread stays chronological even
// if the clock steps backwards.
func (s *TicketService) AddComment(ctx context.Context, session *domain.Session, ticketID, message string) (*domain.Ticket, error) {
	if err := auth.CheckRole(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("Comment message is required", nil)
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	createdAt := s.clock.Now()
	if n := len(ticket.Comments); n > 0 {
		if last := ticket.Comments[n-1].CreatedAt; createdAt.Before(last) {
			createdAt = last
		}
	}
	comment := &domain.Comment{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		Author:    session.User.ID,
		Message:   message,
		CreatedAt: createdAt,
	}
	if err := s.tickets.AppendComment(ctx, comment); err != nil {
		return nil, mapTicketErr(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommented,
		TicketID: ticket.ID,
		Actor:    actorOf(session),
		Payload: events.TicketCommentedPayload{
			CommentID:   comment.ID,
			BodyPreview: stringPreview(message, commentPreviewLength),
		},
	})
	return s.loadTicket(ctx, ticket.ID)
}

// ListUsers returns every user's public profile ordered by name.
func (s *TicketService) ListUsers(ctx context.Context, session *domain.Session) ([]domain.UserProfile, error) {
	if err := auth.CheckRole(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	profiles := make([]domain.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, ticketNotFound()
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func actorOf(session *domain.Session) events.Actor {
	return events.Actor{UserID: session.User.ID, Role: session.User.Role}
}

func mapTicketErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ticketNotFound()
	}
	return apperrors.NewInternalError(err)
}

func ticketNotFound() error {
	return apperrors.NewNotFound("Ticket")
}

func invalidField(field, value string) error {
	return apperrors.NewValidationError("invalid "+field, map[string]any{field: value})
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
