package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestCreateTicketAppliesDefaults(t *testing.T) {
	f := newFixture(t, nil)
	user := f.member(t, "Ann", "ann@example.com")

	ticket, err := f.tickets.CreateTicket(context.Background(), user, TicketCreateInput{
		Title:       "Printer broken",
		Description: "Won't power on",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketCategoryGeneral, ticket.Category)
	assert.Equal(t, user.User.ID, ticket.CreatedBy)
	assert.Nil(t, ticket.AssignedTo)
	assert.Empty(t, ticket.Comments)
	assert.True(t, testStart.Equal(ticket.CreatedAt))
	assert.Equal(t, int64(1), f.metrics.Snapshot().Events[string(events.EventTicketCreated)])
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t, nil)
	user := f.member(t, "Ann", "ann@example.com")
	ctx := context.Background()

	tests := []struct {
		name  string
		input TicketCreateInput
	}{
		{name: "blank title", input: TicketCreateInput{Title: "   ", Description: "d"}},
		{name: "missing description", input: TicketCreateInput{Title: "t"}},
		{name: "bad priority", input: TicketCreateInput{Title: "t", Description: "d", Priority: "urgent"}},
		{name: "bad category", input: TicketCreateInput{Title: "t", Description: "d", Category: "billing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tickets.CreateTicket(ctx, user, tt.input)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}

	_, err := f.tickets.CreateTicket(ctx, nil, TicketCreateInput{Title: "t", Description: "d"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuth))
}

func TestOwnTicketVisibility(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.member(t, "Ann", "ann@example.com")
	bob := f.member(t, "Bob", "bob@example.com")
	root := f.admin(t, "Root", "root@example.com")

	older, err := f.tickets.CreateTicket(ctx, ann, TicketCreateInput{Title: "one", Description: "d"})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	newer, err := f.tickets.CreateTicket(ctx, ann, TicketCreateInput{Title: "two", Description: "d"})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	bobs, err := f.tickets.CreateTicket(ctx, bob, TicketCreateInput{Title: "bob", Description: "d"})
	require.NoError(t, err)

	own, err := f.tickets.ListOwnTickets(ctx, ann)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, newer.ID, own[0].ID)
	assert.Equal(t, older.ID, own[1].ID)

	// assignment makes the ticket show up in the assignee's list
	_, err = f.tickets.AssignTicket(ctx, root, bobs.ID, ann.User.ID)
	require.NoError(t, err)
	own, err = f.tickets.ListOwnTickets(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, own, 3)

	bobsOwn, err := f.tickets.ListOwnTickets(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobsOwn, 1)
	assert.Equal(t, bobs.ID, bobsOwn[0].ID)

	got, err := f.tickets.GetOwnTicket(ctx, ann, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "Ann", got.Creator.Name)

	// only creators may open the detail view; foreign and missing ids look the same
	_, foreign := f.tickets.GetOwnTicket(ctx, bob, older.ID)
	_, assigned := f.tickets.GetOwnTicket(ctx, ann, bobs.ID)
	_, missing := f.tickets.GetOwnTicket(ctx, ann, uuid.NewString())
	_, malformed := f.tickets.GetOwnTicket(ctx, ann, "not-a-uuid")
	for _, err := range []error{foreign, assigned, missing, malformed} {
		require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "got %v", err)
		assert.Equal(t, "Ticket not found", apperrors.ToDomainError(err).Message)
	}
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.member(t, "Ann", "ann@example.com")
	ticket, err := f.tickets.CreateTicket(ctx, ann, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	calls := map[string]func(*domain.Session) error{
		"list all": func(s *domain.Session) error {
			_, err := f.tickets.ListAllTickets(ctx, s, TicketListFilter{})
			return err
		},
		"get any": func(s *domain.Session) error {
			_, err := f.tickets.GetAnyTicket(ctx, s, ticket.ID)
			return err
		},
		"assign": func(s *domain.Session) error {
			_, err := f.tickets.AssignTicket(ctx, s, ticket.ID, ann.User.ID)
			return err
		},
		"status": func(s *domain.Session) error {
			_, err := f.tickets.UpdateStatus(ctx, s, ticket.ID, "resolved")
			return err
		},
		"comment": func(s *domain.Session) error {
			_, err := f.tickets.AddComment(ctx, s, ticket.ID, "hi")
			return err
		},
		"users": func(s *domain.Session) error {
			_, err := f.tickets.ListUsers(ctx, s)
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.True(t, apperrors.IsCode(call(ann), apperrors.CodeForbidden))
			assert.True(t, apperrors.IsCode(call(nil), apperrors.CodeAuth))
		})
	}
}

func TestListAllTicketsFilters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.member(t, "Ann", "ann@example.com")
	root := f.admin(t, "Root", "root@example.com")

	var created []*domain.Ticket
	for _, in := range []TicketCreateInput{
		{Title: "a", Description: "d", Priority: "high", Category: "technical"},
		{Title: "b", Description: "d", Priority: "low"},
		{Title: "c", Description: "d", Priority: "high", Category: "project"},
	} {
		ticket, err := f.tickets.CreateTicket(ctx, ann, in)
		require.NoError(t, err)
		created = append(created, ticket)
		f.clock.Advance(time.Second)
	}
	_, err := f.tickets.UpdateStatus(ctx, root, created[2].ID, "in_progress")
	require.NoError(t, err)

	all, err := f.tickets.ListAllTickets(ctx, root, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, created[2].ID, all[0].ID)
	require.NotNil(t, all[0].Creator)
	assert.Equal(t, "ann@example.com", all[0].Creator.Email)

	open, err := f.tickets.ListAllTickets(ctx, root, TicketListFilter{Status: "open"})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, created[1].ID, open[0].ID)
	assert.Equal(t, created[0].ID, open[1].ID)
	for _, ticket := range open {
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	}

	high, err := f.tickets.ListAllTickets(ctx, root, TicketListFilter{Priority: "high", Category: "technical"})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, created[0].ID, high[0].ID)

	_, err = f.tickets.ListAllTickets(ctx, root, TicketListFilter{Status: "closed"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestAssignTicket(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.member(t, "Ann", "ann@example.com")
	root := f.admin(t, "Root", "root@example.com")
	ticket, err := f.tickets.CreateTicket(ctx, ann, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	assigned, err := f.tickets.AssignTicket(ctx, root, ticket.ID, root.User.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, root.User.ID, *assigned.AssignedTo)
	require.NotNil(t, assigned.Assignee)
	assert.Equal(t, "Root", assigned.Assignee.Name)
	assert.True(t, testStart.Add(time.Minute).Equal(assigned.UpdatedAt))

	again, err := f.tickets.AssignTicket(ctx, root, ticket.ID, root.User.ID)
	require.NoError(t, err)
	assert.Equal(t, *assigned.AssignedTo, *again.AssignedTo)
	assert.Equal(t, assigned.Status, again.Status)

	got, err := f.tickets.GetAnyTicket(ctx, root, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, root.User.ID, *got.AssignedTo)

	_, err = f.tickets.AssignTicket(ctx, root, ticket.ID, "  ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	_, err = f.tickets.AssignTicket(ctx, root, uuid.NewString(), root.User.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = f.tickets.AssignTicket(ctx, root, ticket.ID, uuid.NewString())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	_, err = f.tickets.AssignTicket(ctx, root, ticket.ID, "bogus")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	assert.Equal(t, int64(2), f.metrics.Snapshot().Events[string(events.EventTicketAssigned)])
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.member(t, "Ann", "ann@example.com")
	root := f.admin(t, "Root", "root@example.com")
	ticket, err := f.tickets.CreateTicket(ctx, ann, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	// no transition graph: resolved tickets can be reopened
	for _, status := range []string{"resolved", "open", "in_progress", "in_progress"} {
		updated, err := f.tickets.UpdateStatus(ctx, root, ticket.ID, status)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatus(status), updated.Status)
	}

	_, err = f.tickets.UpdateStatus(ctx, root, ticket.ID, "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Equal(t, "Status is required", apperrors.ToDomainError(err).Message)
	_, err = f.tickets.UpdateStatus(ctx, root, ticket.ID, "closed")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	_, err = f.tickets.UpdateStatus(ctx, root, uuid.NewString(), "open")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAssignAndStatusDoNotOverwriteEachOther(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.member(t, "Ann", "ann@example.com")
	root := f.admin(t, "Root", "root@example.com")
	ticket, err := f.tickets.CreateTicket(ctx, ann, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	_, err = f.tickets.UpdateStatus(ctx, root, ticket.ID, "in_progress")
	require.NoError(t, err)
	_, err = f.tickets.AssignTicket(ctx, root, ticket.ID, root.User.ID)
	require.NoError(t, err)

	got, err := f.tickets.GetAnyTicket(ctx, root, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)
	assert.Equal(t, root.User.ID, *got.AssignedTo)
}

func TestAddCommentAppendsInOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.member(t, "Ann", "ann@example.com")
	root := f.admin(t, "Root", "root@example.com")
	ticket, err := f.tickets.CreateTicket(ctx, ann, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	first, err := f.tickets.AddComment(ctx, root, ticket.ID, "  looking into it ")
	require.NoError(t, err)
	require.Len(t, first.Comments, 1)
	assert.Equal(t, "looking into it", first.Comments[0].Message)
	assert.Equal(t, root.User.ID, first.Comments[0].Author)
	require.NotNil(t, first.Comments[0].AuthorProfile)
	assert.Equal(t, domain.RoleAdmin, first.Comments[0].AuthorProfile.Role)

	// clock stepping backwards must not reorder the thread
	f.clock.Set(testStart.Add(-time.Hour))
	second, err := f.tickets.AddComment(ctx, root, ticket.ID, "fixed")
	require.NoError(t, err)
	require.Len(t, second.Comments, 2)
	assert.Equal(t, first.Comments[0], second.Comments[0])
	assert.Equal(t, "fixed", second.Comments[1].Message)
	assert.False(t, second.Comments[1].CreatedAt.Before(second.Comments[0].CreatedAt))

	// members see the comments on their own ticket
	own, err := f.tickets.GetOwnTicket(ctx, ann, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, own.Comments, 2)

	_, err = f.tickets.AddComment(ctx, root, ticket.ID, "   ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	_, err = f.tickets.AddComment(ctx, root, uuid.NewString(), "hi")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Equal(t, int64(2), f.metrics.Snapshot().Events[string(events.EventTicketCommented)])
}

func TestListUsersSortedByName(t *testing.T) {
	f := newFixture(t, nil)
	root := f.admin(t, "Root", "root@example.com")
	f.member(t, "Zed", "zed@example.com")
	f.member(t, "Ann", "ann@example.com")

	users, err := f.tickets.ListUsers(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"Ann", "Root", "Zed"}, []string{users[0].Name, users[1].Name, users[2].Name})
}

func TestStringPreview(t *testing.T) {
	assert.Equal(t, "short", stringPreview(" short ", 10))
	assert.Equal(t, "abcd...", stringPreview("abcdefghij", 7))
	assert.Equal(t, "ab", stringPreview("abcdef", 2))
	assert.Equal(t, "héllo...", stringPreview("héllo wörld", 8))
}
