package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssignedTo string `json:"assignedTo"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Message string `json:"message"`
}

// TicketListQuery captures admin listing filters.
type TicketListQuery struct {
	Status   string `query:"status"`
	Priority string `query:"priority"`
	Category string `query:"category"`
}

// Expansion selects which user references render as full profiles.
type Expansion int

const (
	// ExpandNone renders every reference as a bare id.
	ExpandNone Expansion = iota
	// ExpandParties expands creator and assignee.
	ExpandParties
	// ExpandAll also expands comment authors.
	ExpandAll
)

// UserRef is a user reference that renders as a bare id string, or as
// {id, name, email, role} when a profile is attached.
type UserRef struct {
	ID      string
	Profile *domain.UserProfile
}

// MarshalJSON implements json.Marshaler.
func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.Profile != nil {
		return json.Marshal(r.Profile)
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts either rendering.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var profile domain.UserProfile
		if err := json.Unmarshal(data, &profile); err != nil {
			return err
		}
		*r = UserRef{ID: profile.ID, Profile: &profile}
		return nil
	}
	*r = UserRef{}
	return json.Unmarshal(data, &r.ID)
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	Author    UserRef   `json:"author"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketResponse is the ticket wire shape.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    domain.TicketCategory `json:"category"`
	CreatedBy   UserRef               `json:"createdBy"`
	AssignedTo  *UserRef              `json:"assignedTo"`
	Comments    []CommentResponse     `json:"comments"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// TicketEnvelope wraps a single ticket, with an optional confirmation message.
type TicketEnvelope struct {
	Message string         `json:"message,omitempty"`
	Ticket  TicketResponse `json:"ticket"`
}

// TicketListResponse wraps a listing.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
}

// NewTicketResponse maps a domain ticket to its wire shape.
func NewTicketResponse(ticket *domain.Ticket, expand Expansion) TicketResponse {
	parties := expand >= ExpandParties
	resp := TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		Category:    ticket.Category,
		CreatedBy:   ref(ticket.CreatedBy, ticket.Creator, parties),
		Comments:    make([]CommentResponse, 0, len(ticket.Comments)),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
	if ticket.AssignedTo != nil {
		assignee := ref(*ticket.AssignedTo, ticket.Assignee, parties)
		resp.AssignedTo = &assignee
	}
	for _, c := range ticket.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:        c.ID,
			Author:    ref(c.Author, c.AuthorProfile, expand >= ExpandAll),
			Message:   c.Message,
			CreatedAt: c.CreatedAt,
		})
	}
	return resp
}

// NewTicketList maps a listing, always yielding a non-nil slice.
func NewTicketList(tickets []domain.Ticket, expand Expansion) TicketListResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i], expand))
	}
	return TicketListResponse{Tickets: out}
}

func ref(id string, profile *domain.UserProfile, expand bool) UserRef {
	if !expand || profile == nil {
		return UserRef{ID: id}
	}
	return UserRef{ID: id, Profile: profile}
}
