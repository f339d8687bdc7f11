package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// TicketCategory groups tickets by subject area.
type TicketCategory string

const (
	TicketCategoryProject   TicketCategory = "project"
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryGeneral   TicketCategory = "general"
)

// ParseTicketStatus validates a status value.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch s := TicketStatus(strings.TrimSpace(raw)); s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return s, nil
	default:
		return "", fmt.Errorf("invalid status %q", raw)
	}
}

// ParseTicketPriority validates a priority value.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	switch p := TicketPriority(strings.TrimSpace(raw)); p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority %q", raw)
	}
}

// ParseTicketCategory validates a category value.
func ParseTicketCategory(raw string) (TicketCategory, error) {
	switch c := TicketCategory(strings.TrimSpace(raw)); c {
	case TicketCategoryProject, TicketCategoryTechnical, TicketCategoryGeneral:
		return c, nil
	default:
		return "", fmt.Errorf("invalid category %q", raw)
	}
}

// Ticket is the aggregate for support requests.
//
// Creator, Assignee and each comment's AuthorProfile are populated by the
// repositories when the referenced user exists; they are read-only views.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Category    TicketCategory
	CreatedBy   string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Comments    []Comment

	Creator  *UserProfile
	Assignee *UserProfile
}

// Comment is an append-only entry in a ticket thread.
type Comment struct {
	ID            string
	TicketID      string
	Author        string
	Message       string
	CreatedAt     time.Time
	AuthorProfile *UserProfile
}
