package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AdminHandler serves the triage endpoints under /admin.
type AdminHandler struct {
	service *service.TicketService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(ticketService *service.TicketService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{service: ticketService, metrics: metrics}
}

// ListTickets GET /admin/tickets.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	session, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	var query dto.TicketListQuery
	if err := c.QueryParser(&query); err != nil {
		return invalidPayload()
	}
	tickets, err := h.service.ListAllTickets(c.UserContext(), session, service.TicketListFilter{
		Status:   query.Status,
		Priority: query.Priority,
		Category: query.Category,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(tickets, dto.ExpandParties))
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminHandler) GetTicket(c *fiber.Ctx) error {
	session, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetAnyTicket(c.UserContext(), session, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{Ticket: dto.NewTicketResponse(ticket, dto.ExpandAll)})
}

// AssignTicket PATCH /admin/tickets/:id/assign.
func (h *AdminHandler) AssignTicket(c *fiber.Ctx) error {
	session, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.service.AssignTicket(c.UserContext(), session, c.Params("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{
		Message: "Ticket assigned successfully",
		Ticket:  dto.NewTicketResponse(ticket, dto.ExpandAll),
	})
}

// UpdateStatus PATCH /admin/tickets/:id/status.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	session, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), session, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{
		Message: "Ticket status updated successfully",
		Ticket:  dto.NewTicketResponse(ticket, dto.ExpandAll),
	})
}

// AddComment POST /admin/tickets/:id/comments.
func (h *AdminHandler) AddComment(c *fiber.Ctx) error {
	session, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.service.AddComment(c.UserContext(), session, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketEnvelope{
		Message: "Comment added successfully",
		Ticket:  dto.NewTicketResponse(ticket, dto.ExpandAll),
	})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	session, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListUsers(c.UserContext(), session)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserListResponse{Users: users})
}

// Metrics GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
