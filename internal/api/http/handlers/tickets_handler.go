package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/servicedeskpro/servicedesk/internal/api/dto"
	"github.com/servicedeskpro/servicedesk/internal/auth"
	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/store"
	"github.com/servicedeskpro/servicedesk/internal/tickets"
	apperrors "github.com/servicedeskpro/servicedesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints for both end-users and
// administrators; visibility follows the per-session ticket store.
type TicketsHandler struct {
	manager *tickets.Manager
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(manager *tickets.Manager) *TicketsHandler {
	return &TicketsHandler{manager: manager}
}

func (h *TicketsHandler) sessionStore(c *fiber.Ctx) (*tickets.Store, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return h.manager.ForSession(c.UserContext(), principal.Token, principal.User)
}

// List handles GET /tickets with optional filter and sort query parameters.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	sessionStore, err := h.sessionStore(c)
	if err != nil {
		return err
	}

	listing := sessionStore.All()
	filter := tickets.ListFilter{
		Status:   domain.TicketStatus(c.Query("status")),
		Category: domain.TicketCategory(c.Query("category")),
		Priority: domain.TicketPriority(c.Query("priority")),
		Search:   c.Query("search"),
	}
	listing = tickets.ApplyFilter(listing, filter)
	if sortKey := c.Query("sort"); sortKey != "" {
		tickets.SortTickets(listing, tickets.SortKey(sortKey))
	}

	items := make([]dto.TicketSummary, 0, len(listing))
	for i := range listing {
		items = append(items, ticketSummary(&listing[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	sessionStore, err := h.sessionStore(c)
	if err != nil {
		return err
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := sessionStore.Create(c.UserContext(), tickets.Draft{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Get handles GET /tickets/:id. Always fetches from the backend for
// guaranteed freshness.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	sessionStore, err := h.sessionStore(c)
	if err != nil {
		return err
	}

	ticket, err := sessionStore.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !principal.User.IsAdmin() && ticket.UserID != principal.User.ID {
		return apperrors.NewForbidden("access denied")
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Update handles PATCH /tickets/:id. Owners may edit their own tickets;
// administrators may triage any.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	sessionStore, err := h.sessionStore(c)
	if err != nil {
		return err
	}

	ticketID := c.Params("id")
	if !principal.User.IsAdmin() {
		existing, err := sessionStore.GetByID(c.UserContext(), ticketID)
		if err != nil {
			return err
		}
		if existing.UserID != principal.User.ID {
			return apperrors.NewForbidden("access denied")
		}
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch := store.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	}
	if patch.IsEmpty() {
		return apperrors.NewValidationError("no fields to update", nil)
	}

	ticket, err := sessionStore.Update(c.UserContext(), ticketID, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddComment handles POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	sessionStore, err := h.sessionStore(c)
	if err != nil {
		return err
	}

	ticketID := c.Params("id")
	ticket, err := sessionStore.GetByID(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	if !principal.User.IsAdmin() && ticket.UserID != principal.User.ID {
		return apperrors.NewForbidden("access denied")
	}

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.IsInternal && !principal.User.IsAdmin() {
		return apperrors.NewForbidden("internal notes are admin-only")
	}

	comment, err := sessionStore.AddComment(c.UserContext(), ticketID, tickets.CommentDraft{
		UserID:     principal.User.ID,
		UserName:   principal.User.Name,
		Content:    req.Content,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListForUser handles GET /users/:id/tickets, a pure filter over the
// session's cache with no backend access.
func (h *TicketsHandler) ListForUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	userID := c.Params("id")
	if !principal.User.IsAdmin() && userID != principal.User.ID {
		return apperrors.NewForbidden("access denied")
	}
	sessionStore, err := h.sessionStore(c)
	if err != nil {
		return err
	}

	listing := sessionStore.GetForUser(userID)
	items := make([]dto.TicketSummary, 0, len(listing))
	for i := range listing {
		items = append(items, ticketSummary(&listing[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Category:     ticket.Category,
		Priority:     ticket.Priority,
		Status:       ticket.Status,
		UserID:       ticket.UserID,
		UserName:     ticket.UserName,
		AssignedTo:   ticket.AssignedTo,
		CommentCount: len(ticket.Comments),
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetail {
	comments := make([]dto.CommentResponse, 0, len(ticket.Comments))
	for i := range ticket.Comments {
		comments = append(comments, commentResponse(&ticket.Comments[i]))
	}
	return dto.TicketDetail{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		UserID:      ticket.UserID,
		UserName:    ticket.UserName,
		UserEmail:   ticket.UserEmail,
		AssignedTo:  ticket.AssignedTo,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		Comments:    comments,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		UserID:     comment.UserID,
		UserName:   comment.UserName,
		Content:    comment.Content,
		CreatedAt:  comment.CreatedAt,
		IsInternal: comment.IsInternal,
	}
}
