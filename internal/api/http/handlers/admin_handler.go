package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/servicedeskpro/servicedesk/internal/auth"
	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/tickets"
	apperrors "github.com/servicedeskpro/servicedesk/pkg/util/errorutil"
)

// AdminHandler exposes the triage dashboard endpoints.
type AdminHandler struct {
	manager *tickets.Manager
}

// NewAdminHandler constructs handler.
func NewAdminHandler(manager *tickets.Manager) *AdminHandler {
	return &AdminHandler{manager: manager}
}

// Stats handles GET /admin/stats: ticket counts by status plus the most
// recent tickets, computed from the admin session's cache.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	sessionStore, err := h.manager.ForSession(c.UserContext(), principal.Token, principal.User)
	if err != nil {
		return err
	}

	counts := sessionStore.CountsByStatus()
	recent := sessionStore.All()
	if len(recent) > 5 {
		recent = recent[:5]
	}
	recentItems := make([]any, 0, len(recent))
	for i := range recent {
		recentItems = append(recentItems, ticketSummary(&recent[i]))
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"total":       len(sessionStore.All()),
			"open":        counts[domain.TicketStatusOpen],
			"in_progress": counts[domain.TicketStatusInProgress],
			"resolved":    counts[domain.TicketStatusResolved],
			"closed":      counts[domain.TicketStatusClosed],
			"recent":      recentItems,
		},
	})
}
