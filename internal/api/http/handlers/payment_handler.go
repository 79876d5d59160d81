package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/servicedeskpro/servicedesk/internal/api/dto"
	"github.com/servicedeskpro/servicedesk/internal/auth"
	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/service"
	apperrors "github.com/servicedeskpro/servicedesk/pkg/util/errorutil"
)

// PaymentHandler exposes the plan catalog and the purchase flow.
type PaymentHandler struct {
	payments *service.PaymentService
	keyID    string
}

// NewPaymentHandler constructs handler.
func NewPaymentHandler(payments *service.PaymentService, keyID string) *PaymentHandler {
	return &PaymentHandler{payments: payments, keyID: keyID}
}

// ListPlans handles GET /plans.
func (h *PaymentHandler) ListPlans(c *fiber.Ctx) error {
	items := make([]dto.PlanResponse, 0, len(domain.Plans))
	for _, plan := range domain.Plans {
		items = append(items, dto.PlanResponse{
			ID:          plan.ID,
			Name:        plan.Name,
			Amount:      plan.Amount,
			Period:      plan.Period,
			Description: plan.Description,
			Features:    plan.Features,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateOrder handles POST /payments/orders.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PlanID == "" {
		return apperrors.NewValidationError("plan_id required", nil)
	}

	order, err := h.payments.CreateOrder(c.UserContext(), principal.User, req.PlanID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.OrderResponse{
		OrderID:     order.ID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Description: order.Description,
		KeyID:       h.keyID,
	}})
}

// Confirm handles POST /payments/confirm, the gateway completion callback.
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PaymentID == "" || req.OrderID == "" || req.Signature == "" {
		return apperrors.NewValidationError("payment_id, order_id, signature required", nil)
	}

	sub, err := h.payments.Confirm(c.UserContext(), principal.User, service.Callback{
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Signature: req.Signature,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SubscriptionResponse{
		PlanID:    sub.PlanID,
		PlanName:  sub.PlanName,
		Status:    string(sub.Status),
		StartDate: sub.StartDate,
		Amount:    sub.Amount,
	}})
}
