package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/servicedeskpro/servicedesk/internal/api/dto"
	"github.com/servicedeskpro/servicedesk/internal/auth"
	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/session"
	apperrors "github.com/servicedeskpro/servicedesk/pkg/util/errorutil"
)

// AuthHandler exposes sign-in, sign-out, and account endpoints.
type AuthHandler struct {
	provider   *session.Provider
	bcryptCost int
}

// NewAuthHandler constructs handler.
func NewAuthHandler(provider *session.Provider, bcryptCost int) *AuthHandler {
	return &AuthHandler{provider: provider, bcryptCost: bcryptCost}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, token, exp, err := h.provider.Register(c.UserContext(), req.Name, req.Email, req.Password, h.bcryptCost)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return c.Status(http.StatusCreated).JSON(authEnvelope(user, token, exp))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.provider.SignInLocal(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return c.JSON(authEnvelope(user, token, exp))
}

// Federated handles POST /auth/federated, the completion of the interactive
// federated sign-in flow.
func (h *AuthHandler) Federated(c *fiber.Ctx) error {
	var req dto.FederatedSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ErrorCode != "" {
		return signInFailure(session.MapGatewayCode(req.ErrorCode))
	}
	if req.Identity == nil || req.Identity.ID == "" || req.Identity.Email == "" {
		return apperrors.NewValidationError("identity with id and email required", nil)
	}

	identity := session.FederatedIdentity{
		ID:          req.Identity.ID,
		Email:       req.Identity.Email,
		DisplayName: req.Identity.DisplayName,
		AvatarURL:   req.Identity.AvatarURL,
	}
	user, token, exp, err := h.provider.SignInFederated(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(authEnvelope(user, token, exp))
}

// Logout handles POST /auth/logout. Idempotent.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.provider.SignOut(c.UserContext(), principal.Token); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"signed_out": true}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": userResponse(principal.User)})
}

func signInFailure(err error) error {
	switch {
	case errors.Is(err, session.ErrSignInCancelled):
		return apperrors.NewDomainError("SIGN_IN_CANCELLED", "login cancelled; please try again", http.StatusUnauthorized, nil)
	case errors.Is(err, session.ErrPopupBlocked):
		return apperrors.NewDomainError("POPUP_BLOCKED", "popup blocked; please allow popups and try again", http.StatusUnauthorized, nil)
	case errors.Is(err, session.ErrUnauthorizedDomain):
		return apperrors.NewDomainError("UNAUTHORIZED_DOMAIN", "domain not authorized for sign-in", http.StatusUnauthorized, nil)
	default:
		return apperrors.NewUnauthorized(err.Error())
	}
}

func authEnvelope(user *domain.User, token string, exp time.Time) fiber.Map {
	return fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
	if user.Subscription != nil {
		resp.Subscription = &dto.SubscriptionResponse{
			PlanID:    user.Subscription.PlanID,
			PlanName:  user.Subscription.PlanName,
			Status:    string(user.Subscription.Status),
			StartDate: user.Subscription.StartDate,
			Amount:    user.Subscription.Amount,
		}
	}
	return resp
}
