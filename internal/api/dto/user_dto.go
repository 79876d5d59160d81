package dto

import "time"

// RegisterRequest payload for local-credential accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for local sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FederatedSignInRequest is the callback payload from the interactive
// federated sign-in flow. Either Identity is present, or ErrorCode names why
// the flow failed (cancelled, popup-blocked, unauthorized-domain).
type FederatedSignInRequest struct {
	Identity  *FederatedIdentity `json:"identity"`
	ErrorCode string             `json:"error_code"`
}

// FederatedIdentity mirrors what the federation backend returns.
type FederatedIdentity struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SubscriptionResponse describes a recorded subscription.
type SubscriptionResponse struct {
	PlanID    string    `json:"plan_id"`
	PlanName  string    `json:"plan_name"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	Amount    int64     `json:"amount"`
}

// UserResponse describes an account.
type UserResponse struct {
	ID           string                `json:"id"`
	Email        string                `json:"email"`
	Name         string                `json:"name"`
	Role         string                `json:"role"`
	AvatarURL    *string               `json:"avatar_url,omitempty"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}
