package domain

import "time"

// UserRole distinguishes end-users from administrators.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// SubscriptionStatus tracks whether a purchased plan is currently active.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Subscription records a purchased plan on a user account.
type Subscription struct {
	PlanID    string
	PlanName  string
	Status    SubscriptionStatus
	StartDate time.Time
	Amount    int64
}

// User is the account record for anyone who signs in. Role is fixed at
// provisioning time; nothing in the service mutates it afterwards.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         UserRole
	AvatarURL    *string
	PasswordHash string
	Subscription *Subscription
	CreatedAt    time.Time
}

// IsAdmin reports whether the user may see every ticket.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsPremium reports whether the user holds an active subscription.
func (u *User) IsPremium() bool {
	return u != nil && u.Subscription != nil && u.Subscription.Status == SubscriptionActive
}
