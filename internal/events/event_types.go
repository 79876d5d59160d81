package events

import (
	"time"

	"github.com/servicedeskpro/servicedesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketUpdated         EventType = "ticket_updated"
	EventTicketCommentAdded    EventType = "ticket_comment_added"
	EventSubscriptionActivated EventType = "subscription_activated"
)

// Event represents a domain event emitted by the ticket and payment flows.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title        string                `json:"title"`
	Category     domain.TicketCategory `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	OwnerEmail   string                `json:"owner_email"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Status   *domain.TicketStatus   `json:"status,omitempty"`
	Priority *domain.TicketPriority `json:"priority,omitempty"`
	Assignee *string                `json:"assignee,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorName  string `json:"author_name"`
	BodyPreview string `json:"body_preview"`
}

// SubscriptionActivatedPayload payload.
type SubscriptionActivatedPayload struct {
	PlanID   string `json:"plan_id"`
	PlanName string `json:"plan_name"`
	Amount   int64  `json:"amount"`
}
