package dto

import (
	"time"

	"github.com/servicedeskpro/servicedesk/internal/domain"
)

// CreateTicketRequest payload for new tickets. Status, identifiers, and
// timestamps are assigned server-side.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload for partial ticket updates. Absent fields are
// left untouched.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Category    *domain.TicketCategory `json:"category"`
	Priority    *domain.TicketPriority `json:"priority"`
	Status      *domain.TicketStatus   `json:"status"`
	AssignedTo  *string                `json:"assigned_to"`
}

// CreateCommentRequest payload for appending to a ticket thread.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

// CommentResponse describes one thread entry.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsInternal bool      `json:"is_internal"`
}

// TicketSummary is the listing shape.
type TicketSummary struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Category     domain.TicketCategory `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	UserID       string                `json:"user_id"`
	UserName     string                `json:"user_name"`
	AssignedTo   *string               `json:"assigned_to,omitempty"`
	CommentCount int                   `json:"comment_count"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetail is the full shape including the comment thread.
type TicketDetail struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	UserID      string                `json:"user_id"`
	UserName    string                `json:"user_name"`
	UserEmail   string                `json:"user_email"`
	AssignedTo  *string               `json:"assigned_to,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Comments    []CommentResponse     `json:"comments"`
}
