package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Transitions are
// unconstrained: any status may follow any other.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketCategory classifies the request.
type TicketCategory string

const (
	CategoryTechnical      TicketCategory = "technical"
	CategoryBilling        TicketCategory = "billing"
	CategoryGeneral        TicketCategory = "general"
	CategoryFeatureRequest TicketCategory = "feature-request"
)

// Ticket is the aggregate for support requests. Comments are embedded in
// insertion order and append-only.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Status      TicketStatus
	UserID      string
	UserName    string
	UserEmail   string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Comments    []Comment
}

// Comment is a single entry in a ticket thread. IsInternal marks staff-only
// notes; only administrators may author them.
type Comment struct {
	ID         string
	TicketID   string
	UserID     string
	UserName   string
	Content    string
	CreatedAt  time.Time
	IsInternal bool
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c TicketCategory) bool {
	switch c {
	case CategoryTechnical, CategoryBilling, CategoryGeneral, CategoryFeatureRequest:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}
