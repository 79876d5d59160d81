package tickets

import (
	"sort"
	"strings"

	"github.com/servicedeskpro/servicedesk/internal/domain"
)

// ListFilter narrows a ticket listing. Zero values match everything. Search
// matches title and description case-insensitively.
type ListFilter struct {
	Status   domain.TicketStatus
	Category domain.TicketCategory
	Priority domain.TicketPriority
	Search   string
}

// SortKey selects a listing order. All orders are newest/highest first.
type SortKey string

const (
	SortByCreated  SortKey = "created"
	SortByUpdated  SortKey = "updated"
	SortByPriority SortKey = "priority"
)

// ApplyFilter returns the tickets matching the filter, preserving order.
func ApplyFilter(ticketList []domain.Ticket, filter ListFilter) []domain.Ticket {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.Ticket, 0, len(ticketList))
	for _, ticket := range ticketList {
		if filter.Status != "" && ticket.Status != filter.Status {
			continue
		}
		if filter.Category != "" && ticket.Category != filter.Category {
			continue
		}
		if filter.Priority != "" && ticket.Priority != filter.Priority {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(ticket.Title), search) &&
			!strings.Contains(strings.ToLower(ticket.Description), search) {
			continue
		}
		out = append(out, ticket)
	}
	return out
}

// SortTickets orders the slice in place by the given key.
func SortTickets(ticketList []domain.Ticket, key SortKey) {
	switch key {
	case SortByUpdated:
		sort.SliceStable(ticketList, func(i, j int) bool {
			return ticketList[i].UpdatedAt.After(ticketList[j].UpdatedAt)
		})
	case SortByPriority:
		sort.SliceStable(ticketList, func(i, j int) bool {
			return priorityRank(ticketList[i].Priority) > priorityRank(ticketList[j].Priority)
		})
	default:
		sortByCreatedDesc(ticketList)
	}
}

func sortByCreatedDesc(ticketList []domain.Ticket) {
	sort.SliceStable(ticketList, func(i, j int) bool {
		return ticketList[i].CreatedAt.After(ticketList[j].CreatedAt)
	})
}

func priorityRank(p domain.TicketPriority) int {
	switch p {
	case domain.TicketPriorityUrgent:
		return 3
	case domain.TicketPriorityHigh:
		return 2
	case domain.TicketPriorityMedium:
		return 1
	default:
		return 0
	}
}
