package tickets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicedeskpro/servicedesk/internal/domain"
)

func sampleTickets() []domain.Ticket {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Ticket{
		{
			ID: "t1", Title: "Cannot log in", Description: "500 on login",
			Category: domain.CategoryTechnical, Priority: domain.TicketPriorityUrgent,
			Status: domain.TicketStatusOpen, CreatedAt: base.Add(3 * time.Hour), UpdatedAt: base.Add(3 * time.Hour),
		},
		{
			ID: "t2", Title: "Invoice missing", Description: "no invoice for May",
			Category: domain.CategoryBilling, Priority: domain.TicketPriorityLow,
			Status: domain.TicketStatusResolved, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(5 * time.Hour),
		},
		{
			ID: "t3", Title: "Dark mode", Description: "please add dark mode",
			Category: domain.CategoryFeatureRequest, Priority: domain.TicketPriorityMedium,
			Status: domain.TicketStatusOpen, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(4 * time.Hour),
		},
	}
}

func TestApplyFilter(t *testing.T) {
	all := sampleTickets()

	assert.Len(t, ApplyFilter(all, ListFilter{}), 3)

	open := ApplyFilter(all, ListFilter{Status: domain.TicketStatusOpen})
	require.Len(t, open, 2)
	assert.Equal(t, "t1", open[0].ID)
	assert.Equal(t, "t3", open[1].ID)

	billing := ApplyFilter(all, ListFilter{Category: domain.CategoryBilling})
	require.Len(t, billing, 1)
	assert.Equal(t, "t2", billing[0].ID)

	urgent := ApplyFilter(all, ListFilter{Priority: domain.TicketPriorityUrgent})
	require.Len(t, urgent, 1)
	assert.Equal(t, "t1", urgent[0].ID)
}

func TestApplyFilterSearch(t *testing.T) {
	all := sampleTickets()

	byTitle := ApplyFilter(all, ListFilter{Search: "LOG IN"})
	require.Len(t, byTitle, 1)
	assert.Equal(t, "t1", byTitle[0].ID)

	byDescription := ApplyFilter(all, ListFilter{Search: "invoice for"})
	require.Len(t, byDescription, 1)
	assert.Equal(t, "t2", byDescription[0].ID)

	assert.Empty(t, ApplyFilter(all, ListFilter{Search: "nothing matches this"}))
}

func TestSortTickets(t *testing.T) {
	byCreated := sampleTickets()
	SortTickets(byCreated, SortByCreated)
	assert.Equal(t, "t1", byCreated[0].ID)
	assert.Equal(t, "t3", byCreated[2].ID)

	byUpdated := sampleTickets()
	SortTickets(byUpdated, SortByUpdated)
	assert.Equal(t, "t2", byUpdated[0].ID)
	assert.Equal(t, "t1", byUpdated[2].ID)

	byPriority := sampleTickets()
	SortTickets(byPriority, SortByPriority)
	assert.Equal(t, "t1", byPriority[0].ID)
	assert.Equal(t, "t3", byPriority[1].ID)
	assert.Equal(t, "t2", byPriority[2].ID)
}
