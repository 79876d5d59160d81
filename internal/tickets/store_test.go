package tickets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/events"
	"github.com/servicedeskpro/servicedesk/internal/store"
	apperrors "github.com/servicedeskpro/servicedesk/pkg/util/errorutil"
)

// fakeTicketRepo is an in-memory TicketRepository. Tickets are held in a map;
// the list methods replay the backend's ordering contract.
type fakeTicketRepo struct {
	tickets map[string]domain.Ticket

	orderedErr error
	updateErr  error
	listCalls  []string
}

func newFakeTicketRepo(seed ...domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
	for _, t := range seed {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) Insert(_ context.Context, ticket *domain.Ticket) error {
	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := ticket
	return &copied, nil
}

func (r *fakeTicketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	r.listCalls = append(r.listCalls, "all")
	out := r.collect(func(domain.Ticket) bool { return true })
	sortByCreatedDesc(out)
	return out, nil
}

func (r *fakeTicketRepo) ListByOwnerOrdered(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	r.listCalls = append(r.listCalls, "ordered")
	if r.orderedErr != nil {
		return nil, r.orderedErr
	}
	out := r.collect(func(t domain.Ticket) bool { return t.UserID == ownerID })
	sortByCreatedDesc(out)
	return out, nil
}

func (r *fakeTicketRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	r.listCalls = append(r.listCalls, "unordered")
	// Deliberately unsorted: map iteration order stands in for an unordered
	// backend scan.
	return r.collect(func(t domain.Ticket) bool { return t.UserID == ownerID }), nil
}

func (r *fakeTicketRepo) UpdateFields(_ context.Context, id string, patch store.TicketPatch) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	ticket, ok := r.tickets[id]
	if !ok {
		return store.ErrNotFound
	}
	patch.Apply(&ticket)
	ticket.UpdatedAt = time.Now()
	r.tickets[id] = ticket
	return nil
}

func (r *fakeTicketRepo) AppendComment(_ context.Context, ticketID string, comment domain.Comment) error {
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return store.ErrNotFound
	}
	ticket.Comments = append(ticket.Comments, comment)
	ticket.UpdatedAt = time.Now()
	r.tickets[ticketID] = ticket
	return nil
}

func (r *fakeTicketRepo) collect(keep func(domain.Ticket) bool) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func seedTicket(id, ownerID string, createdAt time.Time) domain.Ticket {
	return domain.Ticket{
		ID:          id,
		Title:       "ticket " + id,
		Description: "description " + id,
		Category:    domain.CategoryGeneral,
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusOpen,
		UserID:      ownerID,
		Comments:    []domain.Comment{},
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func regularUser() *domain.User {
	return &domain.User{ID: "u1", Email: "user@demo.com", Name: "Demo User", Role: domain.RoleUser}
}

func adminUser() *domain.User {
	return &domain.User{ID: "a1", Email: "admin@servicedesk.com", Name: "Admin", Role: domain.RoleAdmin}
}

func TestLoadAdminSeesAllTickets(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(
		seedTicket("t1", "u1", base),
		seedTicket("t2", "u2", base.Add(time.Hour)),
		seedTicket("t3", "u1", base.Add(2*time.Hour)),
	)
	s := NewStore(repo, nil, zap.NewNop(), adminUser())

	require.NoError(t, s.Load(context.Background()))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "t3", all[0].ID)
	assert.Equal(t, "t2", all[1].ID)
	assert.Equal(t, "t1", all[2].ID)
	assert.Equal(t, []string{"all"}, repo.listCalls)
}

func TestLoadUserSeesOwnTicketsNewestFirst(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(
		seedTicket("t1", "u1", base),
		seedTicket("t2", "u2", base.Add(time.Hour)),
		seedTicket("t3", "u1", base.Add(2*time.Hour)),
	)
	s := NewStore(repo, nil, zap.NewNop(), regularUser())

	require.NoError(t, s.Load(context.Background()))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "t3", all[0].ID)
	assert.Equal(t, "t1", all[1].ID)
}

func TestLoadFallsBackWhenIndexMissing(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(
		seedTicket("t1", "u1", base),
		seedTicket("t2", "u1", base.Add(time.Hour)),
		seedTicket("t3", "u1", base.Add(2*time.Hour)),
	)
	repo.orderedErr = store.ErrIndexRequired
	s := NewStore(repo, nil, zap.NewNop(), regularUser())

	require.NoError(t, s.Load(context.Background()))

	// The fallback result is the same set, sorted client-side newest first.
	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "t3", all[0].ID)
	assert.Equal(t, "t2", all[1].ID)
	assert.Equal(t, "t1", all[2].ID)
	assert.Equal(t, []string{"ordered", "unordered"}, repo.listCalls)
}

func TestLoadUserSurfacesOtherErrors(t *testing.T) {
	repo := newFakeTicketRepo()
	repo.orderedErr = errors.New("backend down")
	s := NewStore(repo, nil, zap.NewNop(), regularUser())

	err := s.Load(context.Background())
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	// No silent fallback for generic failures.
	assert.Equal(t, []string{"ordered"}, repo.listCalls)
}

func TestCreateAssignsServerSideFields(t *testing.T) {
	repo := newFakeTicketRepo()
	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})
	s := NewStore(repo, dispatcher, zap.NewNop(), regularUser())
	require.NoError(t, s.Load(context.Background()))

	ticket, err := s.Create(context.Background(), Draft{
		Title:       "  Cannot log in  ",
		Description: "Login fails with a 500",
		Category:    domain.CategoryTechnical,
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, "Cannot log in", ticket.Title)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Empty(t, ticket.Comments)
	assert.True(t, ticket.CreatedAt.Equal(ticket.UpdatedAt))
	assert.Equal(t, "u1", ticket.UserID)

	// The cache was reloaded and now contains the new ticket.
	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, ticket.ID, all[0].ID)

	require.Len(t, published, 1)
	assert.Equal(t, ticket.ID, published[0].TicketID)
}

func TestCreateValidation(t *testing.T) {
	s := NewStore(newFakeTicketRepo(), nil, zap.NewNop(), regularUser())

	_, err := s.Create(context.Background(), Draft{Title: " ", Description: "x", Category: domain.CategoryGeneral})
	require.Error(t, err)

	_, err = s.Create(context.Background(), Draft{Title: "x", Description: "y", Category: "bogus"})
	require.Error(t, err)

	_, err = s.Create(context.Background(), Draft{Title: "x", Description: "y", Category: domain.CategoryGeneral, Priority: "extreme"})
	require.Error(t, err)
}

func TestCreateDefaultsPriorityToMedium(t *testing.T) {
	s := NewStore(newFakeTicketRepo(), nil, zap.NewNop(), regularUser())
	require.NoError(t, s.Load(context.Background()))

	ticket, err := s.Create(context.Background(), Draft{
		Title:       "Question about invoices",
		Description: "Where can I download past invoices?",
		Category:    domain.CategoryBilling,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
}

func TestUpdateAppliesOptimistically(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(seedTicket("t1", "u1", base))
	s := NewStore(repo, nil, zap.NewNop(), regularUser())
	require.NoError(t, s.Load(context.Background()))

	status := domain.TicketStatusResolved
	updated, err := s.Update(context.Background(), "t1", store.TicketPatch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	assert.True(t, updated.UpdatedAt.After(base))

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, domain.TicketStatusResolved, all[0].Status)

	persisted, err := repo.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, persisted.Status)
}

func TestUpdateRollsBackOnBackendFailure(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(seedTicket("t1", "u1", base))
	repo.updateErr = store.ErrPermissionDenied
	s := NewStore(repo, nil, zap.NewNop(), regularUser())
	require.NoError(t, s.Load(context.Background()))

	status := domain.TicketStatusClosed
	_, err := s.Update(context.Background(), "t1", store.TicketPatch{Status: &status})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PERMISSION_DENIED", domainErr.Code)

	// The optimistic change was rolled back.
	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, domain.TicketStatusOpen, all[0].Status)
	assert.True(t, all[0].UpdatedAt.Equal(base))
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	repo := newFakeTicketRepo(seedTicket("t1", "u1", time.Now()))
	s := NewStore(repo, nil, zap.NewNop(), regularUser())
	require.NoError(t, s.Load(context.Background()))

	bad := domain.TicketStatus("reopened")
	_, err := s.Update(context.Background(), "t1", store.TicketPatch{Status: &bad})
	require.Error(t, err)

	persisted, err := repo.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, persisted.Status)
}

func TestAddCommentUsesBackendTruth(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(seedTicket("t1", "u1", base))
	s := NewStore(repo, nil, zap.NewNop(), regularUser())
	require.NoError(t, s.Load(context.Background()))

	comment, err := s.AddComment(context.Background(), "t1", CommentDraft{
		UserID:   "u1",
		UserName: "Demo User",
		Content:  "  any update?  ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, "any update?", comment.Content)

	// The cache entry was replaced with the refetched ticket: exactly one
	// comment, matching what the backend persisted.
	all := s.All()
	require.Len(t, all, 1)
	require.Len(t, all[0].Comments, 1)
	assert.Equal(t, comment.ID, all[0].Comments[0].ID)
}

func TestAddCommentMissingTicket(t *testing.T) {
	s := NewStore(newFakeTicketRepo(), nil, zap.NewNop(), regularUser())
	require.NoError(t, s.Load(context.Background()))

	_, err := s.AddComment(context.Background(), "nope", CommentDraft{UserID: "u1", Content: "hello"})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestGetByIDBypassesCache(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(seedTicket("t1", "u1", base))
	s := NewStore(repo, nil, zap.NewNop(), regularUser())
	require.NoError(t, s.Load(context.Background()))

	// Mutate the backend behind the cache's back.
	status := domain.TicketStatusInProgress
	require.NoError(t, repo.UpdateFields(context.Background(), "t1", store.TicketPatch{Status: &status}))

	fresh, err := s.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, fresh.Status)

	// The cache still holds the stale entry until the next Load.
	assert.Equal(t, domain.TicketStatusOpen, s.All()[0].Status)
}

func TestGetForUserFiltersCacheOnly(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(
		seedTicket("t1", "u1", base),
		seedTicket("t2", "u2", base.Add(time.Hour)),
		seedTicket("t3", "u1", base.Add(2*time.Hour)),
	)
	s := NewStore(repo, nil, zap.NewNop(), adminUser())
	require.NoError(t, s.Load(context.Background()))
	callsAfterLoad := len(repo.listCalls)

	mine := s.GetForUser("u1")
	require.Len(t, mine, 2)
	for _, ticket := range mine {
		assert.Equal(t, "u1", ticket.UserID)
	}
	assert.Len(t, repo.listCalls, callsAfterLoad)

	assert.Empty(t, s.GetForUser("nobody"))
}

func TestCountsByStatus(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	t1 := seedTicket("t1", "u1", base)
	t2 := seedTicket("t2", "u1", base.Add(time.Hour))
	t2.Status = domain.TicketStatusResolved
	t3 := seedTicket("t3", "u2", base.Add(2*time.Hour))

	s := NewStore(newFakeTicketRepo(t1, t2, t3), nil, zap.NewNop(), adminUser())
	require.NoError(t, s.Load(context.Background()))

	counts := s.CountsByStatus()
	assert.Equal(t, 2, counts[domain.TicketStatusOpen])
	assert.Equal(t, 1, counts[domain.TicketStatusResolved])
}
