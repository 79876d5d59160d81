package tickets

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/events"
	"github.com/servicedeskpro/servicedesk/internal/store"
	apperrors "github.com/servicedeskpro/servicedesk/pkg/util/errorutil"
)

// Draft carries the caller-supplied fields of a new ticket. Identifier,
// status, timestamps, and comments are assigned here, never by the caller.
type Draft struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// CommentDraft carries the caller-supplied fields of a new comment.
type CommentDraft struct {
	UserID     string
	UserName   string
	Content    string
	IsInternal bool
}

// Store maintains the authoritative in-session view of tickets for one
// identity and mediates every mutation. The cache is rebuilt wholesale by
// Load and owned exclusively by this store; the backend remains the source
// of consistency between sessions.
type Store struct {
	repo       store.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	user       *domain.User

	mu     sync.RWMutex
	cached []domain.Ticket
}

// NewStore builds a ticket store scoped to the given identity. Call Load
// before reading.
func NewStore(repo store.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger, user *domain.User) *Store {
	return &Store{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		user:       user,
	}
}

// User returns the identity this store is scoped to.
func (s *Store) User() *domain.User {
	return s.user
}

// Load rebuilds the cache from the backend: the whole collection for an
// administrator, the identity's own tickets otherwise, both newest first.
// When the per-user ordered query reports a missing index, the unordered
// owner query is used instead and the result sorted client-side; the admin
// query has no fallback and the condition is surfaced as-is.
func (s *Store) Load(ctx context.Context) error {
	var (
		tickets []domain.Ticket
		err     error
	)

	if s.user.IsAdmin() {
		tickets, err = s.repo.ListAll(ctx)
		if err != nil {
			return s.fail("load all tickets", err)
		}
	} else {
		tickets, err = s.repo.ListByOwnerOrdered(ctx, s.user.ID)
		if errors.Is(err, store.ErrIndexRequired) {
			s.logger.Warn("ordered owner query needs an index; falling back to client-side sort",
				zap.String("user_id", s.user.ID))
			tickets, err = s.repo.ListByOwner(ctx, s.user.ID)
			if err == nil {
				sortByCreatedDesc(tickets)
			}
		}
		if err != nil {
			return s.fail("load user tickets", err)
		}
	}

	s.mu.Lock()
	s.cached = tickets
	s.mu.Unlock()
	return nil
}

// Create persists a new ticket with status open, empty comments, and equal
// creation/update timestamps, then reloads the full set for this identity.
func (s *Store) Create(ctx context.Context, draft Draft) (*domain.Ticket, error) {
	if strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if !domain.ValidCategory(draft.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": draft.Category})
	}
	if draft.Priority == "" {
		draft.Priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(draft.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": draft.Priority})
	}

	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Category:    draft.Category,
		Priority:    draft.Priority,
		Status:      domain.TicketStatusOpen,
		UserID:      s.user.ID,
		UserName:    s.user.Name,
		UserEmail:   s.user.Email,
		Comments:    []domain.Comment{},
	}

	if err := s.repo.Insert(ctx, ticket); err != nil {
		return nil, s.fail("create ticket", err)
	}

	if err := s.Load(ctx); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		UserID:   s.user.ID,
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			Category:   ticket.Category,
			Priority:   ticket.Priority,
			OwnerEmail: ticket.UserEmail,
		},
	})
	return ticket, nil
}

// Update persists the patched fields and bumps the update timestamp. The
// patch is applied to the cache entry before the backend round trip so reads
// reflect it immediately; if the backend rejects the write the entry is
// restored to its previous value.
func (s *Store) Update(ctx context.Context, id string, patch store.TicketPatch) (*domain.Ticket, error) {
	if patch.Status != nil && !domain.ValidStatus(*patch.Status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *patch.Status})
	}
	if patch.Priority != nil && !domain.ValidPriority(*patch.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *patch.Priority})
	}
	if patch.Category != nil && !domain.ValidCategory(*patch.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": *patch.Category})
	}

	original, hadEntry := s.applyOptimistic(id, patch)

	if err := s.repo.UpdateFields(ctx, id, patch); err != nil {
		if hadEntry {
			s.restore(id, original)
		}
		return nil, s.fail("update ticket", err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: id,
		UserID:   s.user.ID,
		Payload: events.TicketUpdatedPayload{
			Status:   patch.Status,
			Priority: patch.Priority,
			Assignee: patch.AssignedTo,
		},
	})

	s.mu.RLock()
	for i := range s.cached {
		if s.cached[i].ID == id {
			copied := s.cached[i]
			s.mu.RUnlock()
			return &copied, nil
		}
	}
	s.mu.RUnlock()
	return s.GetByID(ctx, id)
}

// AddComment appends a comment with a fresh identifier and timestamp at the
// backend, then refetches that single ticket so the cache entry reflects
// backend ordering and identifiers rather than the local guess.
func (s *Store) AddComment(ctx context.Context, ticketID string, draft CommentDraft) (*domain.Comment, error) {
	if strings.TrimSpace(draft.Content) == "" {
		return nil, apperrors.NewValidationError("comment content required", nil)
	}

	comment := domain.Comment{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		UserID:     draft.UserID,
		UserName:   draft.UserName,
		Content:    strings.TrimSpace(draft.Content),
		CreatedAt:  time.Now(),
		IsInternal: draft.IsInternal,
	}

	if err := s.repo.AppendComment(ctx, ticketID, comment); err != nil {
		return nil, s.fail("add comment", err)
	}

	refreshed, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.fail("refresh ticket after comment", err)
	}

	s.mu.Lock()
	for i := range s.cached {
		if s.cached[i].ID == ticketID {
			s.cached[i] = *refreshed
			break
		}
	}
	s.mu.Unlock()

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticketID,
		UserID:   draft.UserID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorName:  comment.UserName,
			BodyPreview: preview(comment.Content, 120),
		},
	})

	for i := range refreshed.Comments {
		if refreshed.Comments[i].ID == comment.ID {
			return &refreshed.Comments[i], nil
		}
	}
	return &comment, nil
}

// GetByID fetches a single ticket directly from the backend, bypassing the
// cache. Detail views use it when they need guaranteed freshness.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, s.fail("get ticket", err)
	}
	return ticket, nil
}

// GetForUser filters the cache by owner without touching the backend. It
// returns whatever Load has already brought in, in cache order.
func (s *Store) GetForUser(userID string) []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ticket, 0)
	for _, ticket := range s.cached {
		if ticket.UserID == userID {
			out = append(out, ticket)
		}
	}
	return out
}

// All returns a snapshot of the cache in its current order.
func (s *Store) All() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ticket, len(s.cached))
	copy(out, s.cached)
	return out
}

// CountsByStatus tallies the cached tickets per status.
func (s *Store) CountsByStatus() map[domain.TicketStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.TicketStatus]int, 4)
	for _, ticket := range s.cached {
		counts[ticket.Status]++
	}
	return counts
}

func (s *Store) applyOptimistic(id string, patch store.TicketPatch) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cached {
		if s.cached[i].ID == id {
			original := s.cached[i]
			patch.Apply(&s.cached[i])
			s.cached[i].UpdatedAt = time.Now()
			return original, true
		}
	}
	return domain.Ticket{}, false
}

func (s *Store) restore(id string, original domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cached {
		if s.cached[i].ID == id {
			s.cached[i] = original
			return
		}
	}
}

// fail logs the failure and converts it to the user-facing taxonomy. Nothing
// escapes a store method as a raw backend error.
func (s *Store) fail(op string, err error) error {
	s.logger.Error(op, zap.Error(err), zap.String("user_id", s.user.ID))
	switch {
	case errors.Is(err, store.ErrPermissionDenied):
		return apperrors.NewPermissionDenied(err)
	case errors.Is(err, store.ErrIndexRequired):
		return apperrors.NewIndexRequired(err)
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewNotFound("ticket", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
