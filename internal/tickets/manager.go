package tickets

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/events"
	"github.com/servicedeskpro/servicedesk/internal/session"
	"github.com/servicedeskpro/servicedesk/internal/store"
)

// Manager owns one ticket Store per active session. Stores are constructed
// and loaded on first use after sign-in and torn down at sign-out; sessions
// never share a store.
type Manager struct {
	repo       store.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager builds the registry.
func NewManager(repo store.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *Manager {
	return &Manager{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		stores:     make(map[string]*Store),
	}
}

// ForSession returns the store for a session token, creating and loading it
// on first use.
func (m *Manager) ForSession(ctx context.Context, token string, user *domain.User) (*Store, error) {
	m.mu.Lock()
	if existing, ok := m.stores[token]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	created := NewStore(m.repo, m.dispatcher, m.logger, user)
	if err := created.Load(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.stores[token]; ok {
		// a concurrent request won the race; keep its store
		return existing, nil
	}
	m.stores[token] = created
	return created, nil
}

// Drop tears down the store for a session token. Safe when absent.
func (m *Manager) Drop(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, token)
}

// HandleSessionChange tears down per-session state on sign-out. Register it
// with the session provider's Observe.
func (m *Manager) HandleSessionChange(change session.Change) {
	if change.Type == session.ChangeSignedOut {
		m.Drop(change.Token)
	}
}
