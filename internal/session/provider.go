package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicedeskpro/servicedesk/internal/auth"
	"github.com/servicedeskpro/servicedesk/internal/config"
	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/store"
)

// Failure modes of the interactive federated sign-in flow, mapped from the
// gateway's callback codes.
var (
	ErrSignInCancelled    = errors.New("session: sign-in cancelled")
	ErrPopupBlocked       = errors.New("session: sign-in popup blocked")
	ErrUnauthorizedDomain = errors.New("session: domain not authorized for sign-in")
)

// MapGatewayCode translates a federation gateway error code into a typed error.
func MapGatewayCode(code string) error {
	switch code {
	case "popup-closed-by-user", "cancelled":
		return ErrSignInCancelled
	case "popup-blocked":
		return ErrPopupBlocked
	case "unauthorized-domain":
		return ErrUnauthorizedDomain
	default:
		return errors.New("session: sign-in failed: " + code)
	}
}

// FederatedIdentity is what the identity federation backend hands over after
// a successful interactive sign-in.
type FederatedIdentity struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   *string
}

// ChangeType enumerates session state transitions.
type ChangeType string

const (
	ChangeSignedIn  ChangeType = "signed-in"
	ChangeSignedOut ChangeType = "signed-out"
)

// Change is delivered to observers whenever the session state changes.
type Change struct {
	Type  ChangeType
	User  *domain.User
	Token string
}

// Listener receives session change notifications.
type Listener func(Change)

// Provider wraps sign-in, session observation, and first-use account
// provisioning. One Provider serves the whole process; each sign-in
// establishes an independent session identified by its token.
type Provider struct {
	users    store.UserRepository
	sessions *Sessions
	tokens   *auth.TokenManager
	authCfg  config.AuthConfig
	logger   *zap.Logger

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewProvider constructs the provider.
func NewProvider(users store.UserRepository, sessions *Sessions, tokens *auth.TokenManager, authCfg config.AuthConfig, logger *zap.Logger) *Provider {
	return &Provider{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		authCfg:   authCfg,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Observe registers a listener for session changes. The returned function
// unregisters it and must be called on teardown; calling it twice is safe.
func (p *Provider) Observe(listener Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = listener
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) notify(change Change) {
	p.mu.Lock()
	snapshot := make([]Listener, 0, len(p.listeners))
	for _, listener := range p.listeners {
		snapshot = append(snapshot, listener)
	}
	p.mu.Unlock()

	for _, listener := range snapshot {
		listener(change)
	}
}

// SignInFederated establishes a session for a federated identity, performing
// first-use provisioning when the identity has not been seen before.
func (p *Provider) SignInFederated(ctx context.Context, identity FederatedIdentity) (*domain.User, string, time.Time, error) {
	user, err := p.provision(ctx, identity)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return p.establish(ctx, user)
}

// SignInLocal authenticates against a stored password hash.
func (p *Provider) SignInLocal(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", time.Time{}, errors.New("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if user.PasswordHash == "" {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	return p.establish(ctx, user)
}

// Register creates a local-credential account and signs it in.
func (p *Provider) Register(ctx context.Context, name, email, password string, bcryptCost int) (*domain.User, string, time.Time, error) {
	if _, err := p.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, errors.New("email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         p.roleFor(email),
		PasswordHash: hash,
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}
	return p.establish(ctx, user)
}

// SignOut clears the session. Idempotent: signing out an already-cleared
// session succeeds.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if err := p.sessions.Delete(ctx, token); err != nil {
		return err
	}
	p.notify(Change{Type: ChangeSignedOut, Token: token})
	return nil
}

func (p *Provider) establish(ctx context.Context, user *domain.User) (*domain.User, string, time.Time, error) {
	token, expiresAt, err := p.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := p.sessions.Put(ctx, token, user.ID, p.tokens.TTL()); err != nil {
		return nil, "", time.Time{}, err
	}
	p.logger.Info("session established",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	p.notify(Change{Type: ChangeSignedIn, User: user, Token: token})
	return user, token, expiresAt, nil
}

// provision loads the user record for a federated identity, creating it on
// first sign-in. Display name falls back federated name, then the local part
// of the email, then "User".
func (p *Provider) provision(ctx context.Context, identity FederatedIdentity) (*domain.User, error) {
	user, err := p.users.GetByID(ctx, identity.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user = &domain.User{
		ID:        identity.ID,
		Email:     identity.Email,
		Name:      displayName(identity),
		Role:      p.roleFor(identity.Email),
		AvatarURL: identity.AvatarURL,
	}
	p.logger.Info("provisioning first-use account",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	if err := p.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return p.users.GetByID(ctx, identity.ID)
}

func (p *Provider) roleFor(email string) domain.UserRole {
	if p.authCfg.IsAdminEmail(email) {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func displayName(identity FederatedIdentity) string {
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	if at := strings.Index(identity.Email, "@"); at > 0 {
		return identity.Email[:at]
	}
	return "User"
}
