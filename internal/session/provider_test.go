package session

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/servicedeskpro/servicedesk/internal/auth"
	"github.com/servicedeskpro/servicedesk/internal/config"
	"github.com/servicedeskpro/servicedesk/internal/domain"
	"github.com/servicedeskpro/servicedesk/internal/store"
)

type fakeUserRepo struct {
	users   map[string]*domain.User
	creates int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.creates++
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) UpdateSubscription(_ context.Context, userID string, sub *domain.Subscription) error {
	user, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.Subscription = sub
	return nil
}

func newTestProvider(t *testing.T, users *fakeUserRepo, adminEmails ...string) (*Provider, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	tokens := auth.NewTokenManager("test-secret", 60)
	cfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		AdminEmails:           adminEmails,
	}
	return NewProvider(users, NewSessions(client), tokens, cfg, zap.NewNop()), mock
}

func expectSessionPut(mock redismock.ClientMock) {
	mock.Regexp().ExpectSet(`session:.+`, `.+`, time.Hour).SetVal("OK")
}

func TestSignInFederatedProvisionsFirstUse(t *testing.T) {
	users := newFakeUserRepo()
	provider, mock := newTestProvider(t, users)
	expectSessionPut(mock)

	user, token, expiresAt, err := provider.SignInFederated(context.Background(), FederatedIdentity{
		ID:          "fed-1",
		Email:       "sarah@company.com",
		DisplayName: "Sarah Chen",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.Equal(t, "fed-1", user.ID)
	assert.Equal(t, "Sarah Chen", user.Name)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, 1, users.creates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignInFederatedExistingAccountNotReprovisioned(t *testing.T) {
	users := newFakeUserRepo()
	users.users["fed-1"] = &domain.User{ID: "fed-1", Email: "sarah@company.com", Name: "Sarah Chen", Role: domain.RoleUser}
	provider, mock := newTestProvider(t, users)
	expectSessionPut(mock)

	user, _, _, err := provider.SignInFederated(context.Background(), FederatedIdentity{
		ID:          "fed-1",
		Email:       "sarah@company.com",
		DisplayName: "A Different Name",
	})
	require.NoError(t, err)

	assert.Equal(t, "Sarah Chen", user.Name)
	assert.Zero(t, users.creates)
}

func TestProvisionUsesAdminAllowList(t *testing.T) {
	users := newFakeUserRepo()
	provider, mock := newTestProvider(t, users, "admin@servicedesk.com")
	expectSessionPut(mock)

	user, _, _, err := provider.SignInFederated(context.Background(), FederatedIdentity{
		ID:          "fed-admin",
		Email:       "Admin@ServiceDesk.com",
		DisplayName: "Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Sarah Chen", displayName(FederatedIdentity{Email: "sarah@company.com", DisplayName: "Sarah Chen"}))
	assert.Equal(t, "sarah", displayName(FederatedIdentity{Email: "sarah@company.com"}))
	assert.Equal(t, "User", displayName(FederatedIdentity{Email: ""}))
	assert.Equal(t, "User", displayName(FederatedIdentity{Email: "@company.com"}))
}

func TestObserveDeliversChanges(t *testing.T) {
	users := newFakeUserRepo()
	provider, mock := newTestProvider(t, users)
	expectSessionPut(mock)

	var changes []Change
	unobserve := provider.Observe(func(change Change) {
		changes = append(changes, change)
	})

	_, token, _, err := provider.SignInFederated(context.Background(), FederatedIdentity{
		ID:    "fed-1",
		Email: "sarah@company.com",
	})
	require.NoError(t, err)

	mock.ExpectDel("session:" + token).SetVal(1)
	require.NoError(t, provider.SignOut(context.Background(), token))

	require.Len(t, changes, 2)
	assert.Equal(t, ChangeSignedIn, changes[0].Type)
	assert.Equal(t, token, changes[0].Token)
	require.NotNil(t, changes[0].User)
	assert.Equal(t, ChangeSignedOut, changes[1].Type)
	assert.Equal(t, token, changes[1].Token)

	// After unsubscribing, further changes are not delivered. Calling the
	// unsubscribe function twice is safe.
	unobserve()
	unobserve()
	mock.ExpectDel("session:" + token).SetVal(0)
	require.NoError(t, provider.SignOut(context.Background(), token))
	assert.Len(t, changes, 2)
}

func TestSignOutIdempotent(t *testing.T) {
	provider, mock := newTestProvider(t, newFakeUserRepo())

	mock.ExpectDel("session:tok").SetVal(1)
	require.NoError(t, provider.SignOut(context.Background(), "tok"))

	// Second sign-out finds nothing to delete and still succeeds.
	mock.ExpectDel("session:tok").SetVal(0)
	require.NoError(t, provider.SignOut(context.Background(), "tok"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMapGatewayCode(t *testing.T) {
	assert.ErrorIs(t, MapGatewayCode("popup-closed-by-user"), ErrSignInCancelled)
	assert.ErrorIs(t, MapGatewayCode("cancelled"), ErrSignInCancelled)
	assert.ErrorIs(t, MapGatewayCode("popup-blocked"), ErrPopupBlocked)
	assert.ErrorIs(t, MapGatewayCode("unauthorized-domain"), ErrUnauthorizedDomain)
	assert.Error(t, MapGatewayCode("something-else"))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	users.users["u1"] = &domain.User{ID: "u1", Email: "taken@demo.com"}
	provider, _ := newTestProvider(t, users)

	_, _, _, err := provider.Register(context.Background(), "Someone", "taken@demo.com", "password", 4)
	require.Error(t, err)
	assert.Equal(t, 0, users.creates)
}

func TestRegisterAndSignInLocal(t *testing.T) {
	users := newFakeUserRepo()
	provider, mock := newTestProvider(t, users)
	expectSessionPut(mock)

	user, token, _, err := provider.Register(context.Background(), "Demo User", "user@demo.com", "password123", 4)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, users.users[user.ID].PasswordHash)

	expectSessionPut(mock)
	signedIn, _, _, err := provider.SignInLocal(context.Background(), "user@demo.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)

	_, _, _, err = provider.SignInLocal(context.Background(), "user@demo.com", "wrong")
	require.Error(t, err)
}
