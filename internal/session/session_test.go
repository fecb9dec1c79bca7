package session

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakeshop/storefront/internal/api"
	"github.com/fakeshop/storefront/internal/forms"
	"github.com/fakeshop/storefront/internal/storage"
)

// --- Mock implementations ---

type mockAuthAPI struct {
	token      string
	loginErr   error
	createdID  int
	createErr  error
	lastUser   api.NewUser
	loginCalls int
}

func (m *mockAuthAPI) Login(_ context.Context, _, _ string) (string, error) {
	m.loginCalls++
	if m.loginErr != nil {
		return "", m.loginErr
	}
	return m.token, nil
}

func (m *mockAuthAPI) CreateUser(_ context.Context, u api.NewUser) (int, error) {
	m.lastUser = u
	if m.createErr != nil {
		return 0, m.createErr
	}
	return m.createdID, nil
}

// --- Helpers ---

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func validLogin() forms.Login {
	return forms.Login{Username: "johnd1", Password: "m38rmF$"}
}

// --- Tests ---

func TestLogin_StoresAndPersistsToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": 1, "user": "johnd"})
	st := storage.NewMemStore()
	s := NewStore(&mockAuthAPI{token: token}, st, zap.NewNop())

	require.False(t, s.Authenticated())
	require.NoError(t, s.Login(context.Background(), validLogin()))

	assert.True(t, s.Authenticated())
	assert.Equal(t, token, s.Token())
	assert.Equal(t, "johnd", s.Username(), "username comes from the token claim")

	persisted, ok := st.Get(storage.KeyUserToken)
	require.True(t, ok)
	assert.Equal(t, token, persisted)
	name, ok := st.Get(storage.KeyUsername)
	require.True(t, ok)
	assert.Equal(t, "johnd", name)
}

func TestLogin_OpaqueTokenFallsBackToFormUsername(t *testing.T) {
	s := NewStore(&mockAuthAPI{token: "not-a-jwt"}, storage.NewMemStore(), zap.NewNop())

	require.NoError(t, s.Login(context.Background(), validLogin()))
	assert.Equal(t, "johnd1", s.Username())
}

func TestLogin_FailureLeavesSessionUnchanged(t *testing.T) {
	mock := &mockAuthAPI{loginErr: api.ErrServerUnavailable}
	st := storage.NewMemStore()
	s := NewStore(mock, st, zap.NewNop())

	err := s.Login(context.Background(), validLogin())
	require.ErrorIs(t, err, api.ErrServerUnavailable)
	assert.False(t, s.Authenticated())
	_, ok := st.Get(storage.KeyUserToken)
	assert.False(t, ok)
	assert.Equal(t, 1, mock.loginCalls, "no retry on failure")
}

func TestLogin_ValidationBlocksNetworkCall(t *testing.T) {
	mock := &mockAuthAPI{token: "tok"}
	s := NewStore(mock, storage.NewMemStore(), zap.NewNop())

	err := s.Login(context.Background(), forms.Login{Username: "x", Password: "y"})

	var verr *forms.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, mock.loginCalls, "invalid forms must never reach the network")
}

func TestRegister_DoesNotAuthenticate(t *testing.T) {
	mock := &mockAuthAPI{createdID: 12}
	s := NewStore(mock, storage.NewMemStore(), zap.NewNop())

	require.False(t, s.Registered())
	err := s.Register(context.Background(), forms.Registration{
		Username: "newuser1",
		Email:    "new@example.com",
		Password: "secret12",
		Confirm:  "secret12",
	})
	require.NoError(t, err)

	assert.True(t, s.Registered())
	assert.False(t, s.Authenticated(), "registration must not log the user in")
	assert.Equal(t, "newuser1", mock.lastUser.Username)
}

func TestRegister_Error(t *testing.T) {
	mock := &mockAuthAPI{createErr: errors.New("boom")}
	s := NewStore(mock, storage.NewMemStore(), zap.NewNop())

	err := s.Register(context.Background(), forms.Registration{
		Username: "newuser1",
		Email:    "new@example.com",
		Password: "secret12",
		Confirm:  "secret12",
	})
	require.Error(t, err)
	assert.False(t, s.Registered())
}

func TestLogout_ClearsEverything(t *testing.T) {
	st := storage.NewMemStore()
	s := NewStore(&mockAuthAPI{token: "tok"}, st, zap.NewNop())
	require.NoError(t, s.Login(context.Background(), validLogin()))

	s.Logout()

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Username())
	_, ok := st.Get(storage.KeyUserToken)
	assert.False(t, ok)
	_, ok = st.Get(storage.KeyUsername)
	assert.False(t, ok)
}

func TestHydration_TokenSurvivesRestart(t *testing.T) {
	st := storage.NewMemStore()
	s := NewStore(&mockAuthAPI{token: "tok"}, st, zap.NewNop())
	require.NoError(t, s.Login(context.Background(), validLogin()))

	s2 := NewStore(&mockAuthAPI{}, st, zap.NewNop())
	assert.True(t, s2.Authenticated())
	assert.Equal(t, "tok", s2.Token())
}

func TestIdentityListeners_FireOnLoginAndLogout(t *testing.T) {
	s := NewStore(&mockAuthAPI{token: "tok"}, storage.NewMemStore(), zap.NewNop())

	var seen []string
	s.OnIdentityChange(func(token string) { seen = append(seen, token) })

	require.NoError(t, s.Login(context.Background(), validLogin()))
	s.Logout()

	assert.Equal(t, []string{"tok", ""}, seen)
}

func TestGuard(t *testing.T) {
	// Authenticated sessions are sent away from the auth routes.
	redirect, allowed := Guard(RouteLogin, true)
	assert.False(t, allowed)
	assert.Equal(t, RouteHome, redirect)

	redirect, allowed = Guard(RouteRegister, true)
	assert.False(t, allowed)
	assert.Equal(t, RouteHome, redirect)

	// Unauthenticated sessions may visit the auth routes.
	_, allowed = Guard(RouteLogin, false)
	assert.True(t, allowed)

	// Unauthenticated sessions are sent from guarded paths to login.
	redirect, allowed = Guard("/orders", false)
	assert.False(t, allowed)
	assert.Equal(t, RouteLogin, redirect)

	// Authenticated sessions pass guarded paths.
	_, allowed = Guard("/orders", true)
	assert.True(t, allowed)
}

func TestUsernameFromToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"user": "johnd"})
	assert.Equal(t, "johnd", usernameFromToken(token))
	assert.Empty(t, usernameFromToken("garbage"))
	assert.Empty(t, usernameFromToken(signedToken(t, jwt.MapClaims{"sub": 1})))
}
