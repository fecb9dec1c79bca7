// Package session owns the authentication state: the bearer token and the
// username it belongs to. The store persists both to durable storage and
// notifies identity listeners (the cart) whenever the identity changes.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fakeshop/storefront/internal/api"
	"github.com/fakeshop/storefront/internal/forms"
	"github.com/fakeshop/storefront/internal/storage"
)

// demoAccountID is sent with registration requests. The demo service does not
// allocate ids; it echoes back whatever the client chose.
const demoAccountID = 12

// AuthAPI is the slice of the remote API the session store needs.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (token string, err error)
	CreateUser(ctx context.Context, u api.NewUser) (int, error)
}

// Store is the process-wide session store. Authenticated state is always
// derived from token presence, never stored separately.
type Store struct {
	api     AuthAPI
	storage storage.Store
	lg      *zap.Logger

	mu         sync.Mutex
	token      string
	username   string
	registered bool
	listeners  []func(token string)
}

// NewStore creates a session store hydrated from durable storage, so a token
// from a previous run survives restart.
func NewStore(authAPI AuthAPI, st storage.Store, lg *zap.Logger) *Store {
	s := &Store{
		api:     authAPI,
		storage: st,
		lg:      lg,
	}
	if token, ok := st.Get(storage.KeyUserToken); ok {
		s.token = token
	}
	if username, ok := st.Get(storage.KeyUsername); ok {
		s.username = username
	}
	return s
}

// OnIdentityChange registers a listener invoked with the new token after
// every login and logout. Listeners are called outside the store's lock.
func (s *Store) OnIdentityChange(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Login validates the form, authenticates against the remote auth source, and
// on success stores and persists the token. On failure the session is left
// unchanged and the classified error is returned. There is no retry.
func (s *Store) Login(ctx context.Context, form forms.Login) error {
	if err := forms.Validate(form); err != nil {
		return err
	}

	token, err := s.api.Login(ctx, form.Username, form.Password)
	if err != nil {
		return err
	}

	username := form.Username
	if claim := usernameFromToken(token); claim != "" && claim != username {
		// Trust the token over the form: the demo service issues tokens for
		// the account it actually authenticated.
		username = claim
	}

	s.mu.Lock()
	s.token = token
	s.username = username
	s.mu.Unlock()

	if err := s.storage.Set(storage.KeyUserToken, token); err != nil {
		s.lg.Error("Persist token", zap.Error(err))
	}
	if err := s.storage.Set(storage.KeyUsername, username); err != nil {
		s.lg.Error("Persist username", zap.Error(err))
	}

	s.notify(token)
	return nil
}

// Register validates the form and creates the account. It does not
// authenticate: the caller reacts to Registered() flipping (redirect to
// login). Same error classification as Login.
func (s *Store) Register(ctx context.Context, form forms.Registration) error {
	if err := forms.Validate(form); err != nil {
		return err
	}

	id, err := s.api.CreateUser(ctx, api.NewUser{
		ID:       demoAccountID,
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		return err
	}
	s.lg.Info("Account created", zap.Int("id", id), zap.String("username", form.Username))

	s.mu.Lock()
	s.registered = true
	s.mu.Unlock()
	return nil
}

// Registered reports whether a registration completed during this session.
func (s *Store) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered
}

// Logout clears the in-memory and persisted token and username. It always
// succeeds; identity-scoped resources react via the identity listeners.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.username = ""
	s.mu.Unlock()

	if err := s.storage.Delete(storage.KeyUserToken); err != nil {
		s.lg.Error("Delete token", zap.Error(err))
	}
	if err := s.storage.Delete(storage.KeyUsername); err != nil {
		s.lg.Error("Delete username", zap.Error(err))
	}

	s.notify("")
}

// Token returns the current bearer token, empty when unauthenticated.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Username returns the current display name, empty when unauthenticated.
func (s *Store) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Authenticated derives the signed-in state from token presence.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

func (s *Store) notify(token string) {
	s.mu.Lock()
	listeners := make([]func(string), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(token)
	}
}
