package client

import (
	"fmt"
	"sync"
)

// Session is the client's authentication state. It is initialised from the
// persisted credential and changes only through Login and Logout.
//
// Authenticated reflects whether a token is held, not whether the server
// still accepts it; a 401 from the API ends the session.
type Session struct {
	mu    sync.RWMutex
	store CredentialStore
	token string
}

// NewSession loads any previously persisted token from store.
func NewSession(store CredentialStore) (*Session, error) {
	token, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Session{store: store, token: token}, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Login records a freshly issued token.
func (s *Session) Login(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(token); err != nil {
		return err
	}
	s.token = token
	return nil
}

// Logout forgets the token locally. The in-memory state is cleared even if
// the store fails.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return s.store.Clear()
}
