package auth

import (
	"context"
	"sync"
)

// MemoryStore is the default in-process TokenStore. Credentials are
// replaced atomically under the lock; readers never observe a half-written
// entry.
type MemoryStore struct {
	creds map[string]Credential
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		creds: make(map[string]Credential),
	}
}

// Get returns the stored credential for a provider, if any.
func (s *MemoryStore) Get(ctx context.Context, provider string) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[provider]
	return cred, ok, nil
}

// Put stores a credential, replacing any existing entry.
func (s *MemoryStore) Put(ctx context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.Provider] = cred
	return nil
}

// Delete removes the credential for a provider.
func (s *MemoryStore) Delete(ctx context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, provider)
	return nil
}

var _ TokenStore = (*MemoryStore)(nil)
