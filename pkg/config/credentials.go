package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Credential is one entry of the static credential table.
type Credential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// CredentialStore holds the credential table loaded from disk. The table is
// injected into the auth service at startup; Reload re-reads the backing file
// so operators can rotate credentials without a restart.
type CredentialStore struct {
	mu    sync.RWMutex
	path  string
	table map[string]Credential
}

// NewCredentialStore loads the credential file at path.
func NewCredentialStore(path string) (*CredentialStore, error) {
	store := &CredentialStore{path: path, table: map[string]Credential{}}
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Reload replaces the in-memory table with the current file contents.
// On read or decode failure the previous table stays in effect.
func (s *CredentialStore) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}
	var entries []Credential
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("decode credentials file: %w", err)
	}
	table := make(map[string]Credential, len(entries))
	for _, entry := range entries {
		if entry.Username == "" {
			continue
		}
		table[entry.Username] = entry
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
	return nil
}

// Lookup returns the credential for a username.
func (s *CredentialStore) Lookup(username string) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.table[username]
	return cred, ok
}

// Len reports the number of loaded credentials.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}
