package accounts

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// MemorySessionStore keeps the cached session in process memory. Meant for
// tests and ephemeral clients.
type MemorySessionStore struct {
	mu      sync.Mutex
	account *Account
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Save(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account.Clone()
	return nil
}

func (s *MemorySessionStore) Load(_ context.Context) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account.Clone(), nil
}

func (s *MemorySessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = nil
	return nil
}

// FileSessionStore mirrors the session to a JSON file, the same way the
// mobile client mirrors it to device-local key-value storage. CreatedAt
// round-trips at nanosecond precision through RFC 3339 encoding.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

var _ SessionStore = (*FileSessionStore)(nil)

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Save(_ context.Context, account *Account) error {
	if account == nil {
		return goerrors.New("cannot cache a nil account", goerrors.CategoryBadInput)
	}

	data, err := json.Marshal(account)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not encode session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not write session file")
	}

	return nil
}

func (s *FileSessionStore) Load(_ context.Context) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not read session file")
	}

	account := &Account{}
	if err := json.Unmarshal(data, account); err != nil {
		// a corrupt cache behaves like no cache at all
		return nil, nil
	}

	return account, nil
}

func (s *FileSessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not remove session file")
	}

	return nil
}
