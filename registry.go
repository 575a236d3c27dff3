package accounts

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UniquenessScope selects which sets an email/username uniqueness check
// runs against. The original client only checked the active set, which
// permits two identical pending registrations racing for approval; keep
// UniquenessActiveOnly for parity or opt into UniquenessIncludePending.
type UniquenessScope int

const (
	// UniquenessActiveOnly checks the active set only
	UniquenessActiveOnly UniquenessScope = iota
	// UniquenessIncludePending checks the union of active and pending sets
	UniquenessIncludePending
)

// MemoryRegistry is the in-memory Registry implementation. Both sets keep
// insertion order. Safe for concurrent readers and writers.
type MemoryRegistry struct {
	mu      sync.RWMutex
	active  []*Account
	pending []*Account
	scope   UniquenessScope
	now     func() time.Time
	newID   func() string
}

var _ Registry = (*MemoryRegistry)(nil)

// MemoryRegistryOption customizes registry construction.
type MemoryRegistryOption func(*MemoryRegistry)

// WithUniquenessScope sets the uniqueness policy for registration checks.
func WithUniquenessScope(scope UniquenessScope) MemoryRegistryOption {
	return func(r *MemoryRegistry) {
		r.scope = scope
	}
}

// WithRegistryClock injects a custom clock (useful for tests).
func WithRegistryClock(clock func() time.Time) MemoryRegistryOption {
	return func(r *MemoryRegistry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithRegistryIDGenerator overrides how ids for new accounts are minted.
func WithRegistryIDGenerator(gen func() string) MemoryRegistryOption {
	return func(r *MemoryRegistry) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithSeedAccounts preloads accounts. Approved records land in the active
// set, the rest in the pending set, in the order given.
func WithSeedAccounts(accounts ...*Account) MemoryRegistryOption {
	return func(r *MemoryRegistry) {
		for _, account := range accounts {
			if account == nil {
				continue
			}
			record := account.Clone()
			r.prepareDefaults(record)
			if record.IsApproved {
				r.active = append(r.active, record)
			} else {
				r.pending = append(r.pending, record)
			}
		}
	}
}

// NewMemoryRegistry returns a Registry backed by in-memory slices.
func NewMemoryRegistry(opts ...MemoryRegistryOption) *MemoryRegistry {
	r := &MemoryRegistry{
		scope: UniquenessActiveOnly,
		now:   time.Now,
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *MemoryRegistry) FindActiveByEmail(_ context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.active {
		if account.Email == email {
			return account.Clone(), nil
		}
	}

	return nil, notFoundErr("email", email)
}

func (r *MemoryRegistry) FindActiveByUsername(_ context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.active {
		if account.Username == username {
			return account.Clone(), nil
		}
	}

	return nil, notFoundErr("username", username)
}

func (r *MemoryRegistry) FindPendingByEmail(_ context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.pending {
		if account.Email == email {
			return account.Clone(), nil
		}
	}

	return nil, notFoundErr("email", email)
}

func (r *MemoryRegistry) EmailInUse(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.active {
		if account.Email == email {
			return true, nil
		}
	}

	if r.scope == UniquenessIncludePending {
		for _, account := range r.pending {
			if account.Email == email {
				return true, nil
			}
		}
	}

	return false, nil
}

func (r *MemoryRegistry) UsernameInUse(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.active {
		if account.Username == username {
			return true, nil
		}
	}

	if r.scope == UniquenessIncludePending {
		for _, account := range r.pending {
			if account.Username == username {
				return true, nil
			}
		}
	}

	return false, nil
}

func (r *MemoryRegistry) AddPending(_ context.Context, account *Account) (*Account, error) {
	if account == nil {
		return nil, goerrors.New("account is nil", goerrors.CategoryBadInput)
	}

	record := account.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prepareDefaults(record)
	record.IsApproved = false

	if r.hasIDLocked(record.ID) {
		return nil, goerrors.New("account id already registered", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict).
			WithMetadata(map[string]any{"id": record.ID})
	}

	r.pending = append(r.pending, record)

	return record.Clone(), nil
}

func (r *MemoryRegistry) Approve(_ context.Context, id string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, account := range r.pending {
		if account.ID != id {
			continue
		}
		r.pending = append(r.pending[:i], r.pending[i+1:]...)
		account.IsApproved = true
		r.active = append(r.active, account)
		return account.Clone(), nil
	}

	return nil, notFoundErr("id", id)
}

func (r *MemoryRegistry) Reject(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, account := range r.pending {
		if account.ID == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return nil
		}
	}

	return nil
}

func (r *MemoryRegistry) SetRole(_ context.Context, id string, role UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.active {
		if account.ID == id {
			account.Role = role
			return nil
		}
	}

	return notFoundErr("id", id)
}

func (r *MemoryRegistry) ListActive(_ context.Context) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneAll(r.active), nil
}

func (r *MemoryRegistry) ListPending(_ context.Context) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneAll(r.pending), nil
}

func (r *MemoryRegistry) prepareDefaults(record *Account) {
	if record.ID == "" {
		record.ID = r.newID()
	}

	if record.Role == "" {
		record.Role = RoleMember
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now()
	}
}

func (r *MemoryRegistry) hasIDLocked(id string) bool {
	for _, account := range r.active {
		if account.ID == id {
			return true
		}
	}
	for _, account := range r.pending {
		if account.ID == id {
			return true
		}
	}
	return false
}

func cloneAll(accounts []*Account) []*Account {
	out := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, account.Clone())
	}
	return out
}

func notFoundErr(field, value string) error {
	return ErrAccountNotFound.WithMetadata(map[string]any{
		field: value,
	})
}
