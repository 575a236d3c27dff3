package accounts

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Registry holds the set of active accounts and the set of pending
// registration requests. An account id lives in at most one of the two
// sets at any time; the registry owns every record it holds and only
// hands out copies.
type Registry interface {
	// FindActiveByEmail matches the email exactly (case-sensitive)
	FindActiveByEmail(ctx context.Context, email string) (*Account, error)

	// FindActiveByUsername matches the username exactly (case-sensitive)
	FindActiveByUsername(ctx context.Context, username string) (*Account, error)

	// FindPendingByEmail matches a pending registration by email
	FindPendingByEmail(ctx context.Context, email string) (*Account, error)

	// EmailInUse reports whether the email is taken under the configured
	// uniqueness scope
	EmailInUse(ctx context.Context, email string) (bool, error)

	// UsernameInUse reports whether the username is taken under the
	// configured uniqueness scope
	UsernameInUse(ctx context.Context, username string) (bool, error)

	// AddPending appends a new registration to the pending set. Defaults
	// are filled in and the approval flag is forced to false.
	AddPending(ctx context.Context, account *Account) (*Account, error)

	// Approve moves a pending account into the active set and marks it
	// approved. Returns ErrAccountNotFound if the id is not pending.
	Approve(ctx context.Context, id string) (*Account, error)

	// Reject removes a pending account. Removing an absent id is not an
	// error; reject is idempotent.
	Reject(ctx context.Context, id string) error

	// SetRole mutates the role of an active account. Returns
	// ErrAccountNotFound if the id is not in the active set.
	SetRole(ctx context.Context, id string, role UserRole) error

	// ListActive returns the active set as a snapshot in insertion order
	ListActive(ctx context.Context) ([]*Account, error)

	// ListPending returns the pending set as a snapshot in insertion order
	ListPending(ctx context.Context) ([]*Account, error)
}

// SessionStore mirrors the current session to device-local storage so a
// restarted client can resume without a login round trip. Implementations
// must round-trip every Account field exactly.
type SessionStore interface {
	Save(ctx context.Context, account *Account) error
	// Load returns the cached account, or nil when no session is stored
	Load(ctx context.Context) (*Account, error)
	Clear(ctx context.Context) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
