package accounts

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the account's privilege tier
type UserRole string

const (
	// RoleMember is a regular member (i.e. view, edit own work)
	RoleMember UserRole = "member"
	// RoleManager is a manager (i.e. member capabilities plus team oversight)
	RoleManager UserRole = "manager"
	// RoleAdmin is an admin role (i.e. manager capabilities plus moderation)
	RoleAdmin UserRole = "admin"
)

// AccountStatus describes which lifecycle set an account belongs to.
type AccountStatus = string

const (
	// StatusPending is a submitted registration awaiting admin approval
	StatusPending AccountStatus = "pending"
	// StatusActive is an approved, authenticatable account
	StatusActive AccountStatus = "active"
)

// Account is the account model
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            string    `bun:"id,pk" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Username      string    `bun:"username,notnull,unique" json:"username,omitempty"`
	FullName      string    `bun:"full_name,notnull" json:"full_name,omitempty"`
	Avatar        string    `bun:"avatar" json:"avatar,omitempty"`
	Role          UserRole  `bun:"user_role,notnull" json:"user_role,omitempty"`
	IsApproved    bool      `bun:"is_approved" json:"is_approved"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Status derives the lifecycle set from the approval flag.
func (a *Account) Status() AccountStatus {
	if a != nil && a.IsApproved {
		return StatusActive
	}
	return StatusPending
}

// Clone returns a copy of the account that callers may mutate freely.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
