package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/benjiyou/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAdmin() *accounts.Account {
	return &accounts.Account{
		ID:         "admin1",
		Email:      "admin@benjiyou.com",
		Username:   "admin",
		FullName:   "Principal Administrator",
		Avatar:     "crown",
		Role:       accounts.RoleAdmin,
		IsApproved: true,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func seedMember() *accounts.Account {
	return &accounts.Account{
		ID:         "user1",
		Email:      "user@benjiyou.com",
		Username:   "user",
		FullName:   "Test User",
		Role:       accounts.RoleMember,
		IsApproved: true,
		CreatedAt:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemoryRegistryFindActiveIsExactAndCaseSensitive(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry(accounts.WithSeedAccounts(seedAdmin()))

	account, err := registry.FindActiveByEmail(ctx, "admin@benjiyou.com")
	require.NoError(t, err)
	assert.Equal(t, "admin1", account.ID)

	_, err = registry.FindActiveByEmail(ctx, "Admin@benjiyou.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)

	_, err = registry.FindActiveByUsername(ctx, "ADMIN")
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestMemoryRegistryAddPendingFillsDefaults(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	registry := accounts.NewMemoryRegistry(
		accounts.WithRegistryClock(func() time.Time { return now }),
		accounts.WithRegistryIDGenerator(func() string { return "generated" }),
	)

	record, err := registry.AddPending(ctx, &accounts.Account{
		Email:    "new@benjiyou.com",
		Username: "newbie",
	})
	require.NoError(t, err)

	assert.Equal(t, "generated", record.ID)
	assert.Equal(t, accounts.RoleMember, record.Role)
	assert.Equal(t, now, record.CreatedAt)
	assert.False(t, record.IsApproved)
	assert.Equal(t, accounts.StatusPending, record.Status())
}

func TestMemoryRegistryAddPendingForcesApprovalFlagOff(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry()

	record, err := registry.AddPending(ctx, &accounts.Account{
		Email:      "sneaky@benjiyou.com",
		Username:   "sneaky",
		IsApproved: true,
	})
	require.NoError(t, err)
	assert.False(t, record.IsApproved)

	pending, err := registry.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	active, err := registry.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestMemoryRegistryRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry(accounts.WithSeedAccounts(seedAdmin()))

	_, err := registry.AddPending(ctx, &accounts.Account{
		ID:       "admin1",
		Email:    "other@benjiyou.com",
		Username: "other",
	})
	require.Error(t, err)
}

func TestMemoryRegistryApproveMovesBetweenSets(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry()

	record, err := registry.AddPending(ctx, &accounts.Account{
		Email:    "new@benjiyou.com",
		Username: "newbie",
	})
	require.NoError(t, err)

	approved, err := registry.Approve(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.Equal(t, accounts.StatusActive, approved.Status())

	active, err := registry.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, record.ID, active[0].ID)
	assert.True(t, active[0].IsApproved)

	pending, err := registry.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = registry.Approve(ctx, record.ID)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestMemoryRegistryRejectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry()

	record, err := registry.AddPending(ctx, &accounts.Account{
		Email:    "new@benjiyou.com",
		Username: "newbie",
	})
	require.NoError(t, err)

	require.NoError(t, registry.Reject(ctx, record.ID))
	require.NoError(t, registry.Reject(ctx, record.ID))
	require.NoError(t, registry.Reject(ctx, "never-existed"))

	pending, err := registry.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMemoryRegistrySetRole(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry(accounts.WithSeedAccounts(seedMember()))

	require.NoError(t, registry.SetRole(ctx, "user1", accounts.RoleManager))

	account, err := registry.FindActiveByUsername(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, accounts.RoleManager, account.Role)

	err = registry.SetRole(ctx, "ghost", accounts.RoleAdmin)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestMemoryRegistryUniquenessScopeActiveOnly(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry(accounts.WithSeedAccounts(seedAdmin()))

	_, err := registry.AddPending(ctx, &accounts.Account{
		Email:    "pending@benjiyou.com",
		Username: "pending",
	})
	require.NoError(t, err)

	inUse, err := registry.EmailInUse(ctx, "admin@benjiyou.com")
	require.NoError(t, err)
	assert.True(t, inUse)

	// default scope ignores pending registrations, matching the original
	// client behavior
	inUse, err = registry.EmailInUse(ctx, "pending@benjiyou.com")
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = registry.UsernameInUse(ctx, "pending")
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestMemoryRegistryUniquenessScopeIncludePending(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry(
		accounts.WithUniquenessScope(accounts.UniquenessIncludePending),
	)

	_, err := registry.AddPending(ctx, &accounts.Account{
		Email:    "pending@benjiyou.com",
		Username: "pending",
	})
	require.NoError(t, err)

	inUse, err := registry.EmailInUse(ctx, "pending@benjiyou.com")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = registry.UsernameInUse(ctx, "pending")
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestMemoryRegistryListsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry(accounts.WithSeedAccounts(seedAdmin(), seedMember()))

	for _, username := range []string{"first", "second", "third"} {
		_, err := registry.AddPending(ctx, &accounts.Account{
			Email:    username + "@benjiyou.com",
			Username: username,
		})
		require.NoError(t, err)
	}

	active, err := registry.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "admin1", active[0].ID)
	assert.Equal(t, "user1", active[1].ID)

	pending, err := registry.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "first", pending[0].Username)
	assert.Equal(t, "second", pending[1].Username)
	assert.Equal(t, "third", pending[2].Username)
}

func TestMemoryRegistryHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry(accounts.WithSeedAccounts(seedAdmin()))

	account, err := registry.FindActiveByEmail(ctx, "admin@benjiyou.com")
	require.NoError(t, err)

	account.Role = accounts.RoleMember

	fresh, err := registry.FindActiveByEmail(ctx, "admin@benjiyou.com")
	require.NoError(t, err)
	assert.Equal(t, accounts.RoleAdmin, fresh.Role)
}

func TestMemoryRegistryIDUniqueAcrossSets(t *testing.T) {
	ctx := context.Background()
	registry := accounts.NewMemoryRegistry(accounts.WithSeedAccounts(seedAdmin(), seedMember()))

	record, err := registry.AddPending(ctx, &accounts.Account{
		Email:    "new@benjiyou.com",
		Username: "newbie",
	})
	require.NoError(t, err)

	active, err := registry.ListActive(ctx)
	require.NoError(t, err)
	pending, err := registry.ListPending(ctx)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, account := range append(active, pending...) {
		seen[account.ID]++
	}

	for id, count := range seen {
		assert.Equal(t, 1, count, "id %s appears in more than one set", id)
	}
	assert.Contains(t, seen, record.ID)
}
