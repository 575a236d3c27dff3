package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// BunRegistry is the Registry implementation persisted through Bun. Both
// lifecycle sets live in a single accounts table; membership is derived
// from the is_approved column. Insertion order is the sqlite rowid.
type BunRegistry struct {
	db    *bun.DB
	scope UniquenessScope
	now   func() time.Time
	newID func() string
}

var _ Registry = (*BunRegistry)(nil)

// BunRegistryOption customizes registry construction.
type BunRegistryOption func(*BunRegistry)

// WithBunUniquenessScope sets the uniqueness policy for registration checks.
func WithBunUniquenessScope(scope UniquenessScope) BunRegistryOption {
	return func(r *BunRegistry) {
		r.scope = scope
	}
}

// WithBunRegistryClock injects a custom clock (useful for tests).
func WithBunRegistryClock(clock func() time.Time) BunRegistryOption {
	return func(r *BunRegistry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewBunRegistry returns a Registry backed by the given Bun handle. Call
// Init once to bootstrap the schema.
func NewBunRegistry(db *bun.DB, opts ...BunRegistryOption) *BunRegistry {
	r := &BunRegistry{
		db:    db,
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

// OpenSQLite opens a sqlite-backed Bun handle suitable for NewBunRegistry.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not open sqlite database")
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Init creates the accounts table if it does not exist.
func (r *BunRegistry) Init(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create accounts table")
	}

	return nil
}

func (r *BunRegistry) FindActiveByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, "email", email, true)
}

func (r *BunRegistry) FindActiveByUsername(ctx context.Context, username string) (*Account, error) {
	return r.findOne(ctx, "username", username, true)
}

func (r *BunRegistry) FindPendingByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, "email", email, false)
}

func (r *BunRegistry) EmailInUse(ctx context.Context, email string) (bool, error) {
	return r.inUse(ctx, "email", email)
}

func (r *BunRegistry) UsernameInUse(ctx context.Context, username string) (bool, error) {
	return r.inUse(ctx, "username", username)
}

func (r *BunRegistry) AddPending(ctx context.Context, account *Account) (*Account, error) {
	if account == nil {
		return nil, goerrors.New("account is nil", goerrors.CategoryBadInput)
	}

	record := account.Clone()
	r.prepareDefaults(record)
	record.IsApproved = false

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not store pending registration")
	}

	return record.Clone(), nil
}

func (r *BunRegistry) Approve(ctx context.Context, id string) (*Account, error) {
	res, err := r.db.NewUpdate().
		Model((*Account)(nil)).
		Set("is_approved = ?", true).
		Where("id = ?", id).
		Where("is_approved = ?", false).
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not approve account")
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFoundErr("id", id)
	}

	account := &Account{}
	if err := r.db.NewSelect().
		Model(account).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not load approved account")
	}

	return account, nil
}

func (r *BunRegistry) Reject(ctx context.Context, id string) error {
	if _, err := r.db.NewDelete().
		Model((*Account)(nil)).
		Where("id = ?", id).
		Where("is_approved = ?", false).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not reject account")
	}

	return nil
}

func (r *BunRegistry) SetRole(ctx context.Context, id string, role UserRole) error {
	res, err := r.db.NewUpdate().
		Model((*Account)(nil)).
		Set("user_role = ?", role).
		Where("id = ?", id).
		Where("is_approved = ?", true).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update account role")
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundErr("id", id)
	}

	return nil
}

func (r *BunRegistry) ListActive(ctx context.Context) ([]*Account, error) {
	return r.list(ctx, true)
}

func (r *BunRegistry) ListPending(ctx context.Context) ([]*Account, error) {
	return r.list(ctx, false)
}

func (r *BunRegistry) findOne(ctx context.Context, column, value string, approved bool) (*Account, error) {
	account := &Account{}

	err := r.db.NewSelect().
		Model(account).
		Where("?TableAlias."+column+" = ?", value).
		Where("?TableAlias.is_approved = ?", approved).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr(column, value)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}

	return account, nil
}

func (r *BunRegistry) inUse(ctx context.Context, column, value string) (bool, error) {
	q := r.db.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias."+column+" = ?", value)

	if r.scope == UniquenessActiveOnly {
		q = q.Where("?TableAlias.is_approved = ?", true)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "uniqueness check failed")
	}

	return exists, nil
}

func (r *BunRegistry) list(ctx context.Context, approved bool) ([]*Account, error) {
	accounts := []*Account{}

	err := r.db.NewSelect().
		Model(&accounts).
		Where("?TableAlias.is_approved = ?", approved).
		OrderExpr("?TableAlias.rowid ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account listing failed")
	}

	return accounts, nil
}

func (r *BunRegistry) prepareDefaults(record *Account) {
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
