package accounts

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// StatusAwaitingApproval is the notice published after a successful
// registration; the new account stays pending and is never
// auto-authenticated.
const StatusAwaitingApproval = "account created successfully, awaiting administrator approval"

// SessionState is the snapshot the presentation layer observes. All four
// fields resolve together when an operation completes; IsLoading flips on
// synchronously when the operation starts.
type SessionState struct {
	Account         *Account `json:"account,omitempty"`
	IsAuthenticated bool     `json:"is_authenticated"`
	IsLoading       bool     `json:"is_loading"`
	ErrorMessage    string   `json:"error_message,omitempty"`
}

func (s SessionState) clone() SessionState {
	s.Account = s.Account.Clone()
	return s
}

// SessionManager orchestrates login, registration, logout, and admin
// moderation against the Registry, and publishes the session state to
// subscribers. Session mutations are serialized; readers always get a
// consistent snapshot.
//
// Admin operations trust the caller's privilege gate: confirm IsAdmin
// before invoking them, the manager does not self-check.
type SessionManager struct {
	registry Registry
	store    SessionStore
	register *RegisterAccountHandler

	logger     Logger
	activity   ActivitySink
	now        func() time.Time
	latency    time.Duration
	debug      bool
	revalidate bool

	// ops serializes session mutations so at most one is current
	ops sync.Mutex

	mu        sync.RWMutex
	state     SessionState
	subs      map[int]func(SessionState)
	nextSubID int
}

var _ RolePolicy = (*SessionManager)(nil)

// SessionManagerOption customizes manager construction.
type SessionManagerOption func(*SessionManager)

// WithLogger overrides the logger.
func WithLogger(logger Logger) SessionManagerOption {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) SessionManagerOption {
	return func(m *SessionManager) {
		m.activity = normalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithSimulatedLatency delays login and registration resolution, matching
// the fake network round trip of the mock clients. Defaults to zero so
// timing never leaks into logic.
func WithSimulatedLatency(d time.Duration) SessionManagerOption {
	return func(m *SessionManager) {
		if d > 0 {
			m.latency = d
		}
	}
}

// WithStartupRevalidation re-checks the cached session against the
// registry during construction instead of trusting the snapshot as-is. A
// cached account no longer in the active set is discarded.
func WithStartupRevalidation() SessionManagerOption {
	return func(m *SessionManager) {
		m.revalidate = true
	}
}

// WithDebug dumps every published state snapshot through the logger.
func WithDebug() SessionManagerOption {
	return func(m *SessionManager) {
		m.debug = true
	}
}

// NewSessionManager builds the manager and rehydrates the session from the
// SessionStore. A well-formed cached account starts the manager
// authenticated without consulting the registry: stale role or approval
// edits made after caching will not show until the next explicit login.
func NewSessionManager(registry Registry, store SessionStore, opts ...SessionManagerOption) *SessionManager {
	m := &SessionManager{
		registry: registry,
		store:    store,
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
		subs:     map[int]func(SessionState){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	m.register = NewRegisterAccountHandler(registry).
		WithActivitySink(m.activity).
		WithLogger(m.logger).
		WithClock(m.now)

	m.rehydrate()

	return m
}

// State returns the current published snapshot.
func (m *SessionManager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// CurrentAccount returns the authenticated account, or nil.
func (m *SessionManager) CurrentAccount() *Account {
	return m.State().Account
}

// IsAuthenticated reports whether a session is active.
func (m *SessionManager) IsAuthenticated() bool {
	return m.State().IsAuthenticated
}

// IsAdmin reports whether the current session holds admin capability.
func (m *SessionManager) IsAdmin() bool {
	account := m.CurrentAccount()
	return account != nil && account.Role.IsAdmin()
}

// IsManager reports whether the current session holds manager capability;
// admins qualify.
func (m *SessionManager) IsManager() bool {
	account := m.CurrentAccount()
	return account != nil && account.Role.IsManager()
}

// IsAtLeast reports whether the current session's role meets the minimum.
func (m *SessionManager) IsAtLeast(minRole UserRole) bool {
	account := m.CurrentAccount()
	return account != nil && account.Role.IsAtLeast(minRole)
}

// Subscribe registers an observer. The observer is invoked immediately
// with the current snapshot, then after every published change, outside
// the state lock. The returned function unsubscribes.
func (m *SessionManager) Subscribe(fn func(SessionState)) func() {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	snapshot := m.state.clone()
	m.mu.Unlock()

	fn(snapshot)

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Login authenticates against the active registry set. The password is
// accepted but never verified; the only checks are that an active account
// with this email exists and is approved. Unknown emails report the same
// generic message as a bad credential would.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*Account, error) {
	_ = password // mock backend, see package doc

	m.ops.Lock()
	defer m.ops.Unlock()

	m.beginOperation()
	m.wait()

	account, err := m.registry.FindActiveByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			if _, pendErr := m.registry.FindPendingByEmail(ctx, email); pendErr == nil {
				return nil, m.failLogin(ctx, email, ErrNotApproved)
			}
			return nil, m.failLogin(ctx, email, ErrInvalidCredentials)
		}
		return nil, m.failLogin(ctx, email, goerrors.Wrap(err, goerrors.CategoryInternal, "login lookup failed"))
	}

	if !account.IsApproved {
		return nil, m.failLogin(ctx, email, ErrNotApproved)
	}

	if err := m.store.Save(ctx, account); err != nil {
		m.logger.Warn("could not cache session: %v", err)
	}

	m.publish(SessionState{
		Account:         account,
		IsAuthenticated: true,
	})

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{ID: account.ID, Type: "user"},
		AccountID: account.ID,
		Metadata:  map[string]any{"email": email},
	})

	return account.Clone(), nil
}

// Register files a new pending registration. Duplicate email and username
// failures resolve synchronously, before any simulated latency; a taken
// email wins regardless of username. On success the awaiting-approval
// notice is published and the account stays pending.
func (m *SessionManager) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	m.ops.Lock()
	defer m.ops.Unlock()

	m.beginOperation()

	if err := m.checkRegistration(ctx, msg); err != nil {
		return nil, m.failOperation(err)
	}

	m.wait()

	account, err := m.register.Execute(ctx, msg)
	if err != nil {
		return nil, m.failOperation(err)
	}

	m.setState(func(s *SessionState) {
		s.IsLoading = false
		s.ErrorMessage = StatusAwaitingApproval
	})

	return account, nil
}

// Logout destroys the session and clears the cached copy. Immediate,
// never fails.
func (m *SessionManager) Logout() {
	m.ops.Lock()
	defer m.ops.Unlock()

	ctx := context.Background()

	var accountID string
	if account := m.CurrentAccount(); account != nil {
		accountID = account.ID
	}

	m.publish(SessionState{})

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("could not clear cached session: %v", err)
	}

	if accountID != "" {
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLogout,
			Actor:     ActorRef{ID: accountID, Type: "user"},
			AccountID: accountID,
		})
	}
}

// ApproveAccount moves a pending registration into the active set.
func (m *SessionManager) ApproveAccount(ctx context.Context, id string) (*Account, error) {
	account, err := m.registry.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventAccountApproved,
		Actor:      m.actor(),
		AccountID:  account.ID,
		FromStatus: StatusPending,
		ToStatus:   StatusActive,
	})

	return account, nil
}

// RejectAccount removes a pending registration. Idempotent.
func (m *SessionManager) RejectAccount(ctx context.Context, id string) error {
	if err := m.registry.Reject(ctx, id); err != nil {
		return err
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventAccountRejected,
		Actor:      m.actor(),
		AccountID:  id,
		FromStatus: StatusPending,
	})

	return nil
}

// ListPendingAccounts returns the pending set in insertion order.
func (m *SessionManager) ListPendingAccounts(ctx context.Context) ([]*Account, error) {
	return m.registry.ListPending(ctx)
}

// ListAllAccounts returns the active set in insertion order.
func (m *SessionManager) ListAllAccounts(ctx context.Context) ([]*Account, error) {
	return m.registry.ListActive(ctx)
}

// UpdateAccountRole mutates the role of an active account. The current
// session is not refreshed if it points at the same account; the change
// shows after the next login.
func (m *SessionManager) UpdateAccountRole(ctx context.Context, id string, role UserRole) error {
	if !role.IsValid() {
		return goerrors.New("unknown role", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"role": role})
	}

	if err := m.registry.SetRole(ctx, id, role); err != nil {
		return err
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRoleChanged,
		Actor:     m.actor(),
		AccountID: id,
		Metadata:  map[string]any{"role": role},
	})

	return nil
}

func (m *SessionManager) rehydrate() {
	ctx := context.Background()

	account, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("could not load cached session: %v", err)
		return
	}

	if account == nil || account.ID == "" || account.Email == "" {
		return
	}

	if m.revalidate && !m.isStillActive(ctx, account.ID) {
		m.logger.Info("cached session for account %s rejected by revalidation", account.ID)
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("could not clear stale session: %v", err)
		}
		return
	}

	m.mu.Lock()
	m.state = SessionState{
		Account:         account,
		IsAuthenticated: true,
	}
	m.mu.Unlock()

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSessionRestored,
		Actor:     ActorRef{ID: account.ID, Type: "user"},
		AccountID: account.ID,
	})
}

func (m *SessionManager) isStillActive(ctx context.Context, id string) bool {
	active, err := m.registry.ListActive(ctx)
	if err != nil {
		m.logger.Warn("revalidation listing failed: %v", err)
		return false
	}

	for _, account := range active {
		if account.ID == id {
			return true
		}
	}

	return false
}

// checkRegistration performs the synchronous pre-flight of Register:
// payload shape, then email, then username.
func (m *SessionManager) checkRegistration(ctx context.Context, msg RegisterAccountMessage) error {
	if err := msg.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	taken, err := m.registry.EmailInUse(ctx, msg.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not check email availability")
	}
	if taken {
		return ErrDuplicateEmail
	}

	taken, err = m.registry.UsernameInUse(ctx, getUsername(msg.Username, msg.Email))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not check username availability")
	}
	if taken {
		return ErrDuplicateUsername
	}

	return nil
}

func (m *SessionManager) beginOperation() {
	m.setState(func(s *SessionState) {
		s.IsLoading = true
		s.ErrorMessage = ""
	})
}

func (m *SessionManager) failOperation(err error) error {
	m.setState(func(s *SessionState) {
		s.IsLoading = false
		s.ErrorMessage = UserMessage(err)
	})
	return err
}

func (m *SessionManager) failLogin(ctx context.Context, email string, err error) error {
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     ActorRef{Type: "unknown"},
		Metadata: map[string]any{
			"email": email,
			"error": err.Error(),
		},
	})

	return m.failOperation(err)
}

// publish replaces the whole snapshot; setState mutates selected fields.
// Both notify subscribers outside the state lock.
func (m *SessionManager) publish(next SessionState) {
	m.mu.Lock()
	m.state = next
	subs, snapshot := m.observersLocked()
	m.mu.Unlock()

	m.dispatch(subs, snapshot)
}

func (m *SessionManager) setState(mutate func(*SessionState)) {
	m.mu.Lock()
	mutate(&m.state)
	subs, snapshot := m.observersLocked()
	m.mu.Unlock()

	m.dispatch(subs, snapshot)
}

func (m *SessionManager) observersLocked() ([]func(SessionState), SessionState) {
	subs := make([]func(SessionState), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs, m.state.clone()
}

func (m *SessionManager) dispatch(subs []func(SessionState), snapshot SessionState) {
	if m.debug {
		m.logger.Debug("session state: %s", print.MaybePrettyJSON(snapshot))
	}

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (m *SessionManager) wait() {
	if m.latency > 0 {
		time.Sleep(m.latency)
	}
}

func (m *SessionManager) actor() ActorRef {
	if account := m.CurrentAccount(); account != nil {
		return ActorRef{ID: account.ID, Type: "user"}
	}
	return ActorRef{Type: "system"}
}

func (m *SessionManager) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	if err := normalizeActivitySink(m.activity).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
