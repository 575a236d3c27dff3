package accounts

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RegisterAccountMessage carries a registration request. The password is
// accepted for interface parity with the clients but never stored or
// verified; the mock backend has no credential check.
type RegisterAccountMessage struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// Validate will run validation rules
func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(
			&e.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&e.FullName,
			validation.Required,
		),
	)
}

// RegisterAccountHandler validates a registration against the registry and
// files it into the pending set.
type RegisterAccountHandler struct {
	registry Registry
	activity ActivitySink
	logger   Logger
	now      func() time.Time
	newID    func() string
}

// NewRegisterAccountHandler creates a handler with sane defaults.
func NewRegisterAccountHandler(registry Registry) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		registry: registry,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests).
func (h *RegisterAccountHandler) WithClock(clock func() time.Time) *RegisterAccountHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

// WithIDGenerator overrides how ids for new accounts are minted.
func (h *RegisterAccountHandler) WithIDGenerator(gen func() string) *RegisterAccountHandler {
	if gen != nil {
		h.newID = gen
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	username := getUsername(event.Username, event.Email)

	// email first, then username: a taken email wins regardless of the
	// username submitted alongside it
	taken, err := h.registry.EmailInUse(ctx, event.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not check email availability")
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	taken, err = h.registry.UsernameInUse(ctx, username)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not check username availability")
	}
	if taken {
		return nil, ErrDuplicateUsername
	}

	account := &Account{
		ID:         h.newID(),
		Email:      event.Email,
		Username:   username,
		FullName:   event.FullName,
		Avatar:     event.Avatar,
		Role:       RoleMember,
		IsApproved: false,
		CreatedAt:  h.now(),
	}

	record, err := h.registry.AddPending(ctx, account)
	if err != nil {
		return nil, err
	}

	h.recordActivity(ctx, record)

	return record, nil
}

func (h *RegisterAccountHandler) recordActivity(ctx context.Context, account *Account) {
	event := ActivityEvent{
		EventType: ActivityEventRegistrationSubmitted,
		Actor: ActorRef{
			ID:   account.ID,
			Type: "user",
		},
		AccountID:  account.ID,
		ToStatus:   StatusPending,
		OccurredAt: h.now(),
		Metadata: map[string]any{
			"email":    account.Email,
			"username": account.Username,
		},
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.getLogger().Warn("activity sink error during registration: %v", err)
	}
}

func (h *RegisterAccountHandler) getLogger() Logger {
	if h.logger != nil {
		return h.logger
	}
	return defLogger{}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
