package accounts_test

import (
	"context"
	"sync"

	"github.com/benjiyou/go-accounts"
	"github.com/stretchr/testify/mock"
)

// MockSessionStore implements accounts.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, account *accounts.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockSessionStore) Load(ctx context.Context) (*accounts.Account, error) {
	args := m.Called(ctx)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

func (m *MockSessionStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockActivitySink implements accounts.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// captureSink collects events without testify expectations.
type captureSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (c *captureSink) Record(_ context.Context, event accounts.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) byType(t accounts.ActivityEventType) []accounts.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []accounts.ActivityEvent{}
	for _, event := range c.events {
		if event.EventType == t {
			out = append(out, event)
		}
	}
	return out
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}
