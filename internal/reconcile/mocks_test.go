package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/stripe/stripe-go/v75"
)

var ErrMockController = errors.New("mock controller error")

// MockController records pause and unpause calls.
type MockController struct {
	mu          sync.Mutex
	PauseFunc   func(ctx context.Context, remoteProjectID string) error
	UnpauseFunc func(ctx context.Context, remoteProjectID string) error
	Paused      []string
	Unpaused    []string
}

func (m *MockController) Pause(ctx context.Context, remoteProjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Paused = append(m.Paused, remoteProjectID)
	if m.PauseFunc != nil {
		return m.PauseFunc(ctx, remoteProjectID)
	}
	return nil
}

func (m *MockController) Unpause(ctx context.Context, remoteProjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Unpaused = append(m.Unpaused, remoteProjectID)
	if m.UnpauseFunc != nil {
		return m.UnpauseFunc(ctx, remoteProjectID)
	}
	return nil
}

func (m *MockController) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Paused) + len(m.Unpaused)
}

// MockFetcher serves subscriptions from a map.
type MockFetcher struct {
	mu            sync.Mutex
	GetFunc       func(ctx context.Context, id string) (*stripe.Subscription, error)
	Subscriptions map[string]*stripe.Subscription
	CallCount     int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{Subscriptions: map[string]*stripe.Subscription{}}
}

func (m *MockFetcher) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	sub, ok := m.Subscriptions[id]
	if !ok {
		return nil, errors.New("no such subscription: " + id)
	}
	return sub, nil
}

// MockSiteLocker records lock calls. Held keys refuse Acquire.
type MockSiteLocker struct {
	mu       sync.Mutex
	Held     map[string]bool
	Acquired []string
	Released []string
}

func NewMockSiteLocker() *MockSiteLocker {
	return &MockSiteLocker{Held: map[string]bool{}}
}

func (m *MockSiteLocker) Acquire(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Held[key] {
		return false, nil
	}
	m.Held[key] = true
	m.Acquired = append(m.Acquired, key)
	return true, nil
}

func (m *MockSiteLocker) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Held, key)
	m.Released = append(m.Released, key)
	return nil
}
