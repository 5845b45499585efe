package mocks

import (
	"context"
	"sync"

	"github.com/you/safetyauth/domain"
)

// MockNotifier implements domain.Notifier and records every message
// synchronously.
type MockNotifier struct {
	mu       sync.Mutex
	messages []domain.Notification
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Deliver records the message
func (m *MockNotifier) Deliver(_ context.Context, msg domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// Messages returns the recorded messages
func (m *MockNotifier) Messages() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notification(nil), m.messages...)
}

// Last returns the most recent message, or the zero value
func (m *MockNotifier) Last() domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return domain.Notification{}
	}
	return m.messages[len(m.messages)-1]
}

// Compile-time interface compliance verification
var _ domain.Notifier = (*MockNotifier)(nil)
