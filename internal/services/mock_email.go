package services

import (
	"log"
	"sync"
)

// MockNotifier records sent emails instead of delivering them. Used in tests
// and when no email credentials are configured.
type MockNotifier struct {
	mu    sync.Mutex
	Sends []MockSend
}

// MockSend is one recorded email
type MockSend struct {
	Template string
	To       string
	Vars     map[string]string
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the email and logs it
func (n *MockNotifier) Send(template string, to string, vars map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sends = append(n.Sends, MockSend{Template: template, To: to, Vars: vars})
	log.Printf("Mock email: %s to %s", template, to)
	return nil
}

// SentCount returns how many emails were recorded
func (n *MockNotifier) SentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sends)
}
