package mqtt

import (
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/cmapd/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records plans instead of sending them.
type MockPublisher struct {
	Plans []coremqtt.PlanMessage
	// Fail makes PublishPlan return an error.
	Fail bool
	// Unacked lists message ids WaitForAck reports as not acknowledged.
	Unacked map[string]bool
	mu      sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Unacked: make(map[string]bool)}
}

// PublishPlan records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishPlan(msg coremqtt.PlanMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", fmt.Errorf("publish failed")
	}
	msg.MessageID = fmt.Sprintf("msg-%d", len(m.Plans)+1)
	m.Plans = append(m.Plans, msg)
	return msg.MessageID, nil
}

// WaitForAck simulates an immediate acknowledgment of recorded plans.
func (m *MockPublisher) WaitForAck(messageID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Plans {
		if p.MessageID == messageID {
			if m.Unacked[messageID] {
				return false, coremqtt.ErrAckTimeout
			}
			return true, nil
		}
	}
	return false, fmt.Errorf("unknown message %s", messageID)
}

// Published returns a copy of the recorded plans.
func (m *MockPublisher) Published() []coremqtt.PlanMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.PlanMessage(nil), m.Plans...)
}
