package pubsub

import (
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// MockPubSubClient records published engine events instead of talking to a
// real topic. ProcessMessage decodes msgpack for real so handler tests
// exercise the same payload path as production. Safe for concurrent use.
type MockPubSubClient struct {
	mu sync.Mutex

	SendMessageErr error

	SendMessageCalls []SendMessageCall
}

// SendMessageCall holds one published event.
type SendMessageCall struct {
	Topic string
	Data  any
}

// NewMock creates a mock PubSubClient. The projectID is ignored.
func NewMock(projectID string) *MockPubSubClient {
	return &MockPubSubClient{}
}

func (m *MockPubSubClient) SendMessage(topic EventType, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = append(m.SendMessageCalls, SendMessageCall{Topic: string(topic), Data: data})
	return m.SendMessageErr
}

func (m *MockPubSubClient) ProcessMessage(data []byte, returnValue any) error {
	return msgpack.Unmarshal(data, returnValue)
}

// Topics lists the topics of every published event, in order.
func (m *MockPubSubClient) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]string, len(m.SendMessageCalls))
	for i, call := range m.SendMessageCalls {
		topics[i] = call.Topic
	}
	return topics
}

// Reset clears the recorded events.
func (m *MockPubSubClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = nil
}
