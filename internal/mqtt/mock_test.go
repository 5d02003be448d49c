package mqtt

import (
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// mockBroker records subscriptions and publishes in memory.
type mockBroker struct {
	mu            sync.Mutex
	subscriptions map[string]paho.MessageHandler
	published     map[string][][]byte
	connected     bool
	subscribeErr  error
}

func newMockBroker() *mockBroker {
	return &mockBroker{
		subscriptions: make(map[string]paho.MessageHandler),
		published:     make(map[string][][]byte),
		connected:     true,
	}
}

func (m *mockBroker) Subscribe(topic string, handler paho.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.subscriptions[topic] = handler
	return nil
}

func (m *mockBroker) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = append(m.published[topic], payload)
	return nil
}

func (m *mockBroker) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// deliver hands payload to the handler subscribed on filter, as if it
// arrived on topic.
func (m *mockBroker) deliver(filter, topic string, payload []byte) bool {
	m.mu.Lock()
	handler, ok := m.subscriptions[filter]
	m.mu.Unlock()
	if ok {
		handler(nil, &mockMessage{topic: topic, payload: payload})
	}
	return ok
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 1 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}
