package mqtt

import (
	"encoding/json"
	"sort"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/BlindEngine/internal/events"
)

// ReportWatcher follows round reports published by other engines.
// Subscriptions are idempotent across reconnects.
type ReportWatcher struct {
	mu         sync.RWMutex
	client     Subscriber
	topics     Topics
	subscribed map[string]bool
}

// NewReportWatcher creates a watcher on client.
func NewReportWatcher(client Subscriber, topics Topics) *ReportWatcher {
	return &ReportWatcher{
		client:     client,
		topics:     topics,
		subscribed: make(map[string]bool),
	}
}

// Watch subscribes to a session's reports, or every session's when
// sessionID is empty. Each decoded report is emitted as round.observed and
// passed to fn if fn is non-nil.
func (w *ReportWatcher) Watch(sessionID string, fn func(RoundReport)) error {
	topic := w.topics.Rounds(sessionID)

	w.mu.Lock()
	if w.subscribed[topic] {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if err := w.client.Subscribe(topic, w.createHandler(topic, fn)); err != nil {
		return err
	}

	w.mu.Lock()
	w.subscribed[topic] = true
	w.mu.Unlock()
	return nil
}

func (w *ReportWatcher) createHandler(topic string, fn func(RoundReport)) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		var rec RoundReport
		if err := json.Unmarshal(msg.Payload(), &rec); err != nil {
			events.Emit("warn", "system.error", "malformed round report", map[string]interface{}{
				"topic": msg.Topic(),
				"error": err.Error(),
			})
			return
		}

		events.Emit("info", "round.observed", "", map[string]interface{}{
			"session_id": rec.SessionID,
			"round":      rec.Index,
			"failed":     rec.Failed,
			"topic":      topic,
		})
		if fn != nil {
			fn(rec)
		}
	}
}

// IsSubscribed returns true if the topic is already subscribed.
func (w *ReportWatcher) IsSubscribed(topic string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.subscribed[topic]
}

// SubscribedTopics returns every subscribed topic, sorted.
func (w *ReportWatcher) SubscribedTopics() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	topics := make([]string, 0, len(w.subscribed))
	for topic := range w.subscribed {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// ClearSubscriptions clears the subscription tracking.
// Call this on disconnect to allow re-subscription on reconnect.
func (w *ReportWatcher) ClearSubscriptions() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribed = make(map[string]bool)
}
