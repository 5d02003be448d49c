package events

import (
	"strings"
	"sync"
	"sync/atomic"
)

// subscriberBuffer is the channel depth per subscriber. Events beyond it
// are dropped for that subscriber only.
const subscriberBuffer = 64

// Subscriber receives live events.
type Subscriber chan Event

// Broadcaster fans live events out to subscribers, each filtered by an
// event-name prefix.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[Subscriber]string
	dropped atomic.Uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[Subscriber]string)}
}

// Subscribe registers a subscriber for events whose name starts with
// prefix. An empty prefix receives everything.
func (b *Broadcaster) Subscribe(prefix string) Subscriber {
	ch := make(Subscriber, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = prefix
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes sub and closes its channel. Repeat calls are no-ops.
func (b *Broadcaster) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub)
	}
}

// CloseAll closes every subscriber channel.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub)
	}
}

// Publish delivers e to every matching subscriber without blocking.
func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub, prefix := range b.subs {
		if !MatchPrefix(e, prefix) {
			continue
		}
		select {
		case sub <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *Broadcaster) Dropped() uint64 { return b.dropped.Load() }

// MatchPrefix reports whether e's name starts with prefix.
func MatchPrefix(e Event, prefix string) bool {
	return prefix == "" || strings.HasPrefix(e.Name, prefix)
}

var hub = NewBroadcaster()

// Subscribe registers a subscriber for all events on the process hub.
func Subscribe() Subscriber { return hub.Subscribe("") }

// SubscribePrefix registers a subscriber for events named prefix*.
func SubscribePrefix(prefix string) Subscriber { return hub.Subscribe(prefix) }

func Unsubscribe(sub Subscriber) { hub.Unsubscribe(sub) }

// CloseAllSubscribers closes every live subscriber. Used on shutdown.
func CloseAllSubscribers() { hub.CloseAll() }

func SubscriberCount() int { return hub.Len() }

func DroppedCount() uint64 { return hub.Dropped() }

// RecentEvents returns the last n buffered events, or all of them when
// n <= 0.
func RecentEvents(n int) []Event {
	return buffer.Last(n, nil)
}

// RecentMatching returns the last n buffered events named prefix* and,
// when sessionID is set, carrying that session_id field.
func RecentMatching(n int, prefix, sessionID string) []Event {
	return buffer.Last(n, func(e Event) bool {
		if !MatchPrefix(e, prefix) {
			return false
		}
		if sessionID == "" {
			return true
		}
		id, _ := e.Fields["session_id"].(string)
		return id == sessionID
	})
}
