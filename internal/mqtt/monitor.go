package mqtt

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/BlindEngine/internal/events"
)

// Heartbeat is the v1 message an executor publishes periodically to
// announce itself and its capacity.
type Heartbeat struct {
	Version      int    `json:"version"`
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	MaxQubits    int    `json:"max_qubits"`
	HeartbeatSec int    `json:"heartbeat_sec"`
}

// ParseHeartbeat decodes and validates a heartbeat payload.
func ParseHeartbeat(data []byte) (*Heartbeat, error) {
	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return nil, fmt.Errorf("invalid heartbeat JSON: %w", err)
	}
	if hb.Version != 1 {
		return nil, fmt.Errorf("unsupported heartbeat version: %d", hb.Version)
	}
	if hb.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if hb.HeartbeatSec <= 0 {
		return nil, fmt.Errorf("heartbeat_sec must be positive, got %d", hb.HeartbeatSec)
	}
	if hb.MaxQubits < 0 {
		return nil, fmt.Errorf("max_qubits must be >= 0, got %d", hb.MaxQubits)
	}
	return &hb, nil
}

// ExecutorState tracks an announced executor's health.
type ExecutorState struct {
	ID           string
	Kind         string
	MaxQubits    int
	HeartbeatSec int
	LastSeen     time.Time
	Connected    bool
}

// Monitor tracks executor heartbeats and emits executor.* events as they
// come and go.
type Monitor struct {
	mu        sync.RWMutex
	executors map[string]*ExecutorState
	tolerance float64 // multiple of the heartbeat interval before disconnect
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewMonitor creates a monitor. tolerance below or equal to 1 defaults to 2,
// i.e. one missed heartbeat.
func NewMonitor(tolerance float64) *Monitor {
	if tolerance <= 1.0 {
		tolerance = 2.0
	}
	return &Monitor{
		executors: make(map[string]*ExecutorState),
		tolerance: tolerance,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Listen subscribes to every executor's heartbeat topic.
func (m *Monitor) Listen(client Subscriber, topics Topics) error {
	return client.Subscribe(topics.Executor(""), func(_ paho.Client, msg paho.Message) {
		hb, err := ParseHeartbeat(msg.Payload())
		if err != nil {
			events.Emit("warn", "executor.error", "invalid heartbeat", map[string]interface{}{
				"topic": msg.Topic(),
				"error": err.Error(),
			})
			return
		}
		m.HandleHeartbeat(hb)
	})
}

// HandleHeartbeat records hb. The first heartbeat of an executor, or the
// first after a timeout, emits executor.connected.
func (m *Monitor) HandleHeartbeat(hb *Heartbeat) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, known := m.executors[hb.ID]
	announce := !known || !existing.Connected
	m.executors[hb.ID] = &ExecutorState{
		ID:           hb.ID,
		Kind:         hb.Kind,
		MaxQubits:    hb.MaxQubits,
		HeartbeatSec: hb.HeartbeatSec,
		LastSeen:     m.now(),
		Connected:    true,
	}
	if announce {
		events.Emit("info", "executor.connected", "", map[string]interface{}{
			"executor_id": hb.ID,
			"kind":        hb.Kind,
			"max_qubits":  hb.MaxQubits,
			"reconnect":   known,
		})
	}
}

// Start begins the background health check loop.
func (m *Monitor) Start(checkInterval time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.CheckHealth()
			}
		}
	}()
}

// Stop stops the health check loop. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

// CheckHealth marks executors whose heartbeat is overdue as disconnected.
func (m *Monitor) CheckHealth() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, st := range m.executors {
		if !st.Connected {
			continue
		}
		timeout := time.Duration(float64(st.HeartbeatSec)*m.tolerance) * time.Second
		if now.Sub(st.LastSeen) <= timeout {
			continue
		}
		st.Connected = false
		events.Emit("warn", "executor.disconnected", "heartbeat timeout", map[string]interface{}{
			"executor_id": id,
			"last_seen":   st.LastSeen.Format(time.RFC3339),
			"timeout_sec": timeout.Seconds(),
		})
	}
}

// Executor returns a copy of an executor's state, or nil.
func (m *Monitor) Executor(id string) *ExecutorState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.executors[id]; ok {
		cpy := *st
		return &cpy
	}
	return nil
}

// Capable lists the connected executors that can hold qubits live qubits,
// sorted by id.
func (m *Monitor) Capable(qubits int) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, st := range m.executors {
		if st.Connected && st.MaxQubits >= qubits {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
