package mqtt

import (
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/BlindEngine/internal/events"
)

const (
	qos          = 1
	opTimeout    = 10 * time.Second
	retryEvery   = 5 * time.Second
	keepAlive    = 30 * time.Second
	quiesceMS    = 1000
	statusUp     = "online"
	statusDown   = "offline"
	defaultURL   = "tcp://localhost:1883"
	envBrokerURL = "MQTT_URL"
)

// Options configure the broker connection.
type Options struct {
	URL      string
	ClientID string
	Username string
	Password string
	// Topics roots the retained status topic. The broker publishes
	// "offline" there as the last will if the verifier vanishes.
	Topics Topics
}

// Publisher is the publish side of a broker connection.
type Publisher interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// Subscriber is the subscribe side of a broker connection.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// Client is the verifier's broker connection. Subscriptions survive
// reconnects.
type Client struct {
	client paho.Client
	url    string
	status string

	mu   sync.Mutex
	subs map[string]paho.MessageHandler
}

// TimeoutError reports a broker operation that was not acknowledged in time.
type TimeoutError struct {
	Op    string
	Topic string
}

func (e *TimeoutError) Error() string {
	if e.Topic == "" {
		return "mqtt " + e.Op + " timeout"
	}
	return fmt.Sprintf("mqtt %s timeout: %s", e.Op, e.Topic)
}

// BrokerURL returns MQTT_URL or the local default.
func BrokerURL() string {
	if url := os.Getenv(envBrokerURL); url != "" {
		return url
	}
	return defaultURL
}

// NewClient prepares a client without connecting.
func NewClient(o Options) *Client {
	c := &Client{
		url:    o.URL,
		status: o.Topics.Status(o.ClientID),
		subs:   make(map[string]paho.MessageHandler),
	}
	if c.url == "" {
		c.url = BrokerURL()
	}

	opts := paho.NewClientOptions().
		AddBroker(c.url).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryEvery).
		SetKeepAlive(keepAlive).
		SetWill(c.status, statusDown, qos, true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			events.Emit("warn", "system.error", "mqtt connection lost", map[string]interface{}{
				"broker": c.url,
				"error":  err.Error(),
			})
		})
	if o.Username != "" {
		opts.SetUsername(o.Username).SetPassword(o.Password)
	}
	c.client = paho.NewClient(opts)
	return c
}

func (c *Client) URL() string { return c.url }

// onConnect runs on every (re)connect: mark the verifier online and restore
// subscriptions the broker may have dropped.
func (c *Client) onConnect(pc paho.Client) {
	pc.Publish(c.status, qos, true, statusUp)

	c.mu.Lock()
	subs := make(map[string]paho.MessageHandler, len(c.subs))
	for t, h := range c.subs {
		subs[t] = h
	}
	c.mu.Unlock()
	for topic, h := range subs {
		pc.Subscribe(topic, qos, h)
	}
}

func (c *Client) Connect() error {
	return wait(c.client.Connect(), "connect", "")
}

// Subscribe registers handler for topic, replacing any earlier handler.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	if err := wait(c.client.Subscribe(topic, qos, handler), "subscribe", topic); err != nil {
		return err
	}
	c.mu.Lock()
	c.subs[topic] = handler
	c.mu.Unlock()
	return nil
}

// Publish sends payload with QoS 1, not retained.
func (c *Client) Publish(topic string, payload []byte) error {
	return wait(c.client.Publish(topic, qos, false, payload), "publish", topic)
}

// Disconnect marks the verifier offline and closes the connection.
func (c *Client) Disconnect() {
	if c.client.IsConnected() {
		_ = wait(c.client.Publish(c.status, qos, true, statusDown), "publish", c.status)
	}
	c.client.Disconnect(quiesceMS)
}

func (c *Client) IsConnected() bool { return c.client.IsConnected() }

// Start connects and emits the outcome. It reports whether the broker is
// reachable; the caller carries on without MQTT otherwise.
func (c *Client) Start() bool {
	if err := c.Connect(); err != nil {
		events.Emit("error", "system.error", "mqtt connect failed", map[string]interface{}{
			"broker": c.url,
			"error":  err.Error(),
		})
		return false
	}
	events.Emit("info", "system.startup", "mqtt connected", map[string]interface{}{"broker": c.url})
	return true
}

func wait(t paho.Token, op, topic string) error {
	if !t.WaitTimeout(opTimeout) {
		return &TimeoutError{Op: op, Topic: topic}
	}
	return t.Error()
}
