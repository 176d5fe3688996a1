package mqtt

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/metrics"
)

const (
	defaultBroker  = "tcp://localhost:1883"
	connectTimeout = 10 * time.Second
	ackTimeout     = 5 * time.Second
	qos            = 1
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt: timed out")

// Client is a QoS 1 broker connection that reconnects on its own. Clean
// sessions drop subscriptions on reconnect, so subscribers register with
// OnConnect and are replayed on every connection.
type Client struct {
	client paho.Client

	mu        sync.Mutex
	onConnect []func()
}

// BrokerURL is $MQTT_URL, or the local default broker.
func BrokerURL() string {
	if url := os.Getenv("MQTT_URL"); url != "" {
		return url
	}
	return defaultBroker
}

// NewClient configures a client without connecting. When statusTopic is
// set the broker publishes a retained offline status as the last will.
func NewClient(clientID, statusTopic string) *Client {
	c := &Client{}
	opts := paho.NewClientOptions().
		AddBroker(BrokerURL()).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second).
		SetOnConnectHandler(func(paho.Client) { c.connected() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			metrics.MQTTConnected.Set(0)
			log.WithError(err).Warn("mqtt: connection lost")
		})
	if statusTopic != "" {
		opts.SetWill(statusTopic, `{"state":"offline"}`, qos, true)
	}
	c.client = paho.NewClient(opts)
	return c
}

// OnConnect registers fn to run after every successful connect, including
// automatic reconnects and a connect that succeeds after Connect timed out.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = append(c.onConnect, fn)
}

// connected runs on paho's connect callback goroutine.
func (c *Client) connected() {
	metrics.MQTTConnected.Set(1)
	log.WithField("broker", BrokerURL()).Info("mqtt: connected")

	c.mu.Lock()
	hooks := append([]func(){}, c.onConnect...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// await waits for token and wraps a timeout or broker error with op.
func await(token paho.Token, timeout time.Duration, op string) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Connect dials the broker, giving up after connectTimeout.
func (c *Client) Connect() error {
	return await(c.client.Connect(), connectTimeout, "mqtt connect")
}

// Subscribe registers handler for topic.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	return await(c.client.Subscribe(topic, qos, handler), connectTimeout, "mqtt subscribe "+topic)
}

// Publish sends payload to topic.
func (c *Client) Publish(topic string, retained bool, payload []byte) error {
	return await(c.client.Publish(topic, qos, retained, payload), ackTimeout, "mqtt publish "+topic)
}

// Disconnect waits up to a second for in-flight work, then closes.
func (c *Client) Disconnect() {
	c.client.Disconnect(1000)
	metrics.MQTTConnected.Set(0)
}
