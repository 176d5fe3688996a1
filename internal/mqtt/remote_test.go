package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/orchestrator"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// mockTransport records subscriptions and publishes.
type mockTransport struct {
	mu            sync.Mutex
	subscriptions map[string]paho.MessageHandler
	published     []published
	failPublish   bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{subscriptions: make(map[string]paho.MessageHandler)}
}

func (m *mockTransport) Subscribe(topic string, handler paho.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[topic] = handler
	return nil
}

func (m *mockTransport) Publish(topic string, retained bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPublish {
		return errors.New("broker gone")
	}
	m.published = append(m.published, published{topic: topic, retained: retained, payload: payload})
	return nil
}

func (m *mockTransport) simulateMessage(topic string, payload []byte) {
	m.mu.Lock()
	handler, ok := m.subscriptions[topic]
	m.mu.Unlock()
	if ok {
		handler(nil, &mockMessage{topic: topic, payload: payload})
	}
}

func (m *mockTransport) on(topic string) []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []published
	for _, p := range m.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
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

type fakeController struct {
	mu       sync.Mutex
	commands []orchestrator.Command
	err      error
}

func (f *fakeController) Execute(_ context.Context, cmd orchestrator.Command) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return nil, f.err
}

func (f *fakeController) Status(context.Context) (orchestrator.Status, error) {
	return orchestrator.Status{State: orchestrator.StatePlaying, Subject: "intro"}, nil
}

func TestRemoteTopics(t *testing.T) {
	r := NewRemote(newMockTransport(), &fakeController{}, "sentient/player/", "kiosk1")

	if r.CommandTopic() != "sentient/player/kiosk1/command" {
		t.Errorf("unexpected command topic %s", r.CommandTopic())
	}
	if r.EventsTopic() != "sentient/player/kiosk1/events" {
		t.Errorf("unexpected events topic %s", r.EventsTopic())
	}
	if r.StatusTopic() != StatusTopic("sentient/player", "kiosk1") {
		t.Errorf("status topic mismatch: %s", r.StatusTopic())
	}
}

func TestRemoteExecutesCommands(t *testing.T) {
	transport := newMockTransport()
	ctrl := &fakeController{}
	r := NewRemote(transport, ctrl, "sentient/player", "kiosk1")

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	transport.simulateMessage(r.CommandTopic(), []byte(`{"action":"goto","subject":"chapter"}`))
	transport.simulateMessage(r.CommandTopic(), []byte(`{"action":"swipe","gesture":{"dx":-120,"velocity":0.8,"final":true}}`))

	if len(ctrl.commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(ctrl.commands))
	}
	if ctrl.commands[0].Action != "goto" || ctrl.commands[0].Subject != "chapter" {
		t.Errorf("unexpected first command %+v", ctrl.commands[0])
	}
	g := ctrl.commands[1].Gesture
	if g == nil || g.DX != -120 || !g.Final {
		t.Errorf("unexpected gesture %+v", g)
	}

	status := transport.on(r.StatusTopic())
	if len(status) != 2 {
		t.Fatalf("expected status after each command, got %d", len(status))
	}
	if !status[0].retained {
		t.Error("expected status to be retained")
	}
	var st orchestrator.Status
	if err := json.Unmarshal(status[0].payload, &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Subject != "intro" || st.State != orchestrator.StatePlaying {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestRemoteRejectsBadPayload(t *testing.T) {
	transport := newMockTransport()
	ctrl := &fakeController{}
	r := NewRemote(transport, ctrl, "p", "id")

	if err := r.Handle([]byte("not json")); err == nil {
		t.Error("expected decode error")
	}
	if len(ctrl.commands) != 0 {
		t.Error("invalid payload must not reach the controller")
	}
}

func TestRemoteCommandError(t *testing.T) {
	transport := newMockTransport()
	ctrl := &fakeController{err: errors.New("no open question")}
	r := NewRemote(transport, ctrl, "p", "id")

	if err := r.Handle([]byte(`{"action":"answer","option":"1"}`)); err == nil {
		t.Error("expected command error")
	}
	if len(transport.on(r.StatusTopic())) != 0 {
		t.Error("failed command must not publish status")
	}
}

func TestRemoteForwardsEvents(t *testing.T) {
	transport := newMockTransport()
	r := NewRemote(transport, &fakeController{}, "p", "id")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// Wait for the forwarder to subscribe before emitting.
	deadline := time.Now().Add(2 * time.Second)
	for events.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	events.Emit("info", "subject.playing", "", map[string]interface{}{"subject": "intro"})

	deadline = time.Now().Add(2 * time.Second)
	for len(transport.on(r.StatusTopic())) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	forwarded := transport.on(r.EventsTopic())
	if len(forwarded) == 0 {
		t.Fatal("expected the event to be forwarded")
	}
	var e events.Event
	if err := json.Unmarshal(forwarded[0].payload, &e); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if e.Name != "subject.playing" {
		t.Errorf("expected subject.playing, got %s", e.Name)
	}
	if forwarded[0].retained {
		t.Error("events must not be retained")
	}
	if len(transport.on(r.StatusTopic())) == 0 {
		t.Error("expected status republished after subject.playing")
	}
}

// connectHooks stands in for a client's (re)connect notifications.
type connectHooks struct {
	hooks []func()
}

func (c *connectHooks) OnConnect(fn func()) { c.hooks = append(c.hooks, fn) }

func (c *connectHooks) connect() {
	for _, fn := range c.hooks {
		fn()
	}
}

func TestRemoteBindSubscribesOnEveryConnect(t *testing.T) {
	transport := newMockTransport()
	ctrl := &fakeController{}
	r := NewRemote(transport, ctrl, "sentient/player", "kiosk1")
	notifier := &connectHooks{}

	r.Bind(context.Background(), notifier)
	if len(transport.subscriptions) != 0 {
		t.Fatal("expected no subscription before the broker connects")
	}

	notifier.connect()
	if _, ok := transport.subscriptions[r.CommandTopic()]; !ok {
		t.Fatal("expected the command topic subscribed on connect")
	}
	if got := len(transport.on(r.StatusTopic())); got != 1 {
		t.Errorf("expected status published on connect, got %d", got)
	}

	// a reconnect with a clean session starts without subscriptions
	transport.subscriptions = make(map[string]paho.MessageHandler)
	notifier.connect()

	transport.simulateMessage(r.CommandTopic(), []byte(`{"action":"pause"}`))
	if len(ctrl.commands) != 1 || ctrl.commands[0].Action != "pause" {
		t.Errorf("expected the command delivered after reconnect, got %+v", ctrl.commands)
	}
	if got := len(transport.on(r.StatusTopic())); got < 2 {
		t.Errorf("expected status republished on reconnect, got %d", got)
	}
}
