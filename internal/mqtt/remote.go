package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/orchestrator"
)

// commandTimeout bounds how long a command may wait for the engine loop.
const commandTimeout = 5 * time.Second

// statusEvents are the event prefixes after which the retained status is
// republished.
var statusEvents = []string{"player.", "subject.", "navigation.", "variable.", "media.started", "frame."}

// Controller runs commands on the engine loop.
type Controller interface {
	Execute(ctx context.Context, cmd orchestrator.Command) (interface{}, error)
	Status(ctx context.Context) (orchestrator.Status, error)
}

// Transport is the broker connection used by Remote. *Client implements it.
type Transport interface {
	Subscribe(topic string, handler paho.MessageHandler) error
	Publish(topic string, retained bool, payload []byte) error
}

// Remote exposes the player over MQTT: JSON commands arrive on
// <prefix>/<id>/command, journal events are forwarded to
// <prefix>/<id>/events and the status is kept retained on
// <prefix>/<id>/status.
type Remote struct {
	transport Transport
	ctrl      Controller
	base      string
}

// NewRemote creates a remote for the player id under prefix.
func NewRemote(t Transport, ctrl Controller, prefix, id string) *Remote {
	return &Remote{
		transport: t,
		ctrl:      ctrl,
		base:      strings.TrimSuffix(prefix, "/") + "/" + id,
	}
}

// StatusTopic is <prefix>/<id>/status. Use it for the client's last will.
func StatusTopic(prefix, id string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + id + "/status"
}

func (r *Remote) CommandTopic() string { return r.base + "/command" }
func (r *Remote) EventsTopic() string  { return r.base + "/events" }
func (r *Remote) StatusTopic() string  { return r.base + "/status" }

// ConnectNotifier reports broker (re)connections. *Client implements it.
type ConnectNotifier interface {
	OnConnect(fn func())
}

// Bind subscribes the command topic and republishes the status each time
// n connects, so the remote survives reconnects and a late first connect.
func (r *Remote) Bind(ctx context.Context, n ConnectNotifier) {
	n.OnConnect(func() {
		if err := r.Start(); err != nil {
			log.WithField("topic", r.CommandTopic()).WithError(err).Error("mqtt: failed to subscribe")
			return
		}
		log.WithField("topic", r.CommandTopic()).Info("mqtt: remote control ready")
		if err := r.PublishStatus(ctx); err != nil {
			log.WithError(err).Warn("mqtt: status not published")
		}
	})
}

// Start subscribes to the command topic.
func (r *Remote) Start() error {
	return r.transport.Subscribe(r.CommandTopic(), func(_ paho.Client, msg paho.Message) {
		if err := r.Handle(msg.Payload()); err != nil {
			log.WithField("topic", msg.Topic()).WithError(err).Warn("mqtt: command failed")
		}
	})
}

// Handle decodes and executes one command payload, then republishes the
// status.
func (r *Remote) Handle(payload []byte) error {
	var cmd orchestrator.Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		metrics.RemoteCommands.WithLabelValues("mqtt", "invalid", "error").Inc()
		events.Emit("error", "remote.error", "invalid command payload", map[string]interface{}{
			"source": "mqtt",
			"error":  err.Error(),
		})
		return fmt.Errorf("decode command: %w", err)
	}

	events.Emit("info", "remote.command", "", map[string]interface{}{
		"source":  "mqtt",
		"action":  cmd.Action,
		"subject": cmd.Subject,
	})

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if _, err := r.ctrl.Execute(ctx, cmd); err != nil {
		metrics.RemoteCommands.WithLabelValues("mqtt", cmd.Action, "error").Inc()
		events.Emit("error", "remote.error", "command failed", map[string]interface{}{
			"source": "mqtt",
			"action": cmd.Action,
			"error":  err.Error(),
		})
		return err
	}
	metrics.RemoteCommands.WithLabelValues("mqtt", cmd.Action, "ok").Inc()
	return r.PublishStatus(ctx)
}

// PublishStatus publishes the current status, retained.
func (r *Remote) PublishStatus(ctx context.Context) error {
	st, err := r.ctrl.Status(ctx)
	if err != nil {
		return err
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.transport.Publish(r.StatusTopic(), true, b)
}

// Run forwards journal events to the events topic until ctx is done.
func (r *Remote) Run(ctx context.Context) {
	sub := events.Subscribe()
	defer events.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			r.forward(ctx, e)
		}
	}
}

func (r *Remote) forward(ctx context.Context, e events.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := r.transport.Publish(r.EventsTopic(), false, b); err != nil {
		log.WithField("event", e.Name).WithError(err).Debug("mqtt: event publish failed")
		return
	}
	if lo.SomeBy(statusEvents, func(prefix string) bool { return strings.HasPrefix(e.Name, prefix) }) {
		if err := r.PublishStatus(ctx); err != nil {
			log.WithError(err).Debug("mqtt: status publish failed")
		}
	}
}
