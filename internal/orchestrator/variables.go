package orchestrator

import (
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/vm"
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/pubsub"
)

// Variables is the presentation's variable store. Values are kept in their
// textual form: "set" stores the operand verbatim, arithmetic stores the
// formatted number.
type Variables struct {
	values   map[string]string
	hub      *pubsub.Hub
	programs map[string]*vm.Program
}

// NewVariables creates an empty store publishing variable_updated on hub.
func NewVariables(hub *pubsub.Hub) *Variables {
	if hub == nil {
		hub = pubsub.New()
	}
	return &Variables{
		values:   make(map[string]string),
		hub:      hub,
		programs: make(map[string]*vm.Program),
	}
}

// Get returns the stored value of id.
func (v *Variables) Get(id string) (string, bool) {
	val, ok := v.values[id]
	return val, ok
}

// Snapshot returns a copy of every stored value.
func (v *Variables) Snapshot() map[string]string {
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Reset forgets every value without publishing.
func (v *Variables) Reset() {
	v.values = make(map[string]string)
}

// Restore replaces the store contents without publishing.
func (v *Variables) Restore(values map[string]string) {
	v.Reset()
	for k, val := range values {
		v.values[k] = val
	}
}

// ApplyAll applies modifiers in order.
func (v *Variables) ApplyAll(mods []playlist.VariableModifier) {
	for _, m := range mods {
		v.Apply(m)
	}
}

// Apply applies one modifier, stores the result and publishes
// variable_updated with the variable id.
func (v *Variables) Apply(m playlist.VariableModifier) {
	if m.ID == "" {
		log.WithField("operation", m.Operation).Warn("variable modifier without id ignored")
		return
	}

	var next string
	switch m.Operation {
	case playlist.OpSet:
		next = m.Value
	case playlist.OpAdd, playlist.OpSubtract, playlist.OpMultiply, playlist.OpDivide, playlist.OpPower:
		current := numeric(v.values[m.ID])
		operand, err := strconv.ParseFloat(strings.TrimSpace(m.Value), 64)
		if err != nil {
			log.WithFields(log.Fields{"variable": m.ID, "value": m.Value}).Warn("non-numeric operand")
			operand = math.NaN()
		}
		next = formatNumber(arithmetic(m.Operation, current, operand))
	default:
		log.WithFields(log.Fields{"variable": m.ID, "operation": m.Operation}).Warn("unknown variable operation ignored")
		return
	}

	v.values[m.ID] = next
	emitEvent("variable.updated", map[string]interface{}{
		"id":        m.ID,
		"operation": string(m.Operation),
		"value":     next,
	})
	v.hub.Publish(TopicVariableUpdated, m.ID)
}

func arithmetic(op playlist.Operation, current, operand float64) float64 {
	switch op {
	case playlist.OpAdd:
		return current + operand
	case playlist.OpSubtract:
		return current - operand
	case playlist.OpMultiply:
		return current * operand
	case playlist.OpDivide:
		return current / operand
	case playlist.OpPower:
		return math.Pow(current, operand)
	}
	return current
}

// numeric reads a stored value as a number; anything non-numeric is 0.
func numeric(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
