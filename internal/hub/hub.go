// Package hub connects the planning agents: registration, direct and
// broadcast delivery, a bounded transcript, and the decision engine that
// merges specialist recommendations.
package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
)

// ErrAgentNotFound is returned when a receiver is not registered.
var ErrAgentNotFound = errors.New("agent not found")

// Transcript entries beyond this are dropped oldest-first.
const maxTranscript = 1000

// peerAware is implemented by agents that track their collaborators.
type peerAware interface {
	AddPeer(id string, role agent.Role)
}

// Hub is the communication fabric of the agent society.
type Hub struct {
	logger *zap.Logger
	events *EventStream // optional

	mu         sync.RWMutex
	agents     map[string]agent.Agent
	transcript []*agent.Message
	delivered  int
}

// New creates an empty hub. events may be nil.
func New(events *EventStream, logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		events: events,
		agents: make(map[string]agent.Agent),
	}
}

// Register adds an agent. Registering the same ID twice is an error.
func (h *Hub) Register(a agent.Agent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.agents[a.ID()]; exists {
		return fmt.Errorf("agent %s already registered", a.ID())
	}
	h.agents[a.ID()] = a
	h.logger.Info("agent registered",
		zap.String("id", a.ID()),
		zap.String("role", string(a.Role())))
	return nil
}

// Unregister removes an agent. Unknown IDs are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.agents, id)
}

// Get returns a registered agent by ID.
func (h *Hub) Get(id string) (agent.Agent, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	a, ok := h.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return a, nil
}

// ByRole returns the first registered agent with the given role.
func (h *Hub) ByRole(role agent.Role) (agent.Agent, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, a := range h.agents {
		if a.Role() == role {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: role %s", ErrAgentNotFound, role)
}

// Agents returns a snapshot of all registered agents.
func (h *Hub) Agents() []agent.Agent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]agent.Agent, 0, len(h.agents))
	for _, a := range h.agents {
		out = append(out, a)
	}
	return out
}

// ConnectAll wires every agent to every other as collaborators.
func (h *Hub) ConnectAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, a := range h.agents {
		pa, ok := a.(peerAware)
		if !ok {
			continue
		}
		for _, other := range h.agents {
			if other.ID() != a.ID() {
				pa.AddPeer(other.ID(), other.Role())
			}
		}
	}
	h.logger.Info("collaboration network connected", zap.Int("agents", len(h.agents)))
}

// Send delivers a message to its receiver, records it in the transcript and
// returns the receiver's reply, if any.
func (h *Hub) Send(ctx context.Context, msg *agent.Message) (*agent.Message, error) {
	receiver, err := h.Get(msg.Receiver)
	if err != nil {
		return nil, err
	}
	h.record(ctx, msg)

	reply, err := receiver.HandleMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("deliver to %s: %w", msg.Receiver, err)
	}
	if reply != nil {
		h.record(ctx, reply)
	}
	return reply, nil
}

// Broadcast delivers a message to every agent except the sender and returns
// the replies. Each delivery is its own transcript entry.
func (h *Hub) Broadcast(ctx context.Context, msg *agent.Message) ([]*agent.Message, error) {
	h.mu.RLock()
	receivers := make([]agent.Agent, 0, len(h.agents))
	for _, a := range h.agents {
		if a.ID() != msg.Sender {
			receivers = append(receivers, a)
		}
	}
	h.mu.RUnlock()

	var replies []*agent.Message
	for _, r := range receivers {
		m := *msg
		m.ID = uuid.NewString()
		m.Receiver = r.ID()
		h.record(ctx, &m)

		reply, err := r.HandleMessage(ctx, &m)
		if err != nil {
			h.logger.Warn("broadcast delivery failed",
				zap.String("receiver", r.ID()), zap.Error(err))
			continue
		}
		if reply != nil {
			h.record(ctx, reply)
			replies = append(replies, reply)
		}
	}
	return replies, nil
}

// Status summarizes the hub for health and introspection endpoints.
type Status struct {
	Agents    int               `json:"agents"`
	Roles     map[string]string `json:"roles"` // agent ID -> role
	Delivered int               `json:"delivered"`
}

// Status reports the current hub state.
func (h *Hub) Status() *Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	roles := make(map[string]string, len(h.agents))
	for id, a := range h.agents {
		roles[id] = string(a.Role())
	}
	return &Status{Agents: len(h.agents), Roles: roles, Delivered: h.delivered}
}

// Transcript returns the most recent n messages, newest last.
func (h *Hub) Transcript(n int) []*agent.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.transcript) {
		n = len(h.transcript)
	}
	out := make([]*agent.Message, n)
	copy(out, h.transcript[len(h.transcript)-n:])
	return out
}

func (h *Hub) record(ctx context.Context, msg *agent.Message) {
	h.mu.Lock()
	h.transcript = append(h.transcript, msg)
	if len(h.transcript) > maxTranscript {
		h.transcript = h.transcript[len(h.transcript)-maxTranscript:]
	}
	h.delivered++
	h.mu.Unlock()

	if err := h.events.Publish(ctx, &Event{
		ID:        msg.ID,
		Kind:      "message",
		Sender:    msg.Sender,
		Receiver:  msg.Receiver,
		Detail:    string(msg.Type) + ": " + msg.Content,
		Timestamp: msg.Timestamp,
	}); err != nil {
		h.logger.Debug("event publish failed", zap.Error(err))
	}
}
