package agent

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Agent is a member of the planning society. Implementations are safe for
// concurrent HandleMessage and Recommend calls.
type Agent interface {
	ID() string
	Role() Role
	Capabilities() []string
	// HandleMessage processes one inbound message and may return a reply.
	// A nil reply means nothing needs to be sent back.
	HandleMessage(ctx context.Context, msg *Message) (*Message, error)
	// Recommend produces this agent's contribution for a planning round.
	Recommend(ctx context.Context, pc *PlanContext) (*Recommendation, error)
}

// Base carries the identity and bookkeeping shared by every agent.
type Base struct {
	id           string
	role         Role
	capabilities []string
	logger       *zap.Logger

	mu        sync.RWMutex
	peers     map[string]Role        // collaboration network, wired by the hub
	knowledge map[string]interface{} // role-specific reference tables
	inbox     []*Message
}

// NewBase creates agent internals with the given identity.
func NewBase(id string, role Role, capabilities []string, logger *zap.Logger) Base {
	return Base{
		id:           id,
		role:         role,
		capabilities: capabilities,
		logger:       logger,
		peers:        make(map[string]Role),
		knowledge:    make(map[string]interface{}),
	}
}

func (b *Base) ID() string             { return b.id }
func (b *Base) Role() Role             { return b.role }
func (b *Base) Capabilities() []string { return b.capabilities }

// AddPeer records a collaborator. The hub calls this when connecting agents.
func (b *Base) AddPeer(id string, role Role) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id != b.id {
		b.peers[id] = role
	}
}

// Peers returns a snapshot of the collaboration network.
func (b *Base) Peers() map[string]Role {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Role, len(b.peers))
	for k, v := range b.peers {
		out[k] = v
	}
	return out
}

// Remember stores a knowledge entry.
func (b *Base) Remember(key string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.knowledge[key] = value
}

// Recall fetches a knowledge entry.
func (b *Base) Recall(key string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.knowledge[key]
	return v, ok
}

// Receive appends to the inbox and logs the delivery.
func (b *Base) Receive(msg *Message) {
	b.mu.Lock()
	b.inbox = append(b.inbox, msg)
	b.mu.Unlock()
	b.logger.Debug("message received",
		zap.String("agent", b.id),
		zap.String("from", msg.Sender),
		zap.String("type", string(msg.Type)),
	)
}

// InboxLen reports how many messages this agent has received.
func (b *Base) InboxLen() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.inbox)
}

// ack is the default reply for messages an agent has no specific answer to.
func (b *Base) ack(msg *Message, content string) *Message {
	reply := NewMessage(b.id, msg.Sender, TypeResponse, content)
	reply.Payload = map[string]interface{}{"in_reply_to": msg.ID}
	return reply
}
