// Package notify pushes plan completion announcements to chat platforms.
// Notifiers are send-only, nothing flows back into the planner.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers one announcement to one platform.
type Notifier interface {
	Platform() string
	Announce(ctx context.Context, text string) error
}

// Record tracks a sent announcement for history.
type Record struct {
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sent_at"`
	Targets []string  `json:"targets"`
}

// Broadcaster fans one announcement out to every registered notifier. A
// platform failure is logged and does not stop the others.
type Broadcaster struct {
	notifiers []Notifier
	logger    *zap.Logger

	mu      sync.Mutex
	history []Record
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{logger: logger}
}

// Add registers a notifier.
func (b *Broadcaster) Add(n Notifier) {
	b.notifiers = append(b.notifiers, n)
}

// Platforms lists the registered platform names.
func (b *Broadcaster) Platforms() []string {
	names := make([]string, 0, len(b.notifiers))
	for _, n := range b.notifiers {
		names = append(names, n.Platform())
	}
	return names
}

// Announce sends the text to every platform.
func (b *Broadcaster) Announce(ctx context.Context, text string) error {
	var targets []string
	for _, n := range b.notifiers {
		if err := n.Announce(ctx, text); err != nil {
			b.logger.Warn("announcement failed",
				zap.String("platform", n.Platform()),
				zap.Error(err))
			continue
		}
		targets = append(targets, n.Platform())
	}

	b.mu.Lock()
	b.history = append(b.history, Record{Text: text, SentAt: time.Now(), Targets: targets})
	b.mu.Unlock()
	return nil
}

// History returns the most recent announcement records.
func (b *Broadcaster) History(limit int) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}
	out := make([]Record, limit)
	copy(out, b.history[len(b.history)-limit:])
	return out
}
