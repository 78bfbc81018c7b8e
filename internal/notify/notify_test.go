package notify

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeNotifier struct {
	name string
	sent []string
	fail bool
}

func (f *fakeNotifier) Platform() string { return f.name }

func (f *fakeNotifier) Announce(_ context.Context, text string) error {
	if f.fail {
		return errors.New("down")
	}
	f.sent = append(f.sent, text)
	return nil
}

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	d := &fakeNotifier{name: "discord"}
	s := &fakeNotifier{name: "slack"}
	b.Add(d)
	b.Add(s)

	if err := b.Announce(context.Background(), "行程规划完成"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.sent) != 1 || len(s.sent) != 1 {
		t.Fatalf("got %d discord, %d slack sends, want 1 each", len(d.sent), len(s.sent))
	}

	history := b.History(10)
	if len(history) != 1 {
		t.Fatalf("got %d history records, want 1", len(history))
	}
	if len(history[0].Targets) != 2 {
		t.Errorf("got targets %v, want both platforms", history[0].Targets)
	}
}

func TestBroadcasterContinuesPastFailure(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	b.Add(&fakeNotifier{name: "discord", fail: true})
	s := &fakeNotifier{name: "slack"}
	b.Add(s)

	if err := b.Announce(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("slack should still receive the announcement")
	}

	history := b.History(1)
	if got := history[0].Targets; len(got) != 1 || got[0] != "slack" {
		t.Errorf("got targets %v, want [slack]", got)
	}
}

func TestBroadcasterPlatforms(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	if got := b.Platforms(); len(got) != 0 {
		t.Fatalf("empty broadcaster should list no platforms, got %v", got)
	}
	b.Add(&fakeNotifier{name: "slack"})
	if got := b.Platforms(); len(got) != 1 || got[0] != "slack" {
		t.Errorf("got %v, want [slack]", got)
	}
}
