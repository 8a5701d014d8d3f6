package feed

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nightfall-sim/nightfall/internal/game"
)

func TestFeed_PublishReachesAllSubscribers(t *testing.T) {
	f := New(8)
	defer f.Close()

	a, cancelA := f.Subscribe()
	defer cancelA()
	b, cancelB := f.Subscribe()
	defer cancelB()

	f.Publish(NewPhaseChangeEvent(1, game.PhaseSetup, game.PhaseDayDiscussion))

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case e := <-ch:
			if e.EventType() != "phase.changed" {
				t.Errorf("subscriber %s: expected phase.changed, got %s", name, e.EventType())
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s: event not delivered", name)
		}
	}
}

func TestFeed_PublishNeverBlocks(t *testing.T) {
	f := New(2)
	defer f.Close()

	ch, cancel := f.Subscribe()
	defer cancel()

	// Publish far more events than the buffer holds without reading;
	// the publisher must not block.
	done := make(chan struct{})
	go func() {
		for range 50 {
			f.Publish(NewChatMessageEvent(1, game.PhaseDayDiscussion, "player-1", "Agnes", "msg", false))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}

	if len(ch) != 2 {
		t.Errorf("Buffer should hold exactly its capacity, got %d", len(ch))
	}
}

func TestFeed_DropOldestKeepsNewest(t *testing.T) {
	f := New(1)
	defer f.Close()

	ch, cancel := f.Subscribe()
	defer cancel()

	f.Publish(NewPhaseChangeEvent(1, game.PhaseSetup, game.PhaseDayDiscussion))
	f.Publish(NewPhaseChangeEvent(1, game.PhaseDayDiscussion, game.PhaseDayVoting))

	e := <-ch
	pce, ok := e.(PhaseChangeEvent)
	if !ok {
		t.Fatalf("Expected PhaseChangeEvent, got %T", e)
	}
	if pce.Current != game.PhaseDayVoting {
		t.Errorf("Oldest event should be dropped; got current=%s", pce.Current)
	}
}

func TestFeed_UnsubscribeClosesChannel(t *testing.T) {
	f := New(4)
	defer f.Close()

	ch, cancel := f.Subscribe()
	if f.SubscriberCount() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", f.SubscriberCount())
	}

	cancel()
	cancel() // idempotent

	if f.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after cancel, got %d", f.SubscriberCount())
	}
	if _, open := <-ch; open {
		t.Error("Channel should be closed after unsubscribe")
	}
}

func TestFeed_CloseIsTerminal(t *testing.T) {
	f := New(4)
	ch, _ := f.Subscribe()

	f.Close()

	if _, open := <-ch; open {
		t.Error("Close should close subscriber channels")
	}

	// Publishing and subscribing after Close must not panic.
	f.Publish(NewGameStartedEvent("game-1", 7))
	late, _ := f.Subscribe()
	if _, open := <-late; open {
		t.Error("Subscriptions after Close should be closed immediately")
	}
}

func TestWriter_AppendsEnvelopes(t *testing.T) {
	dir := t.TempDir()
	f := New(16)

	w, err := NewWriter(dir, f)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	f.Publish(NewGameStartedEvent("game-1", 5))
	f.Publish(NewVoteCastEvent(1, "player-1", "player-2", false))
	f.Close()

	if err := w.Close(); err != nil {
		t.Fatalf("Writer Close failed: %v", err)
	}

	envs, err := ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("Expected 2 envelopes, got %d", len(envs))
	}
	if envs[0].Event != "game.started" {
		t.Errorf("Expected game.started first, got %s", envs[0].Event)
	}
	if envs[1].Event != "vote.cast" {
		t.Errorf("Expected vote.cast second, got %s", envs[1].Event)
	}
}

func TestReadFile_MissingFileIsEmpty(t *testing.T) {
	envs, err := ReadFile(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Missing file should not error, got %v", err)
	}
	if envs != nil {
		t.Errorf("Missing file should yield no envelopes, got %d", len(envs))
	}
}
