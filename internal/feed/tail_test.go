package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTailer_DeliversAppendedEnvelopes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	lines := []byte(`{"event":"game.started","data":{"game_id":"g1","players":8}}` + "\n" +
		`{"event":"vote.cast","data":{"voter":"player-1","target":"player-2"}}` + "\n")
	if err := os.WriteFile(path, lines, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got []Envelope
	tailer, err := NewTailer(path, func(envs []Envelope) {
		got = append(got, envs...)
	})
	if err != nil {
		t.Fatalf("NewTailer: %v", err)
	}
	defer tailer.Stop()

	tailer.deliver()
	if len(got) != 2 {
		t.Fatalf("delivered %d envelopes, want 2", len(got))
	}
	if got[0].Event != "game.started" || got[1].Event != "vote.cast" {
		t.Errorf("event names = %q, %q", got[0].Event, got[1].Event)
	}

	// Appending delivers only the new lines.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("not json\n" + `{"event":"game.over","data":{}}` + "\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	tailer.deliver()
	if len(got) != 3 {
		t.Fatalf("delivered %d envelopes after append, want 3", len(got))
	}
	if got[2].Event != "game.over" {
		t.Errorf("appended event = %q, want game.over", got[2].Event)
	}
}

func TestTailer_MissingFileDeliversNothing(t *testing.T) {
	dir := t.TempDir()
	tailer, err := NewTailer(filepath.Join(dir, FileName), func([]Envelope) {
		t.Error("callback fired for a missing file")
	})
	if err != nil {
		t.Fatalf("NewTailer: %v", err)
	}
	defer tailer.Stop()
	tailer.deliver()
}
