package feed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the JSONL event file written into each run directory.
const FileName = "feed.jsonl"

// envelope is the serialized form of one feed event: the event type plus
// the event's own fields, one JSON object per line.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Writer appends every published event to {dir}/feed.jsonl, one JSON object
// per line. It subscribes to a Feed and drains it on its own goroutine so
// file latency never reaches the engine.
type Writer struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	cancel func()
	done   chan struct{}
}

// NewWriter creates the feed file in dir and starts draining the feed.
func NewWriter(dir string, f *Feed) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("feed: create run directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("feed: open %s: %w", FileName, err)
	}

	ch, cancel := f.Subscribe()
	w := &Writer{
		path:   path,
		file:   file,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.drain(ch)
	return w, nil
}

// Path returns the feed file path.
func (w *Writer) Path() string { return w.path }

func (w *Writer) drain(ch <-chan Event) {
	defer close(w.done)
	for e := range ch {
		w.append(e)
	}
}

// append serializes one event as an envelope line. Marshal failures are
// skipped; a single unencodable event must not stop the file.
func (w *Writer) append(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	line, err := json.Marshal(envelope{Event: e.EventType(), Data: data})
	if err != nil {
		return
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		_, _ = w.file.Write(line)
	}
}

// Close unsubscribes, waits for buffered events to be flushed, and closes
// the file.
func (w *Writer) Close() error {
	w.cancel()
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// ReadFile parses a feed.jsonl file into envelopes, in order. Malformed
// lines are skipped rather than failing the read, matching an append-only
// file that may end mid-line while a game is still writing.
func ReadFile(path string) ([]Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("feed: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []Envelope
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			continue
		}
		out = append(out, Envelope{Event: env.Event, Data: env.Data})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("feed: scan %s: %w", path, err)
	}
	return out, nil
}

// Envelope is one decoded feed file line: the event type name and the raw
// event payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
