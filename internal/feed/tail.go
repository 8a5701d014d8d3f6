package feed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Tailer follows a feed file on disk and delivers new envelopes as they
// are appended, so a separate process can spectate a running game. It
// watches the file's directory (fsnotify works better with directories)
// and debounces rapid write bursts.
type Tailer struct {
	watcher  *fsnotify.Watcher
	path     string
	offset   int64
	onEvents func([]Envelope)
	stopCh   chan struct{}
}

// NewTailer creates a tailer for the given feed file. The file does not
// need to exist yet; envelopes appear once the run starts writing.
func NewTailer(path string, onEvents func([]Envelope)) (*Tailer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Tailer{
		watcher:  watcher,
		path:     path,
		onEvents: onEvents,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start delivers any existing envelopes, then begins following appends.
func (t *Tailer) Start() {
	t.deliver()
	go t.watchLoop()
}

// Stop stops the tailer.
func (t *Tailer) Stop() {
	close(t.stopCh)
	t.watcher.Close()
}

func (t *Tailer) watchLoop() {
	targetFile := filepath.Base(t.path)
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	for {
		select {
		case <-t.stopCh:
			return

		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != targetFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Debounce to avoid a callback per appended line
			debounceTimer.Reset(100 * time.Millisecond)

		case <-debounceTimer.C:
			t.deliver()

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			_ = err
		}
	}
}

// deliver reads lines appended since the last delivery and hands the
// parsed envelopes to the callback. Malformed lines are skipped the same
// way ReadFile skips them.
func (t *Tailer) deliver() {
	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, 0); err != nil {
		return
	}

	var envelopes []Envelope
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		t.offset += int64(len(line)) + 1
		if len(line) == 0 {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			continue
		}
		envelopes = append(envelopes, env)
	}

	if len(envelopes) > 0 && t.onEvents != nil {
		t.onEvents(envelopes)
	}
}
