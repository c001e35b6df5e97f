// Package watch triggers compression for PDF files dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long a file must stay unchanged before it is handled
const DefaultDebounce = 500 * time.Millisecond

// HandlerFunc processes one settled file
type HandlerFunc func(ctx context.Context, path string) error

// Watcher monitors a directory for new or rewritten PDF files
type Watcher struct {
	Dir      string
	Debounce time.Duration
	Handle   HandlerFunc
	Logger   zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// IsCandidate reports whether path names a PDF that is not itself a
// compression result
func IsCandidate(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ".pdf") && !strings.HasSuffix(name, "_compressed.pdf")
}

// Run watches until ctx is cancelled. Handlers run one at a time in the
// order files settle.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}

	delay := w.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(ctx)

	ready := make(chan string, 16)
	w.timers = make(map[string]*time.Timer)
	defer w.stopTimers()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-ready:
				if err := w.Handle(ctx, path); err != nil {
					w.Logger.Error().Err(err).Str("file", path).Msg("compression failed")
				}
			}
		}
	}()
	defer wg.Wait()
	defer cancel()

	w.Logger.Info().Str("dir", w.Dir).Msg("watching for PDF files")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !IsCandidate(event.Name) {
				continue
			}
			w.debounce(ctx, event.Name, delay, ready)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) debounce(ctx context.Context, path string, delay time.Duration, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}

	w.timers[path] = time.AfterFunc(delay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
