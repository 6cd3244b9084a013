package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// defaultWatchInterval is how often a [Watcher] polls its file.
const defaultWatchInterval = 5 * time.Second

// fileState identifies one version of the config file. The modification
// time is a cheap first check; the hash catches touches that did not change
// the content.
type fileState struct {
	modTime time.Time
	sum     [sha256.Size]byte
}

// Watcher polls a config file and hands every valid new version to a
// callback. Edits that fail to parse or validate are logged and skipped, and
// the last good config stays current.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)

	mu      sync.Mutex
	current *Config
	state   fileState

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the file at path once and returns a watcher holding it.
// Polling starts with [Watcher.Run]. onChange runs on the polling goroutine
// and may call [Watcher.Current].
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: defaultWatchInterval,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, st, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current, w.state = cfg, st
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls the config file until ctx is cancelled or [Watcher.Stop] is
// called. It always returns nil so it can run under an errgroup without
// cancelling its siblings.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case <-ticker.C:
			if old, cfg := w.poll(); cfg != nil && w.onChange != nil {
				w.onChange(old, cfg)
			}
		}
	}
}

// Stop ends a running [Watcher.Run]. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// poll checks the file once. It returns the replaced and the new config when
// the content changed to a valid config, and nils otherwise.
func (w *Watcher) poll() (old, cfg *Config) {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return nil, nil
	}

	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.state.modTime)
	w.mu.Unlock()
	if unchanged {
		return nil, nil
	}

	cfg, st, err := readFile(w.path)
	if err != nil {
		slog.Warn("config watcher: keeping previous config", "path", w.path, "err", err)
		return nil, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if st.sum == w.state.sum {
		w.state.modTime = st.modTime
		return nil, nil
	}
	old = w.current
	w.current, w.state = cfg, st

	slog.Info("config watcher: configuration reloaded", "path", w.path)
	return old, cfg
}

// readFile loads and validates the config at path and reports the file
// state it was read from.
func readFile(path string) (*Config, fileState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileState{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fileState{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fileState{}, err
	}
	return cfg, fileState{modTime: info.ModTime(), sum: sha256.Sum256(data)}, nil
}
