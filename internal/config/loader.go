package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *CheckConfig
	onChange []func(*CheckConfig)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *CheckConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*CheckConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.load()
					if err != nil {
						// Log and continue with old config.
						continue
					}
					l.mu.Lock()
					l.current = cfg
					callbacks := make([]func(*CheckConfig), len(l.onChange))
					copy(callbacks, l.onChange)
					l.mu.Unlock()
					for _, fn := range callbacks {
						fn(cfg)
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*CheckConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*CheckConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*CheckConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg CheckConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills in the stock node kinds and server timeouts.
func ApplyDefaults(cfg *CheckConfig) {
	if cfg.Patch.Router == "" {
		cfg.Patch.Router = "route"
	}
	if cfg.Patch.Selector == "" {
		cfg.Patch.Selector = "selector~"
	}
	if cfg.Patch.Sink == "" {
		cfg.Patch.Sink = "outlet~"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeoutMs == 0 {
		cfg.Server.ReadTimeoutMs = 10000
	}
	if cfg.Server.WriteTimeoutMs == 0 {
		cfg.Server.WriteTimeoutMs = 30000
	}
	if cfg.Server.IdleTimeoutMs == 0 {
		cfg.Server.IdleTimeoutMs = 60000
	}
}
