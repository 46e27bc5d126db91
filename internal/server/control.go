package server

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Controller watches a control directory for drain/resume files. A `drain`
// file pauses request admission; `resume` restores it. Operators touch the
// files; no API call is needed.
type Controller struct {
	dir string

	mu       sync.RWMutex
	draining bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewController creates a controller over the given directory, creating it
// if needed. A watcher failure degrades to stat-based polling on each
// Draining call.
func NewController(dir string) (*Controller, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	c := &Controller{
		dir:  dir,
		done: make(chan struct{}),
	}
	if _, err := os.Stat(filepath.Join(dir, "drain")); err == nil {
		c.draining = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return c, nil
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return c, nil
	}
	c.watcher = watcher
	go c.watch()

	return c, nil
}

func (c *Controller) watch() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			switch filepath.Base(event.Name) {
			case "drain":
				c.mu.Lock()
				c.draining = true
				c.mu.Unlock()
			case "resume":
				c.mu.Lock()
				c.draining = false
				c.mu.Unlock()
				os.Remove(filepath.Join(c.dir, "drain"))
				os.Remove(filepath.Join(c.dir, "resume"))
			}
		case <-c.watcher.Errors:
			// Keep watching.
		}
	}
}

// Draining reports whether admission is paused. The drain file is also
// checked directly in case the watcher missed it.
func (c *Controller) Draining() bool {
	if _, err := os.Stat(filepath.Join(c.dir, "drain")); err == nil {
		c.mu.Lock()
		c.draining = true
		c.mu.Unlock()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draining
}

// Drain pauses admission by creating the drain file.
func (c *Controller) Drain() error {
	return os.WriteFile(filepath.Join(c.dir, "drain"), nil, 0644)
}

// Resume restores admission, clearing the control files.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.draining = false
	c.mu.Unlock()
	os.Remove(filepath.Join(c.dir, "drain"))
	os.Remove(filepath.Join(c.dir, "resume"))
}

// Close stops the watcher.
func (c *Controller) Close() {
	close(c.done)
	if c.watcher != nil {
		c.watcher.Close()
	}
}
