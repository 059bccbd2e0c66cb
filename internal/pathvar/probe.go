package pathvar

import (
	"os"
	"path/filepath"
	"sync"

	"workbench/internal/log"
	"workbench/internal/watch"
)

// CachingProbe remembers the most recent (path, exists) answer of an inner
// probe. With a watcher attached, any change under the directory holding the
// cached path drops the answer.
type CachingProbe struct {
	inner  ExistenceProbe
	logger log.Logging

	mu      sync.Mutex
	path    string
	exists  bool
	valid   bool
	gen     uint64 // bumped by Invalidate
	watcher *watch.Watcher
	watched string
	done    chan struct{}
}

// NewCachingProbe wraps inner
func NewCachingProbe(inner ExistenceProbe) *CachingProbe {
	return &CachingProbe{inner: inner, logger: log.Default()}
}

// Watch starts invalidating the cache on filesystem changes. The probe owns
// w from now on and stops it in Close.
func (p *CachingProbe) Watch(w *watch.Watcher) error {
	if err := w.Start(); err != nil {
		return err
	}
	p.mu.Lock()
	p.watcher = w
	p.done = make(chan struct{})
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		for change := range w.Changes() {
			p.logger.With(log.F("path", change.Path)).Debug("Dropping cached existence answer")
			p.Invalidate()
		}
	}()
	return nil
}

// Exists answers from the cache when path matches the cached one. Errors
// are passed through and never cached. The watch is placed before the inner
// probe runs, and an answer is only cached when no invalidation happened
// while probing.
func (p *CachingProbe) Exists(path string) (bool, error) {
	p.mu.Lock()
	if p.valid && p.path == path {
		exists := p.exists
		p.mu.Unlock()
		return exists, nil
	}
	if p.watcher != nil {
		p.watchParent(path)
	}
	gen := p.gen
	p.mu.Unlock()

	exists, err := p.inner.Exists(path)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen == gen {
		p.path, p.exists, p.valid = path, exists, true
	}
	return exists, nil
}

// Invalidate drops the cached answer and any answer still being probed
func (p *CachingProbe) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.valid = false
	p.gen++
}

// Close stops the watcher, if any
func (p *CachingProbe) Close() {
	p.mu.Lock()
	w, done := p.watcher, p.done
	p.watcher = nil
	p.mu.Unlock()
	if w == nil {
		return
	}
	w.Stop()
	<-done
}

// watchParent moves the watch to the nearest existing directory that
// contains path. Called with mu held.
func (p *CachingProbe) watchParent(path string) {
	dir := nearestDir(path)
	if dir == "" || dir == p.watched {
		return
	}
	if p.watched != "" {
		if err := p.watcher.RemoveDirectory(p.watched); err != nil {
			p.logger.WithError(err).Debug("Cannot drop previous watch")
		}
	}
	if err := p.watcher.AddDirectory(dir); err != nil {
		p.logger.WithError(err).Warn("Cannot watch directory")
		p.watched = ""
		return
	}
	p.watched = dir
}

func nearestDir(path string) string {
	dir := filepath.Dir(filepath.Clean(path))
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
