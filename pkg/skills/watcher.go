package skills

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/clawkit/clawkit/pkg/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher keeps a registry in step with changes to skill directories:
// created or modified manifests are (re)loaded and registered, removed ones
// are unregistered. Events are debounced so editors that write in several
// steps trigger a single reload.
type Watcher struct {
	registry *Registry
	loader   *Loader
	dirs     []string
	debounce time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the event debounce window.
func WithDebounce(debounce time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = debounce
	}
}

// NewWatcher creates a watcher over the given skill directories.
func NewWatcher(registry *Registry, dirs []string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		registry: registry,
		loader:   NewLoader(registry),
		dirs:     dirs,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until the context is cancelled. Directories that do not exist
// yet are skipped with a debug log; everything else is watched one level
// deep (the directory itself plus its skill sub-directories).
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			logger.G(ctx).WithError(err).WithField("dir", dir).Debug("not watching missing skill directory")
			continue
		}
		watched++
		for _, skill := range w.registry.List() {
			skillDir := filepath.Dir(skill.Manifest.Location)
			if filepath.Dir(skillDir) == filepath.Clean(dir) {
				_ = watcher.Add(skillDir)
			}
		}
	}
	if watched == 0 {
		return errors.New("no skill directories available to watch")
	}

	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			pending[event.Name] |= event.Op
			timer.Reset(w.debounce)
			if event.Op.Has(fsnotify.Create) {
				// New skill directories need their own watch for the
				// manifest write that follows.
				if manifest := findCanonicalManifest(event.Name); manifest != "" || filepath.Ext(event.Name) == "" {
					_ = watcher.Add(event.Name)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("skill watcher error")
		case <-timer.C:
			for path, op := range pending {
				w.handleEvent(ctx, path, op)
			}
			pending = make(map[string]fsnotify.Op)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, path string, op fsnotify.Op) {
	log := logger.G(ctx).WithField("path", path)

	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		if skill, ok := w.findByLocation(path); ok {
			if err := w.registry.Unregister(skill.Manifest.Name); err == nil {
				log.WithField("skill", skill.Manifest.Name).Info("unregistered removed skill")
			}
		}
		return
	}

	if !op.Has(fsnotify.Create) && !op.Has(fsnotify.Write) {
		return
	}

	manifestPath := path
	if !hasManifestSuffix(filepath.Base(path)) {
		if manifestPath = findCanonicalManifest(path); manifestPath == "" {
			return
		}
	}

	if existing, ok := w.findByLocation(manifestPath); ok {
		_ = w.registry.Unregister(existing.Manifest.Name)
	}

	skill, err := w.loader.LoadOne(manifestPath)
	if err != nil {
		log.WithError(err).Warn("failed to reload changed skill")
		return
	}
	if err := w.registry.Register(skill); err != nil {
		log.WithError(err).Warn("failed to register changed skill")
		return
	}
	log.WithField("skill", skill.Manifest.Name).Info("reloaded skill")
}

func (w *Watcher) findByLocation(path string) (*Skill, bool) {
	for _, skill := range w.registry.List() {
		if skill.Manifest.Location == path {
			return skill, true
		}
	}
	return nil, false
}
