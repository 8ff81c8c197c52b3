package skills

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Canonical manifest file names recognized inside a skill directory, in
// preference order.
var canonicalManifests = []string{"SKILL.toml", "SKILL.md", "skill.json"}

// manifestSuffixes are the file suffixes treated as skill manifests during a
// directory scan.
var manifestSuffixes = []string{".toml", ".md", ".json"}

// Loader parses manifest files into skills and inserts directory-scanned
// skills into its registry.
type Loader struct {
	registry *Registry
	now      func() time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithClock overrides the load-time clock, mainly for tests.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader creates a loader that registers directory-scanned skills with
// the given registry.
func NewLoader(registry *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		registry: registry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SkippedEntry records one directory entry that failed to load, preserving
// the failure for the caller's logging instead of dropping it.
type SkippedEntry struct {
	Path string
	Err  error
}

// DirectoryResult is the outcome of a directory scan: the skills that loaded
// and registered, and the entries that were skipped.
type DirectoryResult struct {
	Loaded  []*Skill
	Skipped []SkippedEntry
}

// Err aggregates all skip errors, or nil when nothing was skipped.
func (r *DirectoryResult) Err() error {
	var combined *multierror.Error
	for _, skipped := range r.Skipped {
		combined = multierror.Append(combined, errors.Wrap(skipped.Err, skipped.Path))
	}
	return combined.ErrorOrNil()
}

// LoadOne loads a single manifest file into a skill. It fails with
// ErrNotFound when the path does not exist, a wrapped I/O error when the
// file cannot be read, and a parse or validation error on malformed content.
// On success the skill carries its origin path and load timestamp. LoadOne
// does not touch the registry.
func (l *Loader) LoadOne(path string) (*Skill, error) {
	if path == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "skill file %q", path)
		}
		return nil, errors.Wrapf(err, "failed to stat %q", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", path)
	}

	dialect := DetectDialect(path, raw)
	manifest, err := ParseManifest(raw, dialect, hintNameFromPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %q", path)
	}

	manifest.Location = path
	return &Skill{
		Manifest: manifest,
		Loaded:   true,
		LoadTime: l.now(),
	}, nil
}

// LoadDirectory scans a directory for skill manifests: manifest-bearing
// files at the top level, and sub-directories containing a canonical
// manifest file. Every successfully loaded skill is registered and returned;
// per-entry failures (unreadable, malformed, duplicate name) are collected
// as skipped entries and never abort the scan of siblings. A missing or
// empty directory yields an empty result — zero skills is a valid steady
// state.
func (l *Loader) LoadDirectory(dir string) (*DirectoryResult, error) {
	if dir == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "directory is empty")
	}

	result := &DirectoryResult{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, errors.Wrapf(err, "failed to read directory %q", dir)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())

		manifestPath := entryPath
		if entry.IsDir() {
			manifestPath = findCanonicalManifest(entryPath)
			if manifestPath == "" {
				continue
			}
		} else if !hasManifestSuffix(entry.Name()) {
			continue
		}

		skill, err := l.LoadOne(manifestPath)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedEntry{Path: manifestPath, Err: err})
			continue
		}
		if err := l.registry.Register(skill); err != nil {
			result.Skipped = append(result.Skipped, SkippedEntry{Path: manifestPath, Err: err})
			continue
		}
		result.Loaded = append(result.Loaded, skill)
	}

	return result, nil
}

// Unload releases the skill's manifest and marks it unloaded. Unloading an
// already-unloaded skill is a no-op.
func (l *Loader) Unload(skill *Skill) {
	unloadSkill(skill)
}

// Reload re-reads the skill from its original location and returns the
// fresh skill. The passed-in skill is unloaded and must not be used
// afterwards: content survives a reload, identity does not.
func (l *Loader) Reload(skill *Skill) (*Skill, error) {
	if skill == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "skill is nil")
	}
	location := skill.Manifest.Location
	unloadSkill(skill)
	return l.LoadOne(location)
}

func unloadSkill(skill *Skill) {
	if skill == nil || !skill.Loaded {
		return
	}
	skill.Manifest = Manifest{}
	skill.Loaded = false
	skill.LoadTime = time.Time{}
}

// findCanonicalManifest returns the preferred manifest file inside a skill
// directory, or "" when none exists.
func findCanonicalManifest(dir string) string {
	for _, name := range canonicalManifests {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func hasManifestSuffix(name string) bool {
	for _, suffix := range manifestSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// hintNameFromPath derives a markdown skill's name from its file name, or
// from the containing directory for canonical manifest files.
func hintNameFromPath(path string) string {
	base := filepath.Base(path)
	for _, canonical := range canonicalManifests {
		if base == canonical {
			return filepath.Base(filepath.Dir(path))
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
