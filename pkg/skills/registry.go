package skills

import (
	"sync"

	"github.com/pkg/errors"
)

// Registry is the collection of currently loaded skills, keyed by unique
// manifest name. It preserves insertion order: Unregister compacts the
// backing slice by shifting entries left instead of swapping with the last,
// so enumeration order is deterministic and matches the insertion order of
// surviving entries. The backing slice grows geometrically and never
// shrinks.
//
// A Registry is an explicitly constructed object scoped to its embedding
// session; tests and daemons may hold several isolated registries. All
// operations are safe for concurrent use: writes take an exclusive lock and
// List returns a snapshot copy rather than a live view.
type Registry struct {
	mu     sync.RWMutex
	skills []*Skill
}

// NewRegistry creates an empty skill registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register validates the skill's manifest and inserts it. It returns
// ErrValidationFailed when a manifest invariant does not hold and
// ErrAlreadyExists when a skill with the same name is present; in both
// cases the registry is unchanged. This is the single place name uniqueness
// is enforced — directory loads insert through the same path.
func (r *Registry) Register(skill *Skill) error {
	if skill == nil {
		return errors.Wrap(ErrInvalidArgument, "skill is nil")
	}
	if err := skill.Manifest.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.skills {
		if existing.Manifest.Name == skill.Manifest.Name {
			return errors.Wrapf(ErrAlreadyExists, "skill %q", skill.Manifest.Name)
		}
	}
	r.skills = append(r.skills, skill)
	return nil
}

// Unregister removes the named skill, unloading it first. Remaining entries
// keep their relative order.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, skill := range r.skills {
		if skill.Manifest.Name == name {
			unloadSkill(skill)
			r.skills = append(r.skills[:i], r.skills[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "skill %q", name)
}

// Find returns the loaded skill with the given name.
func (r *Registry) Find(name string) (*Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, skill := range r.skills {
		if skill.Manifest.Name == name {
			return skill, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "skill %q", name)
}

// List returns a snapshot of all registered skills in insertion order.
func (r *Registry) List() []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Skill, len(r.skills))
	copy(out, r.skills)
	return out
}

// Len reports the number of registered skills.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

// Shutdown unloads every registered skill and resets the registry to empty.
// The registry remains usable afterwards.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, skill := range r.skills {
		unloadSkill(skill)
	}
	r.skills = nil
}
