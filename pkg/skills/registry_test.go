package skills

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedSkill(name string) *Skill {
	return &Skill{
		Manifest: Manifest{
			Name:        name,
			Description: "Test skill " + name,
			Version:     "0.1.0",
			Location:    "/skills/" + name + "/SKILL.toml",
		},
		Loaded:   true,
		LoadTime: time.Now(),
	}
}

func TestRegistryRegisterAndFind(t *testing.T) {
	registry := NewRegistry()

	skill := loadedSkill("weather")
	require.NoError(t, registry.Register(skill))

	found, err := registry.Find("weather")
	require.NoError(t, err)
	assert.Same(t, skill, found)

	_, err = registry.Find("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryRegisterNil(t *testing.T) {
	registry := NewRegistry()
	assert.ErrorIs(t, registry.Register(nil), ErrInvalidArgument)
}

func TestRegistryRejectsInvalidManifest(t *testing.T) {
	registry := NewRegistry()

	skill := loadedSkill("broken")
	skill.Manifest.Description = ""

	err := registry.Register(skill)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, 0, registry.Len())
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(loadedSkill("weather")))

	err := registry.Register(loadedSkill("weather"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryUnregisterKeepsOrder(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		require.NoError(t, registry.Register(loadedSkill(name)))
	}

	beta, err := registry.Find("beta")
	require.NoError(t, err)
	require.NoError(t, registry.Unregister("beta"))

	// the removed skill is unloaded, the rest keep their relative order
	assert.False(t, beta.Loaded)
	var names []string
	for _, skill := range registry.List() {
		names = append(names, skill.Manifest.Name)
	}
	assert.Equal(t, []string{"alpha", "gamma", "delta"}, names)

	assert.ErrorIs(t, registry.Unregister("beta"), ErrNotFound)
}

func TestRegistryListIsSnapshot(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(loadedSkill("weather")))

	snapshot := registry.List()
	require.NoError(t, registry.Register(loadedSkill("git-tools")))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistryShutdown(t *testing.T) {
	registry := NewRegistry()
	skill := loadedSkill("weather")
	require.NoError(t, registry.Register(skill))

	registry.Shutdown()

	assert.Equal(t, 0, registry.Len())
	assert.False(t, skill.Loaded)

	// the registry stays usable after shutdown
	require.NoError(t, registry.Register(loadedSkill("weather")))
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("skill-%d", i)
			require.NoError(t, registry.Register(loadedSkill(name)))
			_, err := registry.Find(name)
			assert.NoError(t, err)
			registry.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, registry.Len())
}
