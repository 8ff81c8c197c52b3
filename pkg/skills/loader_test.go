package skills

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkillDir(t *testing.T, root, name, manifestFile, content string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, manifestFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func tomlManifest(name string) string {
	return `[skill]
name = "` + name + `"
description = "Test skill ` + name + `"
version = "1.0.0"
`
}

func TestLoadOne(t *testing.T) {
	root := t.TempDir()
	path := writeSkillDir(t, root, "weather", "SKILL.toml", tomlManifest("weather"))

	loadedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	loader := NewLoader(NewRegistry(), WithClock(func() time.Time { return loadedAt }))

	skill, err := loader.LoadOne(path)
	require.NoError(t, err)

	assert.True(t, skill.Loaded)
	assert.Equal(t, "weather", skill.Manifest.Name)
	assert.Equal(t, path, skill.Manifest.Location)
	assert.Equal(t, loadedAt, skill.LoadTime)
}

func TestLoadOneMissingFile(t *testing.T) {
	loader := NewLoader(NewRegistry())
	_, err := loader.LoadOne(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadOneEmptyPath(t *testing.T) {
	loader := NewLoader(NewRegistry())
	_, err := loader.LoadOne("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLoadOneMarkdownDirectoryName(t *testing.T) {
	root := t.TempDir()
	path := writeSkillDir(t, root, "git-tools", "SKILL.md",
		"# Git helpers\n\nGit workflow helpers for the agent.\n")

	loader := NewLoader(NewRegistry())
	skill, err := loader.LoadOne(path)
	require.NoError(t, err)

	// canonical manifest files take their name from the containing directory
	assert.Equal(t, "git-tools", skill.Manifest.Name)
	assert.Equal(t, "Git workflow helpers for the agent.", skill.Manifest.Description)
	assert.Equal(t, "0.1.0", skill.Manifest.Version)
}

func TestLoadDirectory(t *testing.T) {
	root := t.TempDir()
	writeSkillDir(t, root, "weather", "SKILL.toml", tomlManifest("weather"))
	writeSkillDir(t, root, "git-tools", "SKILL.md",
		"# Git helpers\n\nGit workflow helpers for the agent.\n")
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "notes.toml"), []byte(tomlManifest("notes")), 0o644))

	// entries without a manifest shape are ignored, not skipped
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("not a skill"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-dir"), 0o755))

	registry := NewRegistry()
	loader := NewLoader(registry)

	result, err := loader.LoadDirectory(root)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.Len(t, result.Loaded, 3)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 3, registry.Len())
	for _, name := range []string{"weather", "git-tools", "notes"} {
		_, err := registry.Find(name)
		assert.NoError(t, err, name)
	}
}

// One malformed manifest must not prevent its siblings from loading.
func TestLoadDirectoryFaultIsolation(t *testing.T) {
	root := t.TempDir()
	writeSkillDir(t, root, "weather", "SKILL.toml", tomlManifest("weather"))
	brokenPath := writeSkillDir(t, root, "broken", "SKILL.toml", "[skill]\nname = \"broken\"\n")
	writeSkillDir(t, root, "git-tools", "SKILL.toml", tomlManifest("git-tools"))

	registry := NewRegistry()
	loader := NewLoader(registry)

	result, err := loader.LoadDirectory(root)
	require.NoError(t, err)

	assert.Len(t, result.Loaded, 2)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, brokenPath, result.Skipped[0].Path)
	assert.ErrorIs(t, result.Skipped[0].Err, ErrValidationFailed)
	assert.ErrorIs(t, result.Err(), ErrValidationFailed)
	assert.Equal(t, 2, registry.Len())
}

func TestLoadDirectoryDuplicateAcrossDirs(t *testing.T) {
	registry := NewRegistry()
	loader := NewLoader(registry)

	first := t.TempDir()
	writeSkillDir(t, first, "git-tools", "SKILL.toml", tomlManifest("git-tools"))
	second := t.TempDir()
	dupPath := writeSkillDir(t, second, "git-tools", "SKILL.toml", tomlManifest("git-tools"))

	result, err := loader.LoadDirectory(first)
	require.NoError(t, err)
	require.Len(t, result.Loaded, 1)

	// the second occurrence is skipped as a duplicate, first one wins
	result, err = loader.LoadDirectory(second)
	require.NoError(t, err)
	assert.Empty(t, result.Loaded)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, dupPath, result.Skipped[0].Path)
	assert.ErrorIs(t, result.Skipped[0].Err, ErrAlreadyExists)
	assert.Equal(t, 1, registry.Len())
}

func TestLoadDirectoryMissingDir(t *testing.T) {
	loader := NewLoader(NewRegistry())
	result, err := loader.LoadDirectory(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, result.Loaded)
	assert.Empty(t, result.Skipped)
}

func TestLoadDirectoryCanonicalPreference(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "weather")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "SKILL.toml"), []byte(tomlManifest("weather-toml")), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "SKILL.md"), []byte("# Weather\n\nMarkdown variant.\n"), 0o644))

	registry := NewRegistry()
	result, err := NewLoader(registry).LoadDirectory(root)
	require.NoError(t, err)

	require.Len(t, result.Loaded, 1)
	assert.Equal(t, "weather-toml", result.Loaded[0].Manifest.Name)
}

func TestUnloadIsIdempotent(t *testing.T) {
	root := t.TempDir()
	path := writeSkillDir(t, root, "weather", "SKILL.toml", tomlManifest("weather"))

	loader := NewLoader(NewRegistry())
	skill, err := loader.LoadOne(path)
	require.NoError(t, err)

	loader.Unload(skill)
	assert.False(t, skill.Loaded)
	assert.Empty(t, skill.Manifest.Name)
	assert.True(t, skill.LoadTime.IsZero())

	loader.Unload(skill)
	loader.Unload(nil)
}

func TestReload(t *testing.T) {
	root := t.TempDir()
	path := writeSkillDir(t, root, "weather", "SKILL.toml", tomlManifest("weather"))

	loader := NewLoader(NewRegistry())
	skill, err := loader.LoadOne(path)
	require.NoError(t, err)

	updated := `[skill]
name = "weather"
description = "Updated weather skill"
version = "2.0.0"
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	fresh, err := loader.Reload(skill)
	require.NoError(t, err)

	assert.False(t, skill.Loaded)
	assert.True(t, fresh.Loaded)
	assert.Equal(t, "2.0.0", fresh.Manifest.Version)
	assert.Equal(t, "Updated weather skill", fresh.Manifest.Description)
	assert.Equal(t, path, fresh.Manifest.Location)
}

func TestReloadMissingFile(t *testing.T) {
	root := t.TempDir()
	path := writeSkillDir(t, root, "weather", "SKILL.toml", tomlManifest("weather"))

	loader := NewLoader(NewRegistry())
	skill, err := loader.LoadOne(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	_, err = loader.Reload(skill)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, skill.Loaded)
}
