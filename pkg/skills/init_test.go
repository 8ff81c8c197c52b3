package skills

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDisabled(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("skills.enabled", false)

	registry, err := Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())
}

func TestInitializeLoadsConfiguredDirs(t *testing.T) {
	t.Cleanup(viper.Reset)

	root := t.TempDir()
	writeSkillDir(t, root, "weather", "SKILL.toml", tomlManifest("weather"))
	writeSkillDir(t, root, "broken", "SKILL.toml", "[skill]\nname = \"broken\"\n")

	viper.Set("skills.dirs", []string{root})
	viper.Set("skills.sync.enabled", false)
	viper.Set("skills.sync.dir", t.TempDir())

	registry, err := Initialize(context.Background())
	require.NoError(t, err)
	defer registry.Shutdown()

	// the malformed sibling is logged and skipped, not fatal
	assert.Equal(t, 1, registry.Len())
	_, err = registry.Find("weather")
	assert.NoError(t, err)
}

func TestOpenSkillsDirConfigOverride(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("skills.sync.dir", "/custom/checkout")
	assert.Equal(t, "/custom/checkout", OpenSkillsDir())
}

func TestDirsFallback(t *testing.T) {
	t.Cleanup(viper.Reset)

	assert.Equal(t, DefaultDirs(), Dirs())

	viper.Set("skills.dirs", []string{"/a", "/b"})
	assert.Equal(t, []string{"/a", "/b"}, Dirs())
}
