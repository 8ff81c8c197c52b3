package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManifestToPrompt(t *testing.T) {
	manifest := &Manifest{
		Name:        "weather",
		Description: "Fetch weather reports",
		Tools: []Tool{
			{Name: "fetch", Description: "Fetch the current weather", Kind: ToolKindShell, Command: "curl wttr.in"},
			{Name: "ping", Description: "Echo diagnostic", Kind: ToolKindBuiltin, Command: "echo"},
		},
		Prompts: []string{"Use the fetch tool.", "Prefer metric units."},
	}

	want := `# Skill: weather

Fetch weather reports

## Available Tools

### fetch
Fetch the current weather

### ping
Echo diagnostic

## Prompt Templates

### Prompt 1

Use the fetch tool.

### Prompt 2

Prefer metric units.

`
	assert.Equal(t, want, ManifestToPrompt(manifest))
}

func TestManifestToPromptMinimal(t *testing.T) {
	manifest := &Manifest{Name: "bare", Description: "Nothing but metadata"}

	want := "# Skill: bare\n\nNothing but metadata\n\n"
	assert.Equal(t, want, ManifestToPrompt(manifest))
}

func TestSystemPrompt(t *testing.T) {
	skills := []*Skill{
		{Manifest: Manifest{Name: "alpha", Description: "First skill"}, Loaded: true},
		nil,
		{Manifest: Manifest{Name: "hidden", Description: "Not loaded"}, Loaded: false},
		{Manifest: Manifest{Name: "beta", Description: "Second skill"}, Loaded: true},
	}

	want := "# Available Skills\n\n" +
		"# Skill: alpha\n\nFirst skill\n\n" + systemPromptDelimiter +
		"# Skill: beta\n\nSecond skill\n\n" + systemPromptDelimiter
	assert.Equal(t, want, SystemPrompt(skills))

	// repeated assembly over the same collection is byte-identical
	assert.Equal(t, SystemPrompt(skills), SystemPrompt(skills))
}

func TestSystemPromptEmpty(t *testing.T) {
	assert.Equal(t, "# Available Skills\n\n", SystemPrompt(nil))
}
