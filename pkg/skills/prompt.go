package skills

import (
	"fmt"
	"strings"
)

// systemPromptDelimiter separates skill sections in the assembled system
// prompt.
const systemPromptDelimiter = "\n---\n\n"

// ManifestToPrompt renders one manifest as a natural-language section: the
// skill heading and description, the declared tools, and the stored prompt
// templates verbatim.
func ManifestToPrompt(manifest *Manifest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Skill: %s\n\n", manifest.Name)
	sb.WriteString(manifest.Description)
	sb.WriteString("\n\n")

	if len(manifest.Tools) > 0 {
		sb.WriteString("## Available Tools\n\n")
		for _, tool := range manifest.Tools {
			fmt.Fprintf(&sb, "### %s\n%s\n\n", tool.Name, tool.Description)
		}
	}

	if len(manifest.Prompts) > 0 {
		sb.WriteString("## Prompt Templates\n\n")
		for i, prompt := range manifest.Prompts {
			fmt.Fprintf(&sb, "### Prompt %d\n\n%s\n\n", i+1, prompt)
		}
	}

	return sb.String()
}

// SystemPrompt assembles the agent's skill context from a collection of
// skills, in the order given. Unloaded skills are skipped, not errored on.
// Output is deterministic for a fixed collection: repeated calls with no
// intervening mutation produce byte-identical text.
func SystemPrompt(skills []*Skill) string {
	var sb strings.Builder
	sb.WriteString("# Available Skills\n\n")

	for _, skill := range skills {
		if skill == nil || !skill.Loaded {
			continue
		}
		sb.WriteString(ManifestToPrompt(&skill.Manifest))
		sb.WriteString(systemPromptDelimiter)
	}

	return sb.String()
}
