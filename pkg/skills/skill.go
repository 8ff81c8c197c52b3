// Package skills implements a pluggable skill registry for an AI agent.
// Skills are declarative bundles of tools and prompt templates described by
// manifest files (SKILL.toml, SKILL.md, or skill.json) discovered from a
// workspace directory and a periodically synced community repository. The
// package provides the manifest model, the dialect-aware parser, a loader
// with per-entry fault isolation, and a name-unique registry whose contents
// feed the agent's system prompt and tool list.
package skills

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ToolKind discriminates how a declared tool is executed. Manifests carry it
// as an open string; dispatch treats it as a closed set and rejects anything
// it does not know.
type ToolKind string

const (
	// ToolKindShell runs the tool's command through the shell.
	ToolKindShell ToolKind = "shell"
	// ToolKindBuiltin dispatches on the command as an in-process operation.
	ToolKindBuiltin ToolKind = "builtin"
	// ToolKindHTTP issues a request against the command URL.
	ToolKindHTTP ToolKind = "http"
	// ToolKindScript points the command at a script path.
	ToolKindScript ToolKind = "script"
)

// ToolArgument is one declared parameter of a tool. Value documents the
// argument (a default or an example); the manifest format carries no type
// annotations, so every argument is a string.
type ToolArgument struct {
	Key   string `toml:"key" json:"key"`
	Value string `toml:"value" json:"value"`
}

// Tool is one invocable capability declared by a manifest. Command semantics
// depend on Kind: shell command line, URL, script path, or built-in
// operation selector.
type Tool struct {
	Name        string         `toml:"name" json:"name"`
	Description string         `toml:"description" json:"description"`
	Kind        ToolKind       `toml:"kind" json:"kind"`
	Command     string         `toml:"command" json:"command,omitempty"`
	Args        []ToolArgument `toml:"args" json:"args,omitempty"`
}

// Manifest is the parsed, validated description of a skill. Name is the
// registry key. Location is the filesystem path the manifest was loaded
// from; it references external state and is not owned by the manifest.
type Manifest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags"`
	Tools       []Tool   `json:"tools"`
	Prompts     []string `json:"prompts"`
	Location    string   `json:"location"`
}

// Skill is a loaded manifest plus load metadata. A skill is never partially
// loaded: either the manifest invariants held at parse time or no skill was
// produced. UserData is an opaque slot for embedders.
type Skill struct {
	Manifest Manifest
	Loaded   bool
	LoadTime time.Time
	UserData any
}

// Validate checks the manifest invariants: non-empty name and description,
// every tool carries a name, description, and kind, and shell tools declare
// a command. Violations are reported as ErrValidationFailed.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return errors.Wrap(ErrValidationFailed, "manifest name is required")
	}
	if m.Description == "" {
		return errors.Wrapf(ErrValidationFailed, "skill %q: description is required", m.Name)
	}
	for i := range m.Tools {
		tool := &m.Tools[i]
		if tool.Name == "" {
			return errors.Wrapf(ErrValidationFailed, "skill %q: tool %d has no name", m.Name, i)
		}
		if tool.Description == "" {
			return errors.Wrapf(ErrValidationFailed, "skill %q: tool %q has no description", m.Name, tool.Name)
		}
		if tool.Kind == "" {
			return errors.Wrapf(ErrValidationFailed, "skill %q: tool %q has no kind", m.Name, tool.Name)
		}
		if tool.Kind == ToolKindShell && tool.Command == "" {
			return errors.Wrapf(ErrValidationFailed, "skill %q: shell tool %q has no command", m.Name, tool.Name)
		}
	}
	return nil
}

// FindTool returns the named tool declared by the manifest.
func (m *Manifest) FindTool(name string) (*Tool, error) {
	for i := range m.Tools {
		if m.Tools[i].Name == name {
			return &m.Tools[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "tool %q", name)
}

// ToJSON renders the manifest as indented JSON with a stable shape:
// {name, description, version, author?, tags, tools, prompts, location}.
// Surrounding tooling treats this as a wire contract, so tags, tools, and
// prompts are always present as arrays even when empty.
func (m *Manifest) ToJSON() (string, error) {
	out := *m
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Tools == nil {
		out.Tools = []Tool{}
	}
	if out.Prompts == nil {
		out.Prompts = []string{}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal manifest")
	}
	return string(data), nil
}
