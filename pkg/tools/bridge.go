// Package tools bridges skill-declared tools into the host's extensible-tool
// framework and dispatches tool invocations at runtime.
package tools

import (
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/clawkit/clawkit/pkg/skills"
	tooltypes "github.com/clawkit/clawkit/pkg/types/tools"
)

// ToDefinition translates a skill-declared tool into the host's generic
// tool definition. Each declared argument becomes one named string
// parameter in the synthesized schema — the manifest format carries no type
// annotations, so no inference beyond string is attempted. The tool kind
// selects the host's execution adapter; unrecognized kinds map to the
// custom adapter, which the host may reject.
func ToDefinition(tool skills.Tool) tooltypes.Definition {
	return tooltypes.Definition{
		Name:        tool.Name,
		Description: tool.Description,
		Adapter:     adapterForKind(tool.Kind),
		Command:     tool.Command,
		InputSchema: synthesizeSchema(tool),
	}
}

func adapterForKind(kind skills.ToolKind) tooltypes.Adapter {
	switch kind {
	case skills.ToolKindShell:
		return tooltypes.AdapterShell
	case skills.ToolKindBuiltin:
		return tooltypes.AdapterBuiltin
	case skills.ToolKindHTTP:
		return tooltypes.AdapterHTTP
	default:
		return tooltypes.AdapterCustom
	}
}

func synthesizeSchema(tool skills.Tool) *jsonschema.Schema {
	properties := jsonschema.NewProperties()
	for _, arg := range tool.Args {
		prop := &jsonschema.Schema{Type: "string"}
		if arg.Value != "" {
			prop.Default = arg.Value
		}
		properties.Set(arg.Key, prop)
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
	}
}

// RegisterAll converts every tool declared by the skill and registers it
// with the host. It stops at the first registration failure; already
// registered tools stay registered, as registration is additive.
func RegisterAll(skill *skills.Skill, registrar tooltypes.Registrar) error {
	if skill == nil || !skill.Loaded {
		return errors.Wrap(skills.ErrInvalidArgument, "skill is not loaded")
	}
	if registrar == nil {
		return errors.Wrap(skills.ErrInvalidArgument, "registrar is nil")
	}

	for _, tool := range skill.Manifest.Tools {
		if err := registrar.RegisterTool(ToDefinition(tool)); err != nil {
			return errors.Wrapf(err, "failed to register tool %q of skill %q", tool.Name, skill.Manifest.Name)
		}
	}
	return nil
}
