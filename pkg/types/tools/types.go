// Package tools defines the extensible-tool contract between the skill
// registry and its host: the generic tool definition handed to the host's
// extension API, and the in-band result shape returned by tool execution.
package tools

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

// Adapter selects the host's execution adapter for a bridged tool.
type Adapter string

const (
	// AdapterShell runs the tool through the host's shell executor.
	AdapterShell Adapter = "shell"
	// AdapterBuiltin runs the tool in-process.
	AdapterBuiltin Adapter = "builtin"
	// AdapterHTTP issues requests through the host's HTTP executor.
	AdapterHTTP Adapter = "http"
	// AdapterCustom is anything the bridge does not recognize; the host may
	// reject it.
	AdapterCustom Adapter = "custom"
)

// Definition is the host-facing description of one skill tool: identity, a
// synthesized parameter schema, and the adapter plus command the host needs
// to execute it.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Adapter     Adapter            `json:"adapter"`
	Command     string             `json:"command,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Registrar is the host extension API the bridge registers definitions
// with. Registration is additive; idempotency is at the host's discretion.
type Registrar interface {
	RegisterTool(def Definition) error
}

// Result is the in-band outcome of one tool invocation. Failed child
// processes and unknown built-in operations are reported here with
// Success=false rather than as propagated errors, so the agent can reason
// about the failure in conversation.
type Result struct {
	Output   string `json:"output"`
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
}

// String renders the result for logs and transcripts.
func (r Result) String() string {
	if r.Success {
		return r.Output
	}
	return fmt.Sprintf("%s (exit code %d)", r.Output, r.ExitCode)
}
