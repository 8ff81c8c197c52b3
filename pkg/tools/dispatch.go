package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clawkit/clawkit/pkg/logger"
	"github.com/clawkit/clawkit/pkg/skills"
	tooltypes "github.com/clawkit/clawkit/pkg/types/tools"
)

const (
	defaultExecTimeout = 30 * time.Second
	maxOutputSize      = 102400 // 100KB
)

// CommandRunner is the shell-execution collaborator. Run returns the
// combined output and the child's exit code; err is reserved for failures
// to execute at all, never for a non-zero child exit.
type CommandRunner interface {
	Run(ctx context.Context, command string) (output string, exitCode int, err error)
}

// shellRunner executes commands through sh -c.
type shellRunner struct{}

func (shellRunner) Run(ctx context.Context, command string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(output), exitErr.ExitCode(), nil
		}
		return string(output), -1, err
	}
	return string(output), 0, nil
}

// Executor dispatches skill tool invocations. It is state-free across
// calls: every invocation resolves the tool, branches on its kind, and
// reports the outcome in-band as a Result. Call-time arguments pass through
// verbatim — the declared argument schema is advisory documentation for the
// model, with enforcement left to the embedding security policy.
type Executor struct {
	timeout    time.Duration
	runner     CommandRunner
	httpClient *http.Client
	allowed    []glob.Glob
	tracer     trace.Tracer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout bounds shell and HTTP tool executions.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = timeout
	}
}

// WithRunner substitutes the shell-execution collaborator, mainly for
// tests.
func WithRunner(runner CommandRunner) ExecutorOption {
	return func(e *Executor) {
		e.runner = runner
	}
}

// WithHTTPClient substitutes the HTTP client used for http-kind tools.
func WithHTTPClient(client *http.Client) ExecutorOption {
	return func(e *Executor) {
		e.httpClient = client
	}
}

// WithAllowedCommands restricts shell tools to commands matching the given
// glob patterns. An empty list allows everything.
func WithAllowedCommands(patterns []string) ExecutorOption {
	globs := make([]glob.Glob, len(patterns))
	for i, pattern := range patterns {
		globs[i] = glob.MustCompile(pattern)
	}
	return func(e *Executor) {
		e.allowed = globs
	}
}

// NewExecutor creates an executor with a 30-second default timeout and a
// sh -c runner.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		timeout:    defaultExecTimeout,
		runner:     shellRunner{},
		httpClient: &http.Client{},
		tracer:     otel.Tracer("clawkit/tools"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute resolves toolName within the skill's manifest and runs it with the
// supplied arguments. Structural problems — unloaded skill, unknown tool,
// unsupported kind — surface as errors; execution failures (non-zero child
// exit, unknown built-in operation, HTTP error status) are reported in-band
// with Success=false so the agent can reason about them.
func (e *Executor) Execute(ctx context.Context, skill *skills.Skill, toolName, args string) (tooltypes.Result, error) {
	if skill == nil || !skill.Loaded {
		return tooltypes.Result{}, errors.Wrap(skills.ErrInvalidArgument, "skill is not loaded")
	}

	tool, err := skill.Manifest.FindTool(toolName)
	if err != nil {
		return tooltypes.Result{}, err
	}

	ctx, span := e.tracer.Start(ctx, "skills.tool.execute", trace.WithAttributes(
		attribute.String("skill.name", skill.Manifest.Name),
		attribute.String("tool.name", tool.Name),
		attribute.String("tool.kind", string(tool.Kind)),
	))
	defer span.End()

	logger.G(ctx).WithField("skill", skill.Manifest.Name).
		WithField("tool", tool.Name).
		WithField("kind", tool.Kind).
		Debug("executing skill tool")

	switch tool.Kind {
	case skills.ToolKindShell:
		return e.executeShell(ctx, tool, args), nil
	case skills.ToolKindBuiltin:
		return executeBuiltin(tool, args), nil
	case skills.ToolKindHTTP:
		return e.executeHTTP(ctx, tool), nil
	default:
		return tooltypes.Result{}, errors.Wrapf(skills.ErrNotImplemented, "tool kind %q", tool.Kind)
	}
}

// executeShell builds the invocation by concatenating the declared command
// with the call-time arguments, order-preserving and space-joined, and hands
// it to the runner.
func (e *Executor) executeShell(ctx context.Context, tool *skills.Tool, args string) tooltypes.Result {
	command := tool.Command
	if args != "" {
		command += " " + args
	}

	if len(e.allowed) > 0 && !e.commandAllowed(command) {
		return tooltypes.Result{
			Output:   fmt.Sprintf("command not allowed: %s", command),
			Success:  false,
			ExitCode: -1,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	output, exitCode, err := e.runner.Run(ctx, command)
	if err != nil {
		return tooltypes.Result{
			Output:   fmt.Sprintf("command execution failed: %v", err),
			Success:  false,
			ExitCode: -1,
		}
	}

	return tooltypes.Result{
		Output:   truncateOutput(output),
		Success:  exitCode == 0,
		ExitCode: exitCode,
	}
}

func (e *Executor) commandAllowed(command string) bool {
	for _, g := range e.allowed {
		if g.Match(command) {
			return true
		}
	}
	return false
}

// executeBuiltin dispatches on the tool's command as an operation selector
// against the statically known built-in set. Unknown selectors are an
// in-band failure, not a hard error.
func executeBuiltin(tool *skills.Tool, args string) tooltypes.Result {
	switch tool.Command {
	case "echo":
		output := "Echo from skill"
		if args != "" {
			output += ": " + args
		}
		return tooltypes.Result{Output: output, Success: true}
	default:
		return tooltypes.Result{
			Output:   fmt.Sprintf("unknown built-in operation: %s", tool.Command),
			Success:  false,
			ExitCode: -1,
		}
	}
}

// executeHTTP issues a GET against the tool's command URL with a bounded
// timeout. Transport failures and error statuses are reported in-band.
func (e *Executor) executeHTTP(ctx context.Context, tool *skills.Tool) tooltypes.Result {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tool.Command, nil)
	if err != nil {
		return tooltypes.Result{
			Output:   fmt.Sprintf("invalid tool URL %q: %v", tool.Command, err),
			Success:  false,
			ExitCode: -1,
		}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return tooltypes.Result{
			Output:   fmt.Sprintf("request failed: %v", err),
			Success:  false,
			ExitCode: -1,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOutputSize))
	if err != nil {
		return tooltypes.Result{
			Output:   fmt.Sprintf("failed to read response: %v", err),
			Success:  false,
			ExitCode: -1,
		}
	}

	if resp.StatusCode >= 400 {
		return tooltypes.Result{
			Output:   string(body),
			Success:  false,
			ExitCode: resp.StatusCode,
		}
	}
	return tooltypes.Result{Output: string(body), Success: true}
}

func truncateOutput(output string) string {
	if len(output) > maxOutputSize {
		return output[:maxOutputSize] + "\n\n[TRUNCATED - output exceeded 100KB limit]"
	}
	return output
}
