// Package hook defines the data model for the hook execution engine:
// hook definitions, trigger conditions, per-dispatch context, and
// execution results.
package hook

import "time"

// EventKind identifies a point in the host's lifecycle where hooks run.
type EventKind string

const (
	// ToolBefore fires before a tool invocation; its hooks can veto.
	ToolBefore EventKind = "before"
	// ToolAfter fires after a tool invocation completes.
	ToolAfter EventKind = "after"
	// SessionStart fires when a host session begins.
	SessionStart EventKind = "session_start"
	// SessionEnd fires when a host session ends.
	SessionEnd EventKind = "session_end"
	// AgentCreated fires when the host spawns a sub-agent.
	AgentCreated EventKind = "agent_created"
	// AgentDestroyed fires when a sub-agent is torn down.
	AgentDestroyed EventKind = "agent_destroyed"
	// SlashCommand fires on slash command submission; its hooks can veto.
	SlashCommand EventKind = "slash_command"
)

// IsValid returns true if the event kind is one of the defined kinds.
func (e EventKind) IsValid() bool {
	switch e {
	case ToolBefore, ToolAfter, SessionStart, SessionEnd,
		AgentCreated, AgentDestroyed, SlashCommand:
		return true
	}
	return false
}

// ToolScoped returns true for events that carry a tool name and honor
// tool filters.
func (e EventKind) ToolScoped() bool {
	return e == ToolBefore || e == ToolAfter
}

// Blocking returns true for events whose hooks can veto the guarded
// host action. All other kinds surface failures as warnings only.
func (e EventKind) Blocking() bool {
	return e == ToolBefore || e == SlashCommand
}

// DefaultTimeout is applied when a definition does not set one.
const DefaultTimeout = 30 * time.Second

// Definition is a single hook as loaded from the host's registry
// source. Definitions are immutable after registry load.
type Definition struct {
	// Name uniquely identifies the hook within a registry.
	Name string

	// Event the hook is bound to.
	Event EventKind

	// Tools restricts tool-scoped events to specific tools. Entries
	// may be glob patterns ("mcp_*"). Empty matches any tool.
	Tools []string

	// Command is passed verbatim to the shell.
	Command string

	// Enabled hooks participate in matching. Disabled hooks never do.
	Enabled bool

	// Interactive hooks attach the child directly to the controlling
	// terminal instead of capturing output.
	Interactive bool

	// Advisory opts a blocking-event hook out of veto semantics; its
	// failures are reported as warnings.
	Advisory bool

	// Timeout bounds the child's wall-clock runtime. Zero means
	// DefaultTimeout; registry load rejects negative values.
	Timeout time.Duration

	// Conditions must all hold for the hook to match (logical AND).
	Conditions []Condition

	// DependsOn names a prerequisite hook bound to the same event.
	DependsOn string

	// MatchPattern, when set, requires the context's command text to
	// contain this literal substring.
	MatchPattern string

	// MatchRegex, when set, requires the context's command text to
	// match this expression. Compiled at registry load.
	MatchRegex string

	// When is an optional CEL expression over the execution context.
	// Compiled at registry load.
	When string
}

// ExecutionContext describes one dispatched event. It is built by the
// host per dispatch and discarded after results are consumed.
type ExecutionContext struct {
	Event      EventKind
	Tool       string // empty for non-tool events
	FilePath   string // file the tool operates on, if any
	Command    string // command text the host is about to run, if any
	SessionID  string
	WorkingDir string

	// Env holds extra variables exposed to hook subprocesses on top
	// of the standard set built by Environ.
	Env map[string]string
}

// Environ returns the environment overlay exposed to a hook's
// subprocess: the host contract variables plus any context extras.
func (c *ExecutionContext) Environ(hookName string) map[string]string {
	env := map[string]string{
		"TOOL_NAME":         c.Tool,
		"FILE_PATH":         c.FilePath,
		"CLAUDE_SESSION_ID": c.SessionID,
		"HOOK_NAME":         hookName,
	}
	if c.Command != "" {
		env["BASH_COMMAND"] = c.Command
	}
	for k, v := range c.Env {
		env[k] = v
	}
	return env
}

// Outcome classifies how a single hook execution ended.
type Outcome string

const (
	// OutcomeSuccess is exit code 0.
	OutcomeSuccess Outcome = "success"
	// OutcomeWarning is a failure that does not block the host action.
	OutcomeWarning Outcome = "warning"
	// OutcomeSkipped means the hook declined to run (exit code 2) or
	// its prerequisite failed.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeAborted is a failure that vetoes the guarded action.
	OutcomeAborted Outcome = "aborted"
	// OutcomeTimedOut means the watchdog killed the hook.
	OutcomeTimedOut Outcome = "timed_out"
)

// Blocks reports whether this outcome vetoes the guarded action for a
// hook bound to a blocking event.
func (o Outcome) Blocks() bool {
	return o == OutcomeAborted || o == OutcomeTimedOut
}

// ExecutionResult is the record of one hook run within a dispatch.
type ExecutionResult struct {
	HookName string

	// ExitCode is -1 when the process was killed or never started.
	ExitCode int

	TimedOut bool
	Duration time.Duration

	// Stdout and Stderr hold bounded tails of the captured streams.
	// Empty for interactive hooks.
	Stdout string
	Stderr string

	// StdoutTruncated and StderrTruncated report that the hook wrote
	// more than the capture bound and older output was discarded.
	StdoutTruncated bool
	StderrTruncated bool

	Outcome Outcome

	// Error carries a spawn or evaluation failure message, if any.
	Error string
}

// Verdict is the dispatcher's aggregate decision.
type Verdict string

const (
	// Proceed means the host may perform the guarded action.
	Proceed Verdict = "proceed"
	// Block means a before-event hook vetoed the action.
	Block Verdict = "block"
)
