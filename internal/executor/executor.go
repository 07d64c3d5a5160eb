// Package executor runs a single hook as a supervised subprocess:
// shell spawn, environment overlay, watchdog timeout with
// process-group termination, and bounded output capture.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/hookline/internal/hook"
)

// DefaultTailLimit bounds the captured stdout/stderr tails.
const DefaultTailLimit = 64 * 1024

// ExitSkipped is the exit code a hook uses to signal it did not apply.
const ExitSkipped = 2

// Runner executes hook commands. The zero value is not usable; call
// NewRunner.
type Runner struct {
	// Shell interprets each hook's command line.
	Shell string

	// TailLimit is the per-stream capture bound in bytes.
	TailLimit int

	// Stdin, Stdout, and Stderr are the streams attached to
	// interactive hooks. They default to the process's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a Runner with the default shell and capture bound.
func NewRunner() *Runner {
	return &Runner{
		Shell:     "/bin/sh",
		TailLimit: DefaultTailLimit,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// Run executes the hook's command in the context's working directory
// and returns its result. Run never returns an error: spawn failures,
// nonzero exits, and timeouts are all encoded in the result, classified
// per the hook's event kind. The process group is killed when the
// hook's timeout elapses or ctx is canceled.
func (r *Runner) Run(ctx context.Context, def *hook.Definition, ectx *hook.ExecutionContext) hook.ExecutionResult {
	result := hook.ExecutionResult{
		HookName: def.Name,
		ExitCode: -1,
	}

	cmd := exec.Command(r.Shell, "-c", def.Command)
	cmd.Dir = ectx.WorkingDir

	env := os.Environ()
	for k, v := range ectx.Environ(def.Name) {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	// New process group so the watchdog can kill the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr *tailBuffer
	if def.Interactive {
		// A human may be on the other end: attach the terminal and
		// skip capture. The wall-clock timeout still applies.
		cmd.Stdin = r.Stdin
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
	} else {
		stdout = newTailBuffer(r.TailLimit)
		stderr = newTailBuffer(r.TailLimit)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
	}

	timeout := def.Timeout
	if timeout <= 0 {
		timeout = hook.DefaultTimeout
	}

	log.Debug().
		Str("hook", def.Name).
		Str("event", string(def.Event)).
		Dur("timeout", timeout).
		Bool("interactive", def.Interactive).
		Msg("Running hook")

	start := time.Now()

	if err := cmd.Start(); err != nil {
		result.Duration = time.Since(start)
		result.Outcome = failureOutcome(def)
		result.Error = fmt.Sprintf("spawning hook command: %v", err)
		log.Warn().Str("hook", def.Name).Err(err).Msg("Hook failed to start")
		return result
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		result.Duration = time.Since(start)
		r.classifyExit(def, err, &result)

	case <-timer.C:
		killGroup(cmd)
		<-done
		result.Duration = time.Since(start)
		result.TimedOut = true
		result.Outcome = hook.OutcomeTimedOut
		result.Error = fmt.Sprintf("killed after %s timeout", timeout)
		log.Warn().
			Str("hook", def.Name).
			Dur("timeout", timeout).
			Msg("Hook timed out")

	case <-ctx.Done():
		killGroup(cmd)
		<-done
		result.Duration = time.Since(start)
		result.Outcome = hook.OutcomeAborted
		result.Error = fmt.Sprintf("dispatch canceled: %v", ctx.Err())
		log.Warn().Str("hook", def.Name).Msg("Hook canceled")
	}

	if stdout != nil {
		result.Stdout = stdout.String()
		result.Stderr = stderr.String()
		result.StdoutTruncated = stdout.Truncated()
		result.StderrTruncated = stderr.Truncated()
	}

	return result
}

// classifyExit maps the child's exit status onto an outcome.
func (r *Runner) classifyExit(def *hook.Definition, err error, result *hook.ExecutionResult) {
	if err == nil {
		result.ExitCode = 0
		result.Outcome = hook.OutcomeSuccess
		return
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		result.Outcome = failureOutcome(def)
		result.Error = err.Error()
		return
	}

	result.ExitCode = exitErr.ExitCode()
	switch result.ExitCode {
	case ExitSkipped:
		// The hook decided at runtime it did not apply. Neutral.
		result.Outcome = hook.OutcomeSkipped
	default:
		result.Outcome = failureOutcome(def)
		log.Warn().
			Str("hook", def.Name).
			Int("exit_code", result.ExitCode).
			Str("outcome", string(result.Outcome)).
			Msg("Hook exited nonzero")
	}
}

// failureOutcome is the outcome for a failing hook: a veto for
// blocking events unless the hook is advisory, a warning otherwise.
func failureOutcome(def *hook.Definition) hook.Outcome {
	if def.Event.Blocking() && !def.Advisory {
		return hook.OutcomeAborted
	}
	return hook.OutcomeWarning
}

// killGroup terminates the child's process group. Hook bodies are
// untrusted, so termination is forced rather than cooperative.
func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		// Group kill can fail if the child never made it into its own
		// group; fall back to the direct handle.
		_ = cmd.Process.Kill()
	}
}
