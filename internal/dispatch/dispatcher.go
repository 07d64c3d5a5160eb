// Package dispatch turns a host event into an ordered run of matching
// hooks and an aggregate verdict.
package dispatch

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watzon/hookline/internal/executor"
	"github.com/watzon/hookline/internal/hook"
	"github.com/watzon/hookline/internal/metrics"
	"github.com/watzon/hookline/internal/registry"
)

// Dispatcher is the engine facade. It is stateless across dispatches
// and safe for concurrent use as long as the runner is.
type Dispatcher struct {
	reg    *registry.Registry
	runner *executor.Runner
}

func New(reg *registry.Registry, runner *executor.Runner) *Dispatcher {
	if runner == nil {
		runner = executor.NewRunner()
	}
	return &Dispatcher{reg: reg, runner: runner}
}

// Outcome is the aggregate result of one dispatch.
type Outcome struct {
	// DispatchID correlates log lines and history rows for this run.
	DispatchID string

	Event   hook.EventKind
	Verdict hook.Verdict
	Results []hook.ExecutionResult
}

// BlockedBy names the hook whose failure produced a Block verdict,
// or "" when the verdict is Proceed.
func (o *Outcome) BlockedBy() string {
	if o.Verdict != hook.Block {
		return ""
	}
	for _, r := range o.Results {
		if r.Outcome.Blocks() {
			return r.HookName
		}
	}
	return ""
}

// Dispatch runs every enabled hook that matches the context, in
// dependency order, and folds the per-hook outcomes into a verdict.
//
// Only before and slash_command events can yield Block; failures on
// other events are reported as warnings and never veto. A hook whose
// prerequisite failed or was skipped is itself skipped without
// running. When the context is canceled mid-run the partial results
// are returned along with ctx.Err().
func (d *Dispatcher) Dispatch(ctx context.Context, ectx *hook.ExecutionContext) (*Outcome, error) {
	out := &Outcome{
		DispatchID: uuid.NewString(),
		Event:      ectx.Event,
		Verdict:    hook.Proceed,
	}

	logger := log.With().
		Str("dispatch_id", out.DispatchID).
		Str("event", string(ectx.Event)).
		Str("tool", ectx.Tool).
		Logger()

	candidates := d.reg.Lookup(ectx.Event, ectx.Tool)
	matched := make([]*registry.Entry, 0, len(candidates))
	for _, e := range candidates {
		ok, err := e.Matches(ectx)
		if err != nil {
			// Condition errors are advisory: log and move on.
			logger.Warn().Err(err).Str("hook", e.Def.Name).
				Msg("condition evaluation failed, hook skipped")
			continue
		}
		if ok {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		metrics.RecordDispatch(string(ectx.Event), string(out.Verdict))
		return out, nil
	}

	ordered, err := order(matched)
	if err != nil {
		return out, err
	}

	// Hooks whose own run failed, or which were skipped because a
	// prerequisite is in here. Exit-code-2 skips do not count: the
	// hook declined on purpose and its dependents still run.
	failed := make(map[string]bool, len(ordered))

	for _, e := range ordered {
		if err := ctx.Err(); err != nil {
			logger.Warn().Int("remaining", len(ordered)-len(out.Results)).
				Msg("dispatch canceled")
			metrics.RecordDispatch(string(ectx.Event), string(out.Verdict))
			return out, err
		}

		if dep := failedPrerequisite(e, failed); dep != "" {
			logger.Info().Str("hook", e.Def.Name).Str("prerequisite", dep).
				Msg("skipping hook, prerequisite failed")
			failed[e.Def.Name] = true
			out.Results = append(out.Results, hook.ExecutionResult{
				HookName: e.Def.Name,
				ExitCode: -1,
				Outcome:  hook.OutcomeSkipped,
				Error:    "prerequisite " + dep + " did not succeed",
			})
			continue
		}

		logger.Debug().Str("hook", e.Def.Name).Msg("running hook")
		result := d.runner.Run(ctx, e.Def, ectx)
		out.Results = append(out.Results, result)
		metrics.RecordHookExecution(e.Def.Name, string(ectx.Event),
			string(result.Outcome), result.Duration, result.TimedOut)

		if err := ctx.Err(); err != nil {
			logger.Warn().Str("hook", e.Def.Name).Msg("dispatch canceled")
			metrics.RecordDispatch(string(ectx.Event), string(out.Verdict))
			return out, err
		}

		if result.Outcome == hook.OutcomeWarning ||
			result.Outcome.Blocks() {
			failed[e.Def.Name] = true
		}

		if result.Outcome.Blocks() && ectx.Event.Blocking() && !e.Def.Advisory {
			out.Verdict = hook.Block
			logger.Warn().Str("hook", e.Def.Name).
				Str("outcome", string(result.Outcome)).
				Msg("hook blocked the action")
			break
		}
	}

	metrics.RecordDispatch(string(ectx.Event), string(out.Verdict))
	return out, nil
}

// failedPrerequisite returns e's prerequisite if it is in the failed
// set, or "". A prerequisite that did not match this dispatch is
// absent from the set and treated as satisfied.
func failedPrerequisite(e *registry.Entry, failed map[string]bool) string {
	if dep := e.Def.DependsOn; dep != "" && failed[dep] {
		return dep
	}
	return ""
}
