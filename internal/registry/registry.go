// Package registry loads, validates, and indexes hook definitions.
// A registry is immutable after Load and safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/cel-go/cel"
	"github.com/rs/zerolog/log"

	"github.com/watzon/hookline/internal/hook"
)

var (
	ErrDuplicateName      = errors.New("duplicate hook name")
	ErrUnknownDependency  = errors.New("depends_on names an unknown hook")
	ErrDependencyScope    = errors.New("depends_on crosses event or tool scope")
	ErrCyclicDependency   = errors.New("cyclic dependency")
	ErrInvalidDefinition  = errors.New("invalid hook definition")
	ErrInvalidExpression  = errors.New("invalid when expression")
	ErrExpressionEval     = errors.New("when expression evaluation failed")
)

// Entry is a validated hook with its matchers compiled.
type Entry struct {
	Def *hook.Definition

	// Index is the definition's position in load order; the
	// dispatcher uses it as a stable tie-break.
	Index int

	regex *regexp.Regexp
	globs []glob.Glob
	when  cel.Program
}

// Registry indexes validated hooks by name and load order.
type Registry struct {
	entries []*Entry
	byName  map[string]*Entry
}

// celEnv is shared across loads; the variable set is fixed.
var celEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("event", cel.StringType),
		cel.Variable("tool", cel.StringType),
		cel.Variable("file", cel.StringType),
		cel.Variable("command", cel.StringType),
		cel.Variable("session", cel.StringType),
	)
	if err != nil {
		panic(fmt.Sprintf("building CEL environment: %v", err))
	}
	return env
}()

// Options tune registry construction.
type Options struct {
	// DefaultTimeout is applied to definitions that do not set their
	// own. Zero means hook.DefaultTimeout.
	DefaultTimeout time.Duration
}

// Load validates the definitions and builds a registry. Definitions
// are copied; the caller's slice is not retained. Any validation
// failure means no registry is constructed.
func Load(defs []hook.Definition) (*Registry, error) {
	return LoadWithOptions(defs, Options{})
}

// LoadWithOptions is Load with host-supplied defaults.
func LoadWithOptions(defs []hook.Definition, opts Options) (*Registry, error) {
	defaultTimeout := opts.DefaultTimeout
	if defaultTimeout <= 0 {
		defaultTimeout = hook.DefaultTimeout
	}

	r := &Registry{
		entries: make([]*Entry, 0, len(defs)),
		byName:  make(map[string]*Entry, len(defs)),
	}

	for i := range defs {
		def := defs[i] // copy; the registry owns its definitions
		if err := validateDefinition(&def); err != nil {
			return nil, err
		}
		if def.Timeout == 0 {
			def.Timeout = defaultTimeout
		}

		if _, exists := r.byName[def.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, def.Name)
		}

		entry := &Entry{Def: &def, Index: i}
		if err := entry.compile(); err != nil {
			return nil, err
		}

		r.entries = append(r.entries, entry)
		r.byName[def.Name] = entry
	}

	for _, entry := range r.entries {
		if err := r.validateDependency(entry); err != nil {
			return nil, err
		}
	}

	if err := r.checkCycles(); err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(r.entries)).Msg("Hook registry loaded")

	return r, nil
}

func validateDefinition(def *hook.Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if !def.Event.IsValid() {
		return fmt.Errorf("%w: hook %q: unknown event %q", ErrInvalidDefinition, def.Name, def.Event)
	}
	if def.Command == "" {
		return fmt.Errorf("%w: hook %q: command is required", ErrInvalidDefinition, def.Name)
	}
	if def.Timeout < 0 {
		return fmt.Errorf("%w: hook %q: timeout must be positive", ErrInvalidDefinition, def.Name)
	}
	if len(def.Tools) > 0 && !def.Event.ToolScoped() {
		return fmt.Errorf("%w: hook %q: event %q does not take a tool filter", ErrInvalidDefinition, def.Name, def.Event)
	}
	for _, cond := range def.Conditions {
		if err := cond.Validate(); err != nil {
			return fmt.Errorf("%w: hook %q: %v", ErrInvalidDefinition, def.Name, err)
		}
	}
	return nil
}

func (e *Entry) compile() error {
	def := e.Def

	if def.MatchRegex != "" {
		re, err := regexp.Compile(def.MatchRegex)
		if err != nil {
			return fmt.Errorf("%w: hook %q: match_regex: %v", ErrInvalidDefinition, def.Name, err)
		}
		e.regex = re
	}

	for _, pattern := range def.Tools {
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: hook %q: tool pattern %q: %v", ErrInvalidDefinition, def.Name, pattern, err)
		}
		e.globs = append(e.globs, g)
	}

	if def.When != "" {
		ast, issues := celEnv.Compile(def.When)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("%w: hook %q: %v", ErrInvalidExpression, def.Name, issues.Err())
		}
		program, err := celEnv.Program(ast)
		if err != nil {
			return fmt.Errorf("%w: hook %q: %v", ErrInvalidExpression, def.Name, err)
		}
		e.when = program
	}

	return nil
}

// validateDependency checks that depends_on resolves within the same
// event scope, and that tool-scoped hooks share at least one filter
// entry (an empty filter overlaps everything).
func (r *Registry) validateDependency(entry *Entry) error {
	dep := entry.Def.DependsOn
	if dep == "" {
		return nil
	}
	if dep == entry.Def.Name {
		return fmt.Errorf("%w: %s -> %s", ErrCyclicDependency, entry.Def.Name, dep)
	}

	target, ok := r.byName[dep]
	if !ok {
		return fmt.Errorf("%w: hook %q depends on %q", ErrUnknownDependency, entry.Def.Name, dep)
	}
	if target.Def.Event != entry.Def.Event {
		return fmt.Errorf("%w: hook %q (%s) depends on %q (%s)",
			ErrDependencyScope, entry.Def.Name, entry.Def.Event, dep, target.Def.Event)
	}
	if !toolScopesOverlap(entry.Def.Tools, target.Def.Tools) {
		return fmt.Errorf("%w: hook %q and %q have disjoint tool filters",
			ErrDependencyScope, entry.Def.Name, dep)
	}
	return nil
}

func toolScopesOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// checkCycles runs a depth-first traversal with a recursion stack over
// the depends_on edges. A back-edge is reported with the cycle spelled
// out.
func (r *Registry) checkCycles() error {
	const (
		unvisited = iota
		inStack
		done
	)

	state := make(map[string]int, len(r.entries))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case inStack:
			// Trim the stack to the start of the cycle for the report.
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), name)
			return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(cycle, " -> "))
		}

		state[name] = inStack
		stack = append(stack, name)

		if dep := r.byName[name].Def.DependsOn; dep != "" {
			if _, ok := r.byName[dep]; ok {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, entry := range r.entries {
		if err := visit(entry.Def.Name); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns enabled hooks bound to the event, in load order. For
// tool-scoped events the tool must pass each hook's filter; other
// events ignore the tool argument.
func (r *Registry) Lookup(event hook.EventKind, tool string) []*Entry {
	var matches []*Entry
	for _, entry := range r.entries {
		if !entry.Def.Enabled {
			continue
		}
		if entry.Def.Event != event {
			continue
		}
		if event.ToolScoped() && !entry.MatchesTool(tool) {
			continue
		}
		matches = append(matches, entry)
	}
	return matches
}

// Get returns the entry for a hook name.
func (r *Registry) Get(name string) (*Entry, bool) {
	entry, ok := r.byName[name]
	return entry, ok
}

// All returns every entry in load order, including disabled hooks.
func (r *Registry) All() []*Entry {
	return r.entries
}

// Len returns the number of loaded hooks.
func (r *Registry) Len() int {
	return len(r.entries)
}

// MatchesTool reports whether the tool passes the hook's filter. An
// empty filter matches any tool.
func (e *Entry) MatchesTool(tool string) bool {
	if len(e.globs) == 0 {
		return true
	}
	for _, g := range e.globs {
		if g.Match(tool) {
			return true
		}
	}
	return false
}

// Matches applies the hook's command pattern, conditions, and when
// expression to the context. The returned error is advisory: a
// condition that cannot be evaluated is a non-match, and the caller
// decides whether to log it.
func (e *Entry) Matches(ctx *hook.ExecutionContext) (bool, error) {
	def := e.Def

	if def.MatchPattern != "" {
		if ctx.Command == "" || !strings.Contains(ctx.Command, def.MatchPattern) {
			return false, nil
		}
	}
	if e.regex != nil {
		if ctx.Command == "" || !e.regex.MatchString(ctx.Command) {
			return false, nil
		}
	}

	for _, cond := range def.Conditions {
		ok, err := cond.Eval(ctx)
		if err != nil {
			return false, fmt.Errorf("hook %q: %w", def.Name, err)
		}
		if !ok {
			return false, nil
		}
	}

	if e.when != nil {
		result, _, err := e.when.Eval(map[string]any{
			"event":   string(ctx.Event),
			"tool":    ctx.Tool,
			"file":    ctx.FilePath,
			"command": ctx.Command,
			"session": ctx.SessionID,
		})
		if err != nil {
			return false, fmt.Errorf("%w: hook %q: %v", ErrExpressionEval, def.Name, err)
		}
		ok, isBool := result.Value().(bool)
		if !isBool {
			return false, fmt.Errorf("%w: hook %q: expression did not return boolean", ErrExpressionEval, def.Name)
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}
