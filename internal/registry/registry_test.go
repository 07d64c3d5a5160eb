package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/watzon/hookline/internal/hook"
)

func def(name string, event hook.EventKind, mutate ...func(*hook.Definition)) hook.Definition {
	d := hook.Definition{
		Name:    name,
		Event:   event,
		Command: "/bin/true",
		Enabled: true,
	}
	for _, m := range mutate {
		m(&d)
	}
	return d
}

func TestLoad_Valid(t *testing.T) {
	r, err := Load([]hook.Definition{
		def("a", hook.ToolBefore),
		def("b", hook.ToolBefore, func(d *hook.Definition) { d.DependsOn = "a" }),
		def("c", hook.SessionStart),
	})
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	entry, ok := r.Get("b")
	require.True(t, ok)
	require.Equal(t, 1, entry.Index)
	require.Equal(t, hook.DefaultTimeout, entry.Def.Timeout)
}

func TestLoad_TimeoutDefaulting(t *testing.T) {
	r, err := Load([]hook.Definition{
		def("a", hook.ToolBefore, func(d *hook.Definition) { d.Timeout = 5 * time.Second }),
	})
	require.NoError(t, err)
	entry, _ := r.Get("a")
	require.Equal(t, 5*time.Second, entry.Def.Timeout)

	_, err = Load([]hook.Definition{
		def("a", hook.ToolBefore, func(d *hook.Definition) { d.Timeout = -time.Second }),
	})
	require.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestLoadWithOptions_DefaultTimeout(t *testing.T) {
	r, err := LoadWithOptions([]hook.Definition{
		def("bare", hook.ToolBefore),
		def("explicit", hook.ToolBefore, func(d *hook.Definition) { d.Timeout = 5 * time.Second }),
	}, Options{DefaultTimeout: 2 * time.Second})
	require.NoError(t, err)

	// The configured default fills in only unset timeouts.
	bare, _ := r.Get("bare")
	require.Equal(t, 2*time.Second, bare.Def.Timeout)
	explicit, _ := r.Get("explicit")
	require.Equal(t, 5*time.Second, explicit.Def.Timeout)

	// A zero option falls back to the package default.
	r, err = LoadWithOptions([]hook.Definition{def("bare", hook.ToolBefore)}, Options{})
	require.NoError(t, err)
	bare, _ = r.Get("bare")
	require.Equal(t, hook.DefaultTimeout, bare.Def.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		defs    []hook.Definition
		wantErr error
	}{
		{
			"duplicate name",
			[]hook.Definition{def("a", hook.ToolBefore), def("a", hook.ToolAfter)},
			ErrDuplicateName,
		},
		{
			"empty name",
			[]hook.Definition{def("  ", hook.ToolBefore)},
			ErrInvalidDefinition,
		},
		{
			"unknown event",
			[]hook.Definition{def("a", "notification")},
			ErrInvalidDefinition,
		},
		{
			"missing command",
			[]hook.Definition{def("a", hook.ToolBefore, func(d *hook.Definition) { d.Command = "" })},
			ErrInvalidDefinition,
		},
		{
			"tool filter on lifecycle event",
			[]hook.Definition{def("a", hook.SessionStart, func(d *hook.Definition) { d.Tools = []string{"bash"} })},
			ErrInvalidDefinition,
		},
		{
			"dangling dependency",
			[]hook.Definition{def("a", hook.ToolBefore, func(d *hook.Definition) { d.DependsOn = "ghost" })},
			ErrUnknownDependency,
		},
		{
			"dependency across events",
			[]hook.Definition{
				def("a", hook.ToolAfter),
				def("b", hook.ToolBefore, func(d *hook.Definition) { d.DependsOn = "a" }),
			},
			ErrDependencyScope,
		},
		{
			"dependency across disjoint tool filters",
			[]hook.Definition{
				def("a", hook.ToolBefore, func(d *hook.Definition) { d.Tools = []string{"bash"} }),
				def("b", hook.ToolBefore, func(d *hook.Definition) {
					d.Tools = []string{"write"}
					d.DependsOn = "a"
				}),
			},
			ErrDependencyScope,
		},
		{
			"self dependency",
			[]hook.Definition{def("a", hook.ToolBefore, func(d *hook.Definition) { d.DependsOn = "a" })},
			ErrCyclicDependency,
		},
		{
			"invalid regex",
			[]hook.Definition{def("a", hook.ToolBefore, func(d *hook.Definition) { d.MatchRegex = "(" })},
			ErrInvalidDefinition,
		},
		{
			"invalid when expression",
			[]hook.Definition{def("a", hook.ToolBefore, func(d *hook.Definition) { d.When = "tool ==" })},
			ErrInvalidExpression,
		},
		{
			"non-boolean when expression",
			[]hook.Definition{def("a", hook.ToolBefore, func(d *hook.Definition) { d.When = "unknown_var" })},
			ErrInvalidExpression,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Load(tt.defs)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, r)
		})
	}
}

func TestLoad_CycleDetection(t *testing.T) {
	_, err := Load([]hook.Definition{
		def("a", hook.ToolBefore, func(d *hook.Definition) { d.DependsOn = "c" }),
		def("b", hook.ToolBefore, func(d *hook.Definition) { d.DependsOn = "a" }),
		def("c", hook.ToolBefore, func(d *hook.Definition) { d.DependsOn = "b" }),
	})
	require.ErrorIs(t, err, ErrCyclicDependency)
	// The cycle is named in the error.
	require.Contains(t, err.Error(), "a")
	require.Contains(t, err.Error(), "b")
	require.Contains(t, err.Error(), "c")
}

func TestLookup(t *testing.T) {
	r, err := Load([]hook.Definition{
		def("any-tool", hook.ToolBefore),
		def("bash-only", hook.ToolBefore, func(d *hook.Definition) { d.Tools = []string{"bash"} }),
		def("mcp-glob", hook.ToolBefore, func(d *hook.Definition) { d.Tools = []string{"mcp_*"} }),
		def("disabled", hook.ToolBefore, func(d *hook.Definition) { d.Enabled = false }),
		def("after-hook", hook.ToolAfter),
		def("greeter", hook.SessionStart),
	})
	require.NoError(t, err)

	names := func(entries []*Entry) []string {
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Def.Name)
		}
		return out
	}

	require.Equal(t, []string{"any-tool", "bash-only"}, names(r.Lookup(hook.ToolBefore, "bash")))
	require.Equal(t, []string{"any-tool"}, names(r.Lookup(hook.ToolBefore, "write")))
	require.Equal(t, []string{"any-tool", "mcp-glob"}, names(r.Lookup(hook.ToolBefore, "mcp_github")))
	require.Equal(t, []string{"after-hook"}, names(r.Lookup(hook.ToolAfter, "bash")))
	require.Equal(t, []string{"greeter"}, names(r.Lookup(hook.SessionStart, "")))
	require.Empty(t, r.Lookup(hook.SessionEnd, ""))
}

func TestEntry_Matches(t *testing.T) {
	r, err := Load([]hook.Definition{
		def("pattern", hook.ToolBefore, func(d *hook.Definition) { d.MatchPattern = "git push" }),
		def("regex", hook.ToolBefore, func(d *hook.Definition) { d.MatchRegex = "^git push.*--force" }),
		def("cel", hook.ToolBefore, func(d *hook.Definition) { d.When = `tool == "bash" && file.endsWith(".go")` }),
		def("unconditional", hook.ToolBefore),
	})
	require.NoError(t, err)

	get := func(name string) *Entry {
		e, ok := r.Get(name)
		require.True(t, ok)
		return e
	}

	t.Run("pattern", func(t *testing.T) {
		ok, err := get("pattern").Matches(&hook.ExecutionContext{Command: "git push origin main"})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = get("pattern").Matches(&hook.ExecutionContext{Command: "git status"})
		require.NoError(t, err)
		require.False(t, ok)

		// A set pattern with no command text never matches.
		ok, err = get("pattern").Matches(&hook.ExecutionContext{})
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("regex", func(t *testing.T) {
		ok, err := get("regex").Matches(&hook.ExecutionContext{Command: "git push --force origin main"})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = get("regex").Matches(&hook.ExecutionContext{Command: "git push origin main"})
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("cel", func(t *testing.T) {
		ok, err := get("cel").Matches(&hook.ExecutionContext{Tool: "bash", FilePath: "main.go"})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = get("cel").Matches(&hook.ExecutionContext{Tool: "write", FilePath: "main.go"})
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("unconditional", func(t *testing.T) {
		ok, err := get("unconditional").Matches(&hook.ExecutionContext{})
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestEntry_MatchesConditionError(t *testing.T) {
	r, err := Load([]hook.Definition{
		def("size", hook.ToolBefore, func(d *hook.Definition) {
			d.Conditions = []hook.Condition{{Kind: hook.CondFileSize, Op: hook.SizeLess, Bytes: 100}}
		}),
	})
	require.NoError(t, err)

	entry, _ := r.Get("size")

	// Missing file: plain non-match.
	ok, err := entry.Matches(&hook.ExecutionContext{FilePath: "/nonexistent"})
	require.NoError(t, err)
	require.False(t, ok)
}
