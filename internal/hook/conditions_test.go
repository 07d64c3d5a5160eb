package hook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCondition_FileExtension(t *testing.T) {
	cond := Condition{Kind: CondFileExtension, Ext: "go"}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"matching extension", "cmd/main.go", true},
		{"different extension", "README.md", false},
		{"case sensitive", "cmd/MAIN.GO", false},
		{"no extension", "Makefile", false},
		{"no file path", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cond.Eval(&ExecutionContext{FilePath: tt.path})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_PathPrefix(t *testing.T) {
	cond := Condition{Kind: CondPathPrefix, Prefix: "src/core"}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"inside prefix", "src/core/engine.go", true},
		{"exact match", "src/core", true},
		{"unclean path", "src/./core/engine.go", true},
		{"sibling directory", "src/corelib/engine.go", false},
		{"outside prefix", "docs/readme.md", false},
		{"no file path", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cond.Eval(&ExecutionContext{FilePath: tt.path})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_FileSize(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "payload.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o644))

	tests := []struct {
		name  string
		op    SizeOp
		bytes int64
		want  bool
	}{
		{"under upper bound", SizeLess, 2048, true},
		{"at exclusive bound", SizeLess, 1024, false},
		{"at inclusive bound", SizeLessEqual, 1024, true},
		{"over lower bound", SizeGreater, 512, true},
		{"at exclusive lower bound", SizeGreater, 1024, false},
		{"at inclusive lower bound", SizeGreaterEqual, 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := Condition{Kind: CondFileSize, Op: tt.op, Bytes: tt.bytes}
			got, err := cond.Eval(&ExecutionContext{FilePath: path})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_FileSizeMissingFile(t *testing.T) {
	cond := Condition{Kind: CondFileSize, Op: SizeLess, Bytes: 1024}

	// A missing file is a non-match, not an error.
	got, err := cond.Eval(&ExecutionContext{FilePath: "/nonexistent/file.bin"})
	require.NoError(t, err)
	require.False(t, got)
}

func TestCondition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr bool
	}{
		{"valid extension", Condition{Kind: CondFileExtension, Ext: "py"}, false},
		{"extension with dot", Condition{Kind: CondFileExtension, Ext: ".py"}, true},
		{"empty extension", Condition{Kind: CondFileExtension}, true},
		{"valid prefix", Condition{Kind: CondPathPrefix, Prefix: "src"}, false},
		{"empty prefix", Condition{Kind: CondPathPrefix}, true},
		{"valid size", Condition{Kind: CondFileSize, Op: SizeLessEqual, Bytes: 100}, false},
		{"bad operator", Condition{Kind: CondFileSize, Op: "=", Bytes: 100}, true},
		{"negative bound", Condition{Kind: CondFileSize, Op: SizeLess, Bytes: -1}, true},
		{"unknown kind", Condition{Kind: "mtime"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestExecutionContext_Environ(t *testing.T) {
	ctx := &ExecutionContext{
		Event:     ToolBefore,
		Tool:      "bash",
		FilePath:  "main.go",
		Command:   "go build ./...",
		SessionID: "sess-1",
		Env:       map[string]string{"EXTRA": "1"},
	}

	env := ctx.Environ("build-guard")
	require.Equal(t, "bash", env["TOOL_NAME"])
	require.Equal(t, "main.go", env["FILE_PATH"])
	require.Equal(t, "sess-1", env["CLAUDE_SESSION_ID"])
	require.Equal(t, "build-guard", env["HOOK_NAME"])
	require.Equal(t, "go build ./...", env["BASH_COMMAND"])
	require.Equal(t, "1", env["EXTRA"])
}

func TestExecutionContext_EnvironNoCommand(t *testing.T) {
	env := (&ExecutionContext{Event: SessionStart, SessionID: "s"}).Environ("greet")
	_, ok := env["BASH_COMMAND"]
	require.False(t, ok)
}

func TestEventKind(t *testing.T) {
	require.True(t, ToolBefore.IsValid())
	require.True(t, SlashCommand.IsValid())
	require.False(t, EventKind("notification").IsValid())

	require.True(t, ToolBefore.ToolScoped())
	require.True(t, ToolAfter.ToolScoped())
	require.False(t, SessionStart.ToolScoped())

	require.True(t, ToolBefore.Blocking())
	require.True(t, SlashCommand.Blocking())
	require.False(t, ToolAfter.Blocking())
	require.False(t, AgentDestroyed.Blocking())
}
