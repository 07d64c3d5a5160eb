package hookfile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/watzon/hookline/internal/hook"
)

func TestParse(t *testing.T) {
	data := []byte(`
hooks:
  - name: gofmt-check
    event: before
    tool: write
    command: ./hooks/gofmt_check.sh
    timeout: 10
    conditions:
      file_extension: go
  - name: push-guard
    event: before
    tools: [bash, git]
    command: ./hooks/push_guard.sh
    match_regex: "^git push.*--force"
  - name: session-log
    event: session_start
    command: echo "session started"
    enabled: false
`)

	defs, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	require.Equal(t, "gofmt-check", defs[0].Name)
	require.Equal(t, hook.ToolBefore, defs[0].Event)
	require.Equal(t, []string{"write"}, defs[0].Tools)
	require.Equal(t, 10*time.Second, defs[0].Timeout)
	require.True(t, defs[0].Enabled)
	require.Len(t, defs[0].Conditions, 1)
	require.Equal(t, hook.CondFileExtension, defs[0].Conditions[0].Kind)
	require.Equal(t, "go", defs[0].Conditions[0].Ext)

	require.Equal(t, []string{"bash", "git"}, defs[1].Tools)
	require.Equal(t, "^git push.*--force", defs[1].MatchRegex)

	require.Equal(t, hook.SessionStart, defs[2].Event)
	require.False(t, defs[2].Enabled)
	require.Zero(t, defs[2].Timeout)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			"unknown field",
			"hooks:\n  - name: a\n    event: before\n    command: /bin/true\n    timout: 5\n",
		},
		{
			"missing name",
			"hooks:\n  - event: before\n    command: /bin/true\n",
		},
		{
			"missing event",
			"hooks:\n  - name: a\n    command: /bin/true\n",
		},
		{
			"invalid event",
			"hooks:\n  - name: a\n    event: notification\n    command: /bin/true\n",
		},
		{
			"missing command",
			"hooks:\n  - name: a\n    event: before\n",
		},
		{
			"negative timeout",
			"hooks:\n  - name: a\n    event: before\n    command: /bin/true\n    timeout: -1\n",
		},
		{
			"bad size string",
			"hooks:\n  - name: a\n    event: before\n    command: /bin/true\n    conditions:\n      file_size: huge\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestParseSizeLimit(t *testing.T) {
	tests := []struct {
		in      string
		op      hook.SizeOp
		bytes   int64
		wantErr bool
	}{
		{"100KB", hook.SizeLessEqual, 100 << 10, false},
		{"<=1MB", hook.SizeLessEqual, 1 << 20, false},
		{"<1MB", hook.SizeLess, 1 << 20, false},
		{">512B", hook.SizeGreater, 512, false},
		{">= 2GB", hook.SizeGreaterEqual, 2 << 30, false},
		{"1tb", hook.SizeLessEqual, 1 << 40, false},
		{"100", "", 0, true},
		{"KB", "", 0, true},
		{"=1MB", "", 0, true},
		{"1MB extra", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			op, n, err := ParseSizeLimit(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.op, op)
			require.Equal(t, tt.bytes, n)
		})
	}
}
